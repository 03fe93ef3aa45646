// Package server exposes the flow engine over HTTP using gin, served over
// HTTP/1.1 and cleartext HTTP/2 (h2c).
//
// Routes:
//
//	GET  /health            service and run store health
//	GET  /alive, /ready     probes
//	GET  /version           build information
//	GET  /v1/node-types     registered node types, ?category= filters
//	POST /v1/validate       advisory config validation
//	POST /v1/runs           execute a graph, persisting the result when a store is set
//	GET  /v1/runs/:id       a persisted run result
//	POST /v1/plan           auto-execution plan for a node and trigger
//
// Errors use the errors.AppError envelope and status. A run whose node fails
// is not a request error: it answers 200 with success false.
//
// The middleware stack (server/middleware) wraps the root mux: recovery,
// request id, CORS, optional rate limiting, body size limit, OpenTelemetry
// request metrics and request logging.
package server
