// Package errors provides the error taxonomy shared by the flow engine,
// the node registry and the HTTP surface.
//
// Every failure is an *AppError carrying a machine-readable code, a
// human-readable message, retryable detection and optional details such as
// the failing node id and type. Node-level codes follow the engine's
// taxonomy: CONFIG_VALIDATION, UNKNOWN_NODE_TYPE, MISSING_OPERATION,
// EXECUTION_TIMEOUT, NODE_RUNTIME and RUN_DID_NOT_CONVERGE.
package errors
