// Package flow executes node graphs that mix dataflow and control flow.
//
// Data edges make a node wait for values; exec edges make it wait for an
// activation signal. A run resolves implicit variable dependencies into
// virtual edges, seeds a FIFO ready queue with entry nodes and then repeats
// dequeue, readiness check, execute, propagate signals and re-scan until the
// queue is empty, a node fails or the iteration bound is hit.
//
// Engine.RunFlow is a single pass over a graph. Session wraps the engine for
// interactive use: it keeps results queryable after a run, carries global
// variables and live config patches across runs, notifies subscribers of
// every state change and can persist results to a storage adapter.
//
//	eng := flow.NewEngine(reg, flow.WithLogger(log))
//	res, err := eng.RunFlow(ctx, nodes, edges, nil, map[string]any{"price": 12.5})
package flow
