// Package graph defines the node/edge model executed by the flow engine.
//
// A flow is a list of typed nodes connected by two kinds of edges: data edges
// carry values from an output handle to an input handle, exec edges carry
// activation signals only. Index gives constant-time lookup of nodes and
// their incoming and outgoing edges while preserving the caller's order.
//
// Flows can be stored as YAML files with recursive includes:
//
//	name: pricing
//	includes: [common-inputs]
//	nodes:
//	  - id: a
//	    type: constant
//	    config: {value: 2}
//	edges:
//	  - {source: a, target: add, sourceHandle: output, targetHandle: a}
package graph
