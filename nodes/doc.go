// Package nodes is the built-in node library.
//
// It registers the node types the engine treats specially (input, constant,
// variable, logic/if, loop/repeat, loop/while) together with a set of leaf
// types for arithmetic, arrays, records, text, storage and HTTP. Every type
// is a plain registry.Definition; callers may register their own next to
// them.
//
//	reg := nodes.NewRegistry()
//	engine := flow.NewEngine(reg)
package nodes
