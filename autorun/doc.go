// Package autorun decides which nodes an editor should execute on its own
// after a user action.
//
// A Policy holds three tables of node types: types that run when a node is
// created, when its config changes, and when new upstream data arrives.
// Nodes with an incoming exec edge are exec-driven and never auto-run.
//
//	planner := autorun.NewPlanner(autorun.DefaultPolicy())
//	ids, err := planner.Plan(nodes, edges, "seq-1", autorun.TriggerCreate)
package autorun
