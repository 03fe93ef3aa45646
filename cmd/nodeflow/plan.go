package main

import (
	"io"

	"github.com/kbukum/nodeflow/autorun"
)

// cmdPlan prints the nodes that auto-run when the trigger fires on a node.
func cmdPlan(stdout, stderr io.Writer, args []string) error {
	fs := newFlagSet("plan", stderr)
	nodeID := fs.String("node", "", "node the trigger fires on")
	trigger := fs.String("trigger", string(autorun.TriggerCreate), "create, config-change or data-received")
	configPath := fs.String("config", "", "config file")

	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if *nodeID == "" {
		return &exitError{code: 2, msg: "-node is required"}
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	f, err := loadFlow(path)
	if err != nil {
		return err
	}

	planner := autorun.NewPlanner(cfg.Autorun.Policy())
	plan, err := planner.Plan(f.Nodes, f.Edges, *nodeID, autorun.Trigger(*trigger))
	if err != nil {
		return err
	}
	return writeJSON(stdout, map[string]any{"nodeId": *nodeID, "trigger": *trigger, "plan": plan})
}
