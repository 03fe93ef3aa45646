package main

import (
	"context"
	"io"
	"net/http"

	"github.com/kbukum/nodeflow/flow"
	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/nodes"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/storage"
)

// cmdRun executes a flow file once and prints the run result as JSON. A
// failed run prints the partial result and exits with status 1.
func cmdRun(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	fs := newFlagSet("run", stderr)
	inputs := keyValues{}
	vars := keyValues{}
	fs.Var(inputs, "input", "input node value as id=value (repeatable)")
	fs.Var(vars, "var", "global variable as name=value (repeatable)")
	configPath := fs.String("config", "", "config file")
	verbose := fs.Bool("v", false, "log node execution to stderr")

	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	f, err := loadFlow(path)
	if err != nil {
		return err
	}

	logCfg := cfg.Logging
	logCfg.Level = "warn"
	if *verbose {
		logCfg.Level = "debug"
	}
	log := logger.NewWithWriter(&logCfg, cfg.Name, stderr)

	external := make(map[string]any, len(f.Inputs)+len(inputs))
	for k, v := range f.Inputs {
		external[k] = v
	}
	for k, v := range inputs {
		external[k] = v
	}
	variables := registry.NewVariables()
	for k, v := range vars {
		variables.Set(k, v)
	}

	// a run from the command line keeps storage nodes in memory
	adapters := map[string]any{
		nodes.StorageAdapterName:    storage.NewMemory(),
		nodes.HTTPClientAdapterName: &http.Client{Timeout: cfg.Flow.DefaultTimeout},
	}

	engine := newEngine(cfg, log, nil)
	res, runErr := engine.RunFlow(ctx, f.Nodes, f.Edges, nil, external,
		flow.WithVariables(variables), flow.WithAdapters(adapters))
	if err := writeJSON(stdout, res); err != nil {
		return err
	}
	if runErr != nil {
		return &exitError{code: 1, msg: "run failed: " + runErr.Error()}
	}
	return nil
}
