package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kbukum/nodeflow/config"
	"github.com/kbukum/nodeflow/flow"
	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/nodes"
	"github.com/kbukum/nodeflow/observability"
)

// keyValues collects repeated -flag key=value arguments. Values that parse
// as JSON keep their type; anything else is a string.
type keyValues map[string]any

func (kv keyValues) String() string {
	parts := make([]string, 0, len(kv))
	for k, v := range kv {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ",")
}

func (kv keyValues) Set(s string) error {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		v = raw
	}
	kv[key] = v
	return nil
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseArgs parses flags that may follow the positional flow path.
func parseArgs(fs *flag.FlagSet, args []string) (string, error) {
	var path string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		path, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", &exitError{code: 2}
	}
	if path == "" && fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	return path, nil
}

func loadConfig(path string) (*config.AppConfig, error) {
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	return config.Load(opts...)
}

// loadFlow reads a flow file and resolves its includes from the file's
// directory.
func loadFlow(path string) (*graph.Flow, error) {
	if path == "" {
		return nil, &exitError{code: 2, msg: "a flow file is required"}
	}
	f, err := graph.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return graph.Resolve(f, graph.NewFileLoader(filepath.Dir(path)))
}

// newEngine builds an engine over the built-in node library with logging,
// tracing and, when metrics is set, metric middleware.
func newEngine(cfg *config.AppConfig, log *logger.Logger, metrics *observability.Metrics) *flow.Engine {
	mw := []flow.Middleware{flow.LoggingMiddleware(log.WithComponent("flow"))}
	opts := []flow.Option{flow.WithConfig(cfg.Flow), flow.WithLogger(log)}
	if cfg.Observability.Tracing {
		mw = append([]flow.Middleware{flow.TracingMiddleware(observability.SpanFlowNode)}, mw...)
	}
	if metrics != nil {
		mw = append(mw, flow.MetricsMiddleware(metrics))
		opts = append(opts, flow.WithObservers(flow.MetricsObserver(metrics)))
	}
	opts = append(opts, flow.WithMiddleware(mw...))
	return flow.NewEngine(nodes.NewRegistry(), opts...)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
