// Command nodeflow runs flow graphs from YAML files and serves the flow
// engine over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbukum/nodeflow/version"
)

const usage = `Usage:
  nodeflow run <flow.yaml> [-input id=value]... [-var name=value]... [-config file]
  nodeflow plan <flow.yaml> -node id -trigger create|config-change|data-received [-config file]
  nodeflow serve [-config file]
  nodeflow version
`

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.msg != "" {
				fmt.Fprintln(os.Stderr, exitErr.msg)
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return &exitError{code: 2}
	}

	switch args[0] {
	case "run":
		return cmdRun(ctx, stdout, stderr, args[1:])
	case "plan":
		return cmdPlan(stdout, stderr, args[1:])
	case "serve":
		return cmdServe(ctx, stderr, args[1:])
	case "version":
		fmt.Fprintln(stdout, version.String())
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	fmt.Fprint(stderr, usage)
	return &exitError{code: 2, msg: fmt.Sprintf("unknown command %q", args[0])}
}
