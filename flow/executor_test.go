package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/kbukum/nodeflow/errors"
	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/util"
)

func runSingle(t *testing.T, def registry.Definition, opts ...Option) (*RunResult, error) {
	t.Helper()
	e := NewEngine(testCatalog(t, def), opts...)
	return e.RunFlow(context.Background(), []graph.Node{node("n", def.Type, nil)}, nil, nil, nil)
}

// --- Failure mapping ---

func TestExecutor_AsyncTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	res, err := runSingle(t, registry.Definition{
		Type:      "slow",
		Execution: registry.ExecutionPolicy{Async: true, Timeout: 20 * time.Millisecond},
		Operation: func(context.Context, registry.Request) (any, error) {
			<-release
			return "late", nil
		},
	})
	if !apperrors.HasCode(err, apperrors.ErrCodeExecutionTimeout) {
		t.Fatalf("expected EXECUTION_TIMEOUT, got %v", err)
	}
	if res.Results["n"].Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", res.Results["n"].Status)
	}
}

func TestExecutor_AsyncOperationObservingDeadline(t *testing.T) {
	_, err := runSingle(t, registry.Definition{
		Type:      "slow",
		Execution: registry.ExecutionPolicy{Async: true, Timeout: 10 * time.Millisecond},
		Operation: func(ctx context.Context, _ registry.Request) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	if !apperrors.HasCode(err, apperrors.ErrCodeExecutionTimeout) {
		t.Fatalf("expected EXECUTION_TIMEOUT, got %v", err)
	}
}

func TestExecutor_EngineDefaultTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	_, err := runSingle(t, registry.Definition{
		Type:      "slow",
		Execution: registry.ExecutionPolicy{Async: true},
		Operation: func(context.Context, registry.Request) (any, error) {
			<-release
			return nil, nil
		},
	}, WithConfig(Config{DefaultTimeout: 10 * time.Millisecond}))
	if !apperrors.HasCode(err, apperrors.ErrCodeExecutionTimeout) {
		t.Fatalf("expected EXECUTION_TIMEOUT, got %v", err)
	}
}

func TestExecutor_SyncIgnoresTimeout(t *testing.T) {
	res, err := runSingle(t, registry.Definition{
		Type:      "sync",
		Handles:   registry.Handles{Outputs: []string{"out"}},
		Execution: registry.ExecutionPolicy{Timeout: time.Millisecond},
		Operation: func(context.Context, registry.Request) (any, error) {
			time.Sleep(10 * time.Millisecond)
			return "done", nil
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := res.Output("n", "out"); got != "done" {
		t.Fatalf("expected done, got %v", got)
	}
}

func TestExecutor_FailureMapping(t *testing.T) {
	cause := errors.New("division by zero")
	tests := []struct {
		name    string
		op      registry.Operation
		code    apperrors.ErrorCode
		message string
	}{
		{
			name:    "panic",
			op:      func(context.Context, registry.Request) (any, error) { panic("boom") },
			code:    apperrors.ErrCodeNodeRuntime,
			message: "panic: boom",
		},
		{
			name:    "plain error",
			op:      func(context.Context, registry.Request) (any, error) { return nil, cause },
			code:    apperrors.ErrCodeNodeRuntime,
			message: "division by zero",
		},
		{
			name: "app error",
			op: func(context.Context, registry.Request) (any, error) {
				return nil, apperrors.Validation("bad input")
			},
			code:    apperrors.ErrCodeInvalidInput,
			message: "bad input",
		},
		{
			name:    "context error",
			op:      func(context.Context, registry.Request) (any, error) { return nil, context.Canceled },
			code:    apperrors.ErrCodeCancelled,
			message: "context canceled",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runSingle(t, registry.Definition{Type: "failing", Operation: tc.op})
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %T: %v", err, err)
			}
			if appErr.Code != tc.code {
				t.Errorf("expected %s, got %s", tc.code, appErr.Code)
			}
			if !strings.Contains(appErr.Error(), tc.message) {
				t.Errorf("expected %q in %q", tc.message, appErr.Error())
			}
			if appErr.NodeID() != "n" {
				t.Errorf("expected node id n, got %q", appErr.NodeID())
			}
		})
	}
}

func TestExecutor_CancelledDuringNode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := NewEngine(testCatalog(t, registry.Definition{
		Type: "cancel",
		Operation: func(ctx context.Context, _ registry.Request) (any, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}))

	res, err := e.RunFlow(ctx, []graph.Node{node("n", "cancel", nil)}, nil, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled to stay reachable, got %v", err)
	}
	appErr, ok := apperrors.AsAppError(res.Results["n"].Error)
	if !ok || appErr.Code != apperrors.ErrCodeCancelled || appErr.NodeID() != "n" {
		t.Fatalf("expected CANCELLED for node n, got %v", res.Results["n"].Error)
	}
	if appErr.Details["node_type"] != "cancel" {
		t.Errorf("expected node_type detail, got %v", appErr.Details["node_type"])
	}
}

func TestExecutor_MissingOperation(t *testing.T) {
	_, err := runSingle(t, registry.Definition{Type: "empty"})
	if !apperrors.HasCode(err, apperrors.ErrCodeMissingOperation) {
		t.Fatalf("expected MISSING_OPERATION, got %v", err)
	}
}

func TestExecutor_RecordResultMustBeMap(t *testing.T) {
	_, err := runSingle(t, registry.Definition{
		Type:    "pair",
		Handles: registry.Handles{Outputs: []string{"a", "b"}},
		Operation: func(context.Context, registry.Request) (any, error) {
			return 42, nil
		},
	})
	if !apperrors.HasCode(err, apperrors.ErrCodeNodeRuntime) {
		t.Fatalf("expected NODE_RUNTIME, got %v", err)
	}
}

// --- Middleware and config ---

func TestExecutor_MiddlewareOrder(t *testing.T) {
	var calls []string
	trace := func(name string) Middleware {
		return func(next registry.Operation) registry.Operation {
			return func(ctx context.Context, req registry.Request) (any, error) {
				calls = append(calls, name+":before")
				out, err := next(ctx, req)
				calls = append(calls, name+":after")
				return out, err
			}
		}
	}

	_, err := runSingle(t, registry.Definition{
		Type: "op",
		Operation: func(context.Context, registry.Request) (any, error) {
			calls = append(calls, "op")
			return nil, nil
		},
	}, WithMiddleware(trace("a"), trace("b")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a:before", "b:before", "op", "b:after", "a:after"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, calls)
	}
}

func TestMergeConfig_Precedence(t *testing.T) {
	def := &registry.Definition{
		Type: "x",
		Config: map[string]registry.ConfigField{
			"a": {Default: "default"},
			"b": {Default: "default"},
			"c": {Default: "default"},
			"d": {Default: "default"},
		},
		ExposedFields: []string{"d"},
	}
	base := map[string]any{"b": "base", "c": "base", "d": "base"}
	overlay := map[string]any{"c": "overlay", "d": "overlay"}
	inputs := map[string]any{"d": "input", "b": "ignored"}

	cfg := mergeConfig(def, base, overlay, inputs)
	want := map[string]string{"a": "default", "b": "base", "c": "overlay", "d": "input"}
	for k, v := range want {
		if cfg[k] != v {
			t.Errorf("%s: expected %q, got %v", k, v, cfg[k])
		}
	}
	if base["c"] != "base" || overlay["d"] != "overlay" {
		t.Fatal("expected sources to stay untouched")
	}
}

func TestExecutor_UpdateNodeConfigWithinRun(t *testing.T) {
	var seen []any
	reg := testCatalog(t, registry.Definition{
		Type:       "counter",
		ExecInputs: true,
		Config:     map[string]registry.ConfigField{"count": {Default: 0}},
		Operation: func(_ context.Context, req registry.Request) (any, error) {
			n, _ := util.ToInt(req.Config["count"])
			seen = append(seen, n)
			req.Exec.UpdateNodeConfig(map[string]any{"count": n + 1})
			return n, nil
		},
	})
	e := NewEngine(reg)
	nodes := []graph.Node{
		node("loop", registry.TypeRepeat, map[string]any{"maxIterations": 3}),
		node("counter", "counter", map[string]any{"count": 0}),
	}
	edges := []graph.Edge{execEdge("loop", registry.LoopBody, "counter")}

	mustRun(t, e, nodes, edges)
	if len(seen) != 3 || seen[0] != 0 || seen[1] != 1 || seen[2] != 2 {
		t.Fatalf("expected patched counts [0 1 2], got %v", seen)
	}
	if nodes[1].Config["count"] != 0 {
		t.Fatal("expected caller config to stay untouched")
	}
}

func TestExecutor_ResultsAndAdapters(t *testing.T) {
	type store struct{ name string }
	reg := testCatalog(t, registry.Definition{
		Type:    "reader",
		Handles: registry.Handles{Inputs: []string{"in"}, Outputs: []string{"out"}},
		Operation: func(_ context.Context, req registry.Request) (any, error) {
			prev, ok := req.Exec.Results("c")
			if !ok {
				return nil, errors.New("constant not recorded")
			}
			a, ok := req.Exec.Adapter("store")
			if !ok {
				return nil, errors.New("adapter missing")
			}
			return a.(*store).name + ":" + util.ToString(prev["value"]), nil
		},
	})
	e := NewEngine(reg)
	nodes := []graph.Node{
		node("c", registry.TypeConstant, map[string]any{"value": "v"}),
		node("r", "reader", nil),
	}
	edges := []graph.Edge{dataEdge("c", "value", "r", "in")}

	res := mustRun(t, e, nodes, edges, WithAdapters(map[string]any{"store": &store{name: "mem"}}))
	if got, _ := res.Output("r", "out"); got != "mem:v" {
		t.Fatalf("expected mem:v, got %v", got)
	}
}
