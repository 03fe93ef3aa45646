package flow

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/observability"
	"github.com/kbukum/nodeflow/registry"
)

// Middleware decorates a node operation.
type Middleware func(next registry.Operation) registry.Operation

// TracingMiddleware wraps each invocation in a span named "{prefix}.{type}".
func TracingMiddleware(prefix string) Middleware {
	return func(next registry.Operation) registry.Operation {
		return func(ctx context.Context, req registry.Request) (any, error) {
			ctx, span := observability.StartSpan(ctx, prefix+"."+req.NodeType)
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrNodeID, req.NodeID)
			observability.SetSpanAttribute(ctx, observability.AttrNodeType, req.NodeType)
			observability.SetSpanAttribute(ctx, observability.AttrIteration, req.Iteration)
			if req.Exec != nil && req.Exec.RunID != "" {
				observability.SetSpanAttribute(ctx, observability.AttrRunID, req.Exec.RunID)
			}

			result, err := next(ctx, req)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}
			return result, err
		}
	}
}

// MetricsMiddleware records execution count, duration and errors per type.
func MetricsMiddleware(metrics *observability.Metrics) Middleware {
	return func(next registry.Operation) registry.Operation {
		return func(ctx context.Context, req registry.Request) (any, error) {
			start := time.Now()
			result, err := next(ctx, req)
			duration := time.Since(start)

			status := "ok"
			if err != nil {
				status = "error"
				metrics.RecordError(ctx, "node_execute", req.NodeType)
			}
			metrics.RecordNodeExecution(ctx, req.NodeType, status, duration)
			return result, err
		}
	}
}

// LoggingMiddleware logs each invocation with its duration and outcome.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(next registry.Operation) registry.Operation {
		return func(ctx context.Context, req registry.Request) (any, error) {
			start := time.Now()
			result, err := next(ctx, req)
			duration := time.Since(start)

			fields := map[string]interface{}{
				logger.FieldNodeID:    req.NodeID,
				logger.FieldNodeType:  req.NodeType,
				logger.FieldIteration: req.Iteration,
				"duration":            duration.String(),
			}
			if err != nil {
				fields[logger.FieldError] = err.Error()
				log.Error("flow node failed", fields)
			} else {
				log.Debug("flow node completed", fields)
			}
			return result, err
		}
	}
}

// MetricsObserver records run count, duration and active runs. Install it
// with WithObservers.
func MetricsObserver(metrics *observability.Metrics) Observer {
	type runStats struct {
		start    time.Time
		executed int
	}
	var (
		mu   sync.Mutex
		runs = make(map[string]*runStats)
	)
	return func(ev Event) {
		ctx := context.Background()
		mu.Lock()
		defer mu.Unlock()
		switch ev.Type {
		case EventRunStarted:
			runs[ev.RunID] = &runStats{start: ev.Time}
			metrics.RecordRunStart(ctx)
		case EventNodeExecuted:
			if st, ok := runs[ev.RunID]; ok {
				st.executed++
			}
		case EventRunFinished:
			st, ok := runs[ev.RunID]
			if !ok {
				// failed before start: nothing was counted as active
				return
			}
			delete(runs, ev.RunID)
			status := "ok"
			if ev.Err != nil {
				status = "error"
				metrics.RecordError(ctx, "run_failed", "flow")
			}
			metrics.RecordRunEnd(ctx, status, st.executed, ev.Time.Sub(st.start))
		}
	}
}
