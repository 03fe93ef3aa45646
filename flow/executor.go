package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/kbukum/nodeflow/errors"
	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/util"
)

// ExternalInputHandle is the input through which RunFlow hands caller
// values to input nodes.
const ExternalInputHandle = "value"

// invocation is everything needed to invoke one node once.
type invocation struct {
	node      graph.Node
	def       *registry.Definition
	config    map[string]any
	inputs    map[string]any
	iteration int
	exec      *registry.ExecContext
}

// executor invokes node operations and maps their results onto handles.
type executor struct {
	catalog        registry.Catalog
	middleware     []Middleware
	defaultTimeout time.Duration
	extractors     *extractorCache
}

// resolve looks up the definition and operation of a node.
func (x *executor) resolve(node graph.Node) (*registry.Definition, registry.Operation, error) {
	def, err := x.catalog.Definition(node.Type)
	if err != nil {
		return nil, nil, apperrors.UnknownNodeType(node.ID, node.Type)
	}
	op, err := x.catalog.Operation(node.Type)
	if err != nil || op == nil {
		if apperrors.HasCode(err, apperrors.ErrCodeUnknownNodeType) {
			return nil, nil, apperrors.UnknownNodeType(node.ID, node.Type)
		}
		return nil, nil, apperrors.MissingOperation(node.ID, node.Type)
	}
	for i := len(x.middleware) - 1; i >= 0; i-- {
		op = x.middleware[i](op)
	}
	return def, op, nil
}

// mergeConfig layers definition defaults, the caller's config, live patches
// and exposed-field input overrides. None of the sources is modified.
func mergeConfig(def *registry.Definition, base, overlay, inputs map[string]any) map[string]any {
	cfg := util.Merge(def.DefaultConfig(), base, overlay)
	for k, v := range inputs {
		if def.IsExposed(k) {
			cfg[k] = v
		}
	}
	return cfg
}

// invoke runs the operation and extracts outputs. The returned result is
// never nil; on failure its Error is an *errors.AppError.
func (x *executor) invoke(ctx context.Context, inv invocation, op registry.Operation) *NodeResult {
	start := time.Now()
	res := &NodeResult{
		NodeID:    inv.node.ID,
		Type:      inv.node.Type,
		Iteration: inv.iteration,
	}

	req := registry.Request{
		NodeID:    inv.node.ID,
		NodeType:  inv.node.Type,
		Config:    inv.config,
		Inputs:    inv.inputs,
		Iteration: inv.iteration,
		Exec:      inv.exec,
	}

	var raw any
	var err error
	if inv.def.Execution.Async {
		raw, err = x.callWithTimeout(ctx, inv, op, req)
	} else {
		raw, err = safeCall(ctx, op, req)
	}
	res.Duration = time.Since(start)

	if err == nil {
		res.Outputs, err = x.extractors.get(inv.def)(inv.def, inv.config, raw)
	}
	if err != nil {
		res.Status = StatusFailed
		res.Error = annotate(inv.node, err)
		return res
	}
	res.Status = StatusExecuted
	res.Raw = raw
	return res
}

// callWithTimeout races an async operation against its timeout. The
// operation's context is cancelled when the timer fires; the engine does
// not wait for it to return.
func (x *executor) callWithTimeout(ctx context.Context, inv invocation, op registry.Operation, req registry.Request) (any, error) {
	timeout := inv.def.Execution.TimeoutOr(x.defaultTimeout)
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		raw any
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		raw, err := safeCall(opCtx, op, req)
		done <- outcome{raw, err}
	}()

	select {
	case o := <-done:
		if o.err != nil && ctx.Err() == nil && errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.ExecutionTimeout(inv.node.ID, inv.node.Type, timeout)
		}
		return o.raw, o.err
	case <-opCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.ExecutionTimeout(inv.node.ID, inv.node.Type, timeout)
	}
}

// safeCall converts a panic in the operation into an error.
func safeCall(ctx context.Context, op registry.Operation, req registry.Request) (raw any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return op(ctx, req)
}

// annotate makes sure every node failure is an AppError carrying the node.
func annotate(node graph.Node, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.NodeID() == "" {
			appErr.WithDetails(map[string]any{"node_id": node.ID, "node_type": node.Type})
		}
		return appErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Cancelled(node.ID, node.Type, err)
	}
	return apperrors.NodeRuntime(node.ID, node.Type, err)
}
