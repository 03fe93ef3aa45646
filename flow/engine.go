package flow

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/nodeflow/errors"
	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/observability"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/typesys"
	"github.com/kbukum/nodeflow/util"
)

// Engine runs flows against a registry. It holds no per-run state and may
// be shared; each RunFlow call is independent.
type Engine struct {
	catalog   registry.Catalog
	cfg       Config
	log       *logger.Logger
	exec      *executor
	observers []Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets engine limits. Zero fields take defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		cfg.ApplyDefaults()
		e.cfg = cfg
	}
}

// WithLogger sets the engine logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMiddleware wraps every node operation. The first middleware is the
// outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(e *Engine) { e.exec.middleware = append(e.exec.middleware, mw...) }
}

// WithObservers receives the events of every run, before any per-run
// observer.
func WithObservers(obs ...Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, obs...) }
}

// NewEngine creates an Engine.
func NewEngine(catalog registry.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		cfg:     DefaultConfig(),
		log:     logger.Nop(),
		exec:    &executor{catalog: catalog, extractors: newExtractorCache()},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.exec.defaultTimeout = e.cfg.DefaultTimeout
	e.log = e.log.WithComponent("flow")
	return e
}

// Config returns the engine limits.
func (e *Engine) Config() Config { return e.cfg }

// Catalog returns the registry the engine resolves node types with.
func (e *Engine) Catalog() registry.Catalog { return e.catalog }

type runOptions struct {
	runID    string
	vars     *registry.Variables
	adapters map[string]any
	observer Observer
	overlay  *configOverlay
	types    *typesys.Cache
}

// RunOption configures a single RunFlow call.
type RunOption func(*runOptions)

// WithRunID sets the run id instead of generating one.
func WithRunID(id string) RunOption {
	return func(o *runOptions) { o.runID = id }
}

// WithVariables shares a variable map with the run.
func WithVariables(v *registry.Variables) RunOption {
	return func(o *runOptions) { o.vars = v }
}

// WithAdapters hands named collaborators to node operations.
func WithAdapters(adapters map[string]any) RunOption {
	return func(o *runOptions) { o.adapters = adapters }
}

// WithObserver receives every state change of the run.
func WithObserver(fn Observer) RunOption {
	return func(o *runOptions) { o.observer = fn }
}

func withOverlay(ov *configOverlay) RunOption {
	return func(o *runOptions) { o.overlay = ov }
}

func withTypeCache(c *typesys.Cache) RunOption {
	return func(o *runOptions) { o.types = c }
}

// RunFlow executes one pass over a graph. nodeConfigs, when it has an entry
// for a node, replaces that node's own config; externalInputs supplies the
// value of input nodes by id. The result is never nil and carries partial
// results when the run fails; the returned error equals RunResult.Error.
func (e *Engine) RunFlow(ctx context.Context, nodes []graph.Node, edges []graph.Edge,
	nodeConfigs map[string]map[string]any, externalInputs map[string]any, opts ...RunOption) (*RunResult, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanFlowRun)
	defer span.End()

	o := runOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	if o.vars == nil {
		o.vars = registry.NewVariables()
	}
	if o.overlay == nil {
		o.overlay = newConfigOverlay()
	}
	if o.types == nil {
		o.types = typesys.NewCache()
	}
	o.types.Reset()

	res := &RunResult{
		RunID:         o.runID,
		Results:       make(map[string]*NodeResult),
		Outputs:       make(map[string]map[string]any),
		ExecutedNodes: []string{},
	}
	log := e.log.WithRun(o.runID)
	observability.SetSpanAttribute(ctx, observability.AttrRunID, o.runID)

	r := &run{
		id:        o.runID,
		cfg:       e.cfg,
		exec:      e.exec,
		configs:   nodeConfigs,
		overlay:   o.overlay,
		external:  externalInputs,
		vars:      o.vars,
		adapters:  o.adapters,
		types:     o.types,
		observers: append(append([]Observer(nil), e.observers...), o.observer),
		log:       log,
		iteration: make(map[string]int),
		used:      make(map[string]map[string]any),
		bodies:    make(map[string][]string),
	}

	finish := func(err error) (*RunResult, error) {
		res.Error = err
		res.Success = err == nil
		res.Duration = time.Since(start)
		if r.state != nil {
			for id, nr := range r.state.results {
				res.Results[id] = nr
				if nr.Status == StatusExecuted {
					res.Outputs[id] = nr.Outputs
				}
			}
			res.ExecutedNodes = append(res.ExecutedNodes, r.state.executed...)
		}
		res.Types = make(map[string]map[string]typesys.Tag, len(res.Outputs))
		for id := range res.Outputs {
			res.Types[id] = o.types.Node(id)
		}
		r.emit(Event{Type: EventRunFinished, Err: err})
		fields := logger.Fields("executed", len(res.ExecutedNodes), logger.FieldDuration, res.Duration.Milliseconds())
		observability.SetSpanAttribute(ctx, observability.AttrExecuted, len(res.ExecutedNodes))
		if err != nil {
			observability.SetSpanAttribute(ctx, observability.AttrStatus, "failed")
			observability.SetSpanError(ctx, err)
			log.WithError(err).Warn("run failed", fields)
		} else {
			observability.SetSpanAttribute(ctx, observability.AttrStatus, "succeeded")
			log.Info("run finished", fields)
		}
		return res, err
	}

	if err := checkUniqueIDs(nodes); err != nil {
		return finish(err)
	}
	res.Validation = e.validate(nodes, r.liveConfig)

	augmented := ResolveVariableEdges(nodes, edges, r.liveConfig)
	idx, err := graph.NewIndex(nodes, augmented)
	if err != nil {
		return finish(err)
	}
	r.idx = idx
	r.state = newRunState(idx)

	log.Info("run started", logger.Fields("nodes", len(nodes), "edges", len(edges)))
	r.emit(Event{Type: EventRunStarted})
	return finish(r.execute(ctx))
}

// validate runs the advisory config check for every node and keeps the
// failures.
func (e *Engine) validate(nodes []graph.Node, configOf func(graph.Node) map[string]any) map[string]registry.ValidationResult {
	out := make(map[string]registry.ValidationResult)
	for _, n := range nodes {
		cfg := configOf(n)
		if def, err := e.catalog.Definition(n.Type); err == nil {
			cfg = util.Merge(def.DefaultConfig(), cfg)
		}
		if v := registry.ValidateConfig(e.catalog, n.Type, cfg); !v.Valid {
			out[n.ID] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func checkUniqueIDs(nodes []graph.Node) error {
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			return apperrors.InvalidInput("nodes", "node without id")
		}
		if seen[n.ID] {
			return apperrors.InvalidInput("nodes", "duplicate node id "+n.ID)
		}
		seen[n.ID] = true
	}
	return nil
}
