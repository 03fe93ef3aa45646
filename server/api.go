package server

import (
	"encoding/json"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/nodeflow/autorun"
	apperrors "github.com/kbukum/nodeflow/errors"
	"github.com/kbukum/nodeflow/flow"
	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/nodes"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/storage"
)

// runResultKey is the key a run's result is stored under inside its
// namespace.
const runResultKey = "result"

// RunRequest is the body of POST /v1/runs.
type RunRequest struct {
	Nodes       []graph.Node              `json:"nodes" binding:"required"`
	Edges       []graph.Edge              `json:"edges"`
	NodeConfigs map[string]map[string]any `json:"nodeConfigs"`
	Inputs      map[string]any            `json:"inputs"`
	Variables   map[string]any            `json:"variables"`
}

// PlanRequest is the body of POST /v1/plan.
type PlanRequest struct {
	Nodes   []graph.Node `json:"nodes" binding:"required"`
	Edges   []graph.Edge `json:"edges"`
	NodeID  string       `json:"nodeId" binding:"required"`
	Trigger string       `json:"trigger" binding:"required"`
}

// ValidateRequest is the body of POST /v1/validate. Either Type with Config
// or Nodes is set.
type ValidateRequest struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config"`
	Nodes  []graph.Node   `json:"nodes"`
}

// API serves the flow endpoints over an engine, a planner and an optional
// run store.
type API struct {
	engine   *flow.Engine
	planner  *autorun.Planner
	store    storage.Adapter
	adapters map[string]any
	log      *logger.Logger
}

// APIOption configures an API.
type APIOption func(*API)

// WithStore persists every run result and enables GET /v1/runs/:id. The
// store is also handed to storage nodes.
func WithStore(s storage.Adapter) APIOption {
	return func(a *API) { a.store = s }
}

// WithAdapters sets the adapters node operations receive, such as the http
// client of http/request nodes.
func WithAdapters(adapters map[string]any) APIOption {
	return func(a *API) { a.adapters = adapters }
}

// NewAPI creates the flow API.
func NewAPI(engine *flow.Engine, planner *autorun.Planner, log *logger.Logger, opts ...APIOption) *API {
	if log == nil {
		log = logger.Nop()
	}
	a := &API{engine: engine, planner: planner, log: log.WithComponent("api")}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register mounts the /v1 routes.
func (a *API) Register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.GET("/node-types", a.listNodeTypes)
	v1.POST("/validate", a.validate)
	v1.POST("/runs", a.createRun)
	v1.GET("/runs/:id", a.getRun)
	v1.POST("/plan", a.plan)
}

func (a *API) listNodeTypes(c *gin.Context) {
	cat := a.engine.Catalog()
	category := c.Query("category")

	defs := make([]*registry.Definition, 0)
	for _, name := range cat.List() {
		def, err := cat.Definition(name)
		if err != nil {
			continue
		}
		if category != "" && def.Category != category {
			continue
		}
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })
	RespondOKWithMeta(c, defs, &Meta{Total: len(defs)})
}

func (a *API) validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	cat := a.engine.Catalog()

	if len(req.Nodes) > 0 {
		out := make(map[string]registry.ValidationResult, len(req.Nodes))
		for _, n := range req.Nodes {
			out[n.ID] = registry.ValidateConfig(cat, n.Type, n.Config)
		}
		RespondOK(c, out)
		return
	}
	if req.Type == "" {
		RespondWithError(c, apperrors.InvalidInput("type", "type or nodes is required"))
		return
	}
	if _, err := cat.Definition(req.Type); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, registry.ValidateConfig(cat, req.Type, req.Config))
}

// createRun answers 200 for finished and failed runs alike; the body carries
// success and the error. Only malformed graphs are request errors.
func (a *API) createRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	ctx := c.Request.Context()

	f := graph.Flow{Nodes: req.Nodes, Edges: req.Edges}
	f.Normalize()

	vars := registry.NewVariables()
	for k, v := range req.Variables {
		vars.Set(k, v)
	}
	adapters := make(map[string]any, len(a.adapters)+1)
	for k, v := range a.adapters {
		adapters[k] = v
	}
	if a.store != nil {
		adapters[nodes.StorageAdapterName] = a.store
	}

	res, err := a.engine.RunFlow(ctx, f.Nodes, f.Edges, req.NodeConfigs, req.Inputs,
		flow.WithVariables(vars), flow.WithAdapters(adapters))
	if apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) || apperrors.HasCode(err, apperrors.ErrCodeInvalidGraph) {
		RespondWithError(c, err)
		return
	}

	if a.store != nil {
		if serr := storage.SetJSON(ctx, a.store, flow.RunNamespace(res.RunID), runResultKey, res); serr != nil {
			a.log.WithContext(ctx).WithError(serr).Warn("failed to persist run result", logger.Fields(logger.FieldRunID, res.RunID))
		}
	}
	RespondOK(c, res)
}

func (a *API) getRun(c *gin.Context) {
	id := c.Param("id")
	if a.store == nil {
		RespondWithError(c, apperrors.NotFound("run", id))
		return
	}

	var raw json.RawMessage
	if err := storage.GetJSON(c.Request.Context(), a.store, flow.RunNamespace(id), runResultKey, &raw); err != nil {
		if storage.IsNotFound(err) {
			RespondWithError(c, apperrors.NotFound("run", id))
			return
		}
		RespondWithError(c, apperrors.Storage("get", err))
		return
	}
	RespondOK(c, raw)
}

func (a *API) plan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	trigger := autorun.Trigger(req.Trigger)
	f := graph.Flow{Nodes: req.Nodes, Edges: req.Edges}
	f.Normalize()
	plan, err := a.planner.Plan(f.Nodes, f.Edges, req.NodeID, trigger)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, gin.H{"nodeId": req.NodeID, "trigger": trigger, "plan": plan})
}
