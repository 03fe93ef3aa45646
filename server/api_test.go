package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/nodeflow/autorun"
	"github.com/kbukum/nodeflow/flow"
	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/nodes"
	"github.com/kbukum/nodeflow/observability"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/server"
	"github.com/kbukum/nodeflow/server/endpoint"
	"github.com/kbukum/nodeflow/server/middleware"
	"github.com/kbukum/nodeflow/storage"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  *server.Meta    `json:"meta"`
	Error *struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newServer(t *testing.T, store storage.Adapter) http.Handler {
	t.Helper()
	cfg := server.Config{}
	cfg.ApplyDefaults()
	srv := server.New(cfg, logger.Nop())
	srv.ApplyMiddleware(nil, "nodeflow")

	pingers := map[string]observability.Pinger{}
	opts := []server.APIOption{}
	if store != nil {
		opts = append(opts, server.WithStore(store))
		if p, ok := store.(observability.Pinger); ok {
			pingers["storage"] = p
		}
	}
	srv.RegisterDefaultEndpoints("nodeflow", endpoint.PingChecker(pingers))

	engine := flow.NewEngine(nodes.NewRegistry())
	api := server.NewAPI(engine, autorun.NewPlanner(autorun.DefaultPolicy()), logger.Nop(), opts...)
	api.Register(srv.GinEngine())
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: body is not JSON: %v (%s)", method, path, err, rr.Body.String())
	}
	return rr, env
}

func sumFlow() server.RunRequest {
	return server.RunRequest{
		Nodes: []graph.Node{
			{ID: "in", Type: registry.TypeInput},
			{ID: "add", Type: nodes.TypeAdd, Config: map[string]any{"b": 2}},
		},
		Edges: []graph.Edge{
			{Source: "in", SourceHandle: "value", Target: "add", TargetHandle: "a"},
		},
		Inputs: map[string]any{"in": 40},
	}
}

type runBody struct {
	RunID   string                    `json:"runId"`
	Success bool                      `json:"success"`
	Outputs map[string]map[string]any `json:"outputs"`
	Error   string                    `json:"error"`
}

// --- Runs ---

func TestCreateRun(t *testing.T) {
	store := storage.NewMemory()
	h := newServer(t, store)

	rr, env := do(t, h, http.MethodPost, "/v1/runs", sumFlow())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(middleware.HeaderRequestID) == "" {
		t.Error("missing request id header")
	}
	var run runBody
	if err := json.Unmarshal(env.Data, &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if !run.Success || run.Outputs["add"]["result"] != 42.0 {
		t.Fatalf("run = %+v", run)
	}

	keys, err := store.Keys(context.Background(), flow.RunNamespace(run.RunID))
	if err != nil || len(keys) != 1 {
		t.Fatalf("persisted keys = %v, %v", keys, err)
	}

	rr, env = do(t, h, http.MethodGet, "/v1/runs/"+run.RunID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	var stored runBody
	if err := json.Unmarshal(env.Data, &stored); err != nil {
		t.Fatalf("decode stored run: %v", err)
	}
	if stored.RunID != run.RunID || stored.Outputs["add"]["result"] != 42.0 {
		t.Errorf("stored = %+v", stored)
	}
}

func TestCreateRun_NodeFailureIsReported(t *testing.T) {
	h := newServer(t, nil)
	req := server.RunRequest{Nodes: []graph.Node{
		{ID: "d", Type: nodes.TypeDivide, Config: map[string]any{"a": 1, "b": 0}},
	}}
	rr, env := do(t, h, http.MethodPost, "/v1/runs", req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var run runBody
	_ = json.Unmarshal(env.Data, &run)
	if run.Success || run.Error == "" {
		t.Errorf("run = %+v, want failure with error", run)
	}
}

func TestCreateRun_RequestErrors(t *testing.T) {
	h := newServer(t, nil)
	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing nodes", map[string]any{"edges": []any{}}, http.StatusBadRequest, "INVALID_INPUT"},
		{"duplicate ids", server.RunRequest{Nodes: []graph.Node{
			{ID: "a", Type: registry.TypeConstant}, {ID: "a", Type: registry.TypeConstant},
		}}, http.StatusBadRequest, "INVALID_INPUT"},
		{"dangling edge", server.RunRequest{
			Nodes: []graph.Node{{ID: "a", Type: registry.TypeConstant}},
			Edges: []graph.Edge{{Source: "a", Target: "ghost"}},
		}, 0, "INVALID_GRAPH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, env := do(t, h, http.MethodPost, "/v1/runs", tt.body)
			if tt.status != 0 && rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			if rr.Code < 400 {
				t.Errorf("status = %d, want an error status", rr.Code)
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("error = %+v, want %s", env.Error, tt.code)
			}
		})
	}
}

func TestGetRun_NotFound(t *testing.T) {
	for name, store := range map[string]storage.Adapter{"no store": nil, "empty store": storage.NewMemory()} {
		t.Run(name, func(t *testing.T) {
			rr, env := do(t, newServer(t, store), http.MethodGet, "/v1/runs/missing", nil)
			if rr.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
				t.Errorf("got %d %+v", rr.Code, env.Error)
			}
		})
	}
}

// --- Node types and validation ---

func TestListNodeTypes(t *testing.T) {
	h := newServer(t, nil)

	rr, env := do(t, h, http.MethodGet, "/v1/node-types", nil)
	if rr.Code != http.StatusOK || env.Meta == nil || env.Meta.Total != len(nodes.NewRegistry().List()) {
		t.Fatalf("got %d meta=%+v", rr.Code, env.Meta)
	}

	_, env = do(t, h, http.MethodGet, "/v1/node-types?category="+nodes.CategoryMath, nil)
	var defs []registry.Definition
	if err := json.Unmarshal(env.Data, &defs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(defs) != 4 {
		t.Fatalf("math types = %d, want 4", len(defs))
	}
	for i := 1; i < len(defs); i++ {
		if defs[i-1].Type > defs[i].Type {
			t.Errorf("not sorted: %s before %s", defs[i-1].Type, defs[i].Type)
		}
	}
}

func TestValidate(t *testing.T) {
	h := newServer(t, nil)
	tests := []struct {
		name      string
		body      server.ValidateRequest
		wantValid bool
	}{
		{"valid", server.ValidateRequest{Type: nodes.TypeHTTPRequest, Config: map[string]any{"url": "https://example.com"}}, true},
		{"bad url", server.ValidateRequest{Type: nodes.TypeHTTPRequest, Config: map[string]any{"url": "ftp://x"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, env := do(t, h, http.MethodPost, "/v1/validate", tt.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			var res registry.ValidationResult
			_ = json.Unmarshal(env.Data, &res)
			if res.Valid != tt.wantValid {
				t.Errorf("valid = %v, errors %v", res.Valid, res.Errors)
			}
		})
	}

	rr, env := do(t, h, http.MethodPost, "/v1/validate", server.ValidateRequest{Type: "nope/nope"})
	if rr.Code != http.StatusUnprocessableEntity || env.Error.Code != "UNKNOWN_NODE_TYPE" {
		t.Errorf("unknown type: %d %+v", rr.Code, env.Error)
	}

	_, env = do(t, h, http.MethodPost, "/v1/validate", server.ValidateRequest{Nodes: []graph.Node{
		{ID: "c", Type: registry.TypeConstant},
		{ID: "a", Type: nodes.TypeAdd},
	}})
	var batch map[string]registry.ValidationResult
	_ = json.Unmarshal(env.Data, &batch)
	if batch["c"].Valid || !batch["a"].Valid {
		t.Errorf("batch = %+v", batch)
	}
}

// --- Plan ---

func TestPlan(t *testing.T) {
	h := newServer(t, nil)
	body := server.PlanRequest{
		Nodes:   []graph.Node{{ID: "seq", Type: nodes.TypeSequence}, {ID: "len", Type: nodes.TypeLength}},
		Edges:   []graph.Edge{{Source: "seq", SourceHandle: "items", Target: "len", TargetHandle: "items"}},
		NodeID:  "seq",
		Trigger: string(autorun.TriggerDataReceived),
	}
	rr, env := do(t, h, http.MethodPost, "/v1/plan", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Plan []string `json:"plan"`
	}
	_ = json.Unmarshal(env.Data, &out)
	if len(out.Plan) != 1 || out.Plan[0] != "len" {
		t.Errorf("plan = %v, want [len]", out.Plan)
	}

	body.Trigger = "hover"
	rr, env = do(t, h, http.MethodPost, "/v1/plan", body)
	if rr.Code != http.StatusBadRequest || env.Error.Code != "INVALID_INPUT" {
		t.Errorf("bad trigger: %d %+v", rr.Code, env.Error)
	}
}

// --- Health ---

func TestHealthEndpoint(t *testing.T) {
	rr, _ := do(t, newServer(t, storage.NewMemory()), http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}
