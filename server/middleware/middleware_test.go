package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/observability"
	"github.com/kbukum/nodeflow/server/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// --- Chain ---

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := middleware.Chain(mark("outer"), mark("inner"))(okHandler())
	serve(h, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v", order)
	}
}

// --- Recovery ---

func TestRecovery_Panic(t *testing.T) {
	h := middleware.Recovery(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/v1/runs", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q", body.Error.Code)
	}
}

func TestRecovery_NoPanic(t *testing.T) {
	rr := serve(middleware.Recovery(logger.Nop())(okHandler()), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}

// --- RequestID ---

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"generated", ""},
		{"preserved", "req-123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.Header.Get(middleware.HeaderRequestID)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.incoming != "" {
				req.Header.Set(middleware.HeaderRequestID, tt.incoming)
			}
			rr := serve(h, req)

			got := rr.Header().Get(middleware.HeaderRequestID)
			if got == "" || got != seen {
				t.Fatalf("response id %q, handler saw %q", got, seen)
			}
			if tt.incoming != "" && got != tt.incoming {
				t.Errorf("id = %q, want %q", got, tt.incoming)
			}
		})
	}
}

func TestRequestID_LoggedWithRequest(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	h := middleware.Chain(middleware.RequestID(), middleware.RequestLogger(log))(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/runs", http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, "abc")
	serve(h, req)

	if !strings.Contains(buf.String(), `"request_id":"abc"`) {
		t.Errorf("log line missing request id: %s", buf.String())
	}
}

// --- CORS ---

func TestCORS(t *testing.T) {
	cfg := middleware.CORSConfig{
		AllowedOrigins: []string{"https://app.example"},
		AllowedMethods: []string{"GET", "POST"},
	}
	h := middleware.CORS(cfg)(okHandler())

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"allowed origin", http.MethodGet, "https://app.example", http.StatusOK, "https://app.example"},
		{"other origin", http.MethodGet, "https://evil.example", http.StatusOK, ""},
		{"preflight", http.MethodOptions, "https://app.example", http.StatusNoContent, "https://app.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", http.NoBody)
			req.Header.Set("Origin", tt.origin)
			rr := serve(h, req)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("allow origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

// --- BodySizeLimit ---

func TestBodySizeLimit(t *testing.T) {
	h := middleware.BodySizeLimit("8B")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"under", "1234", http.StatusOK},
		{"over", "0123456789", http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

// --- RequestLogger ---

func TestRequestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{"server error", "/v1/runs", http.StatusInternalServerError, `"level":"error"`},
		{"client error", "/v1/runs", http.StatusBadRequest, `"level":"warn"`},
		{"ok", "/v1/runs", http.StatusOK, `"level":"debug"`},
		{"health skipped", "/health", http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
			h := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			serve(h, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))

			if tt.want == "" {
				if buf.Len() != 0 {
					t.Errorf("expected no log, got %s", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("log = %s, want %s", buf.String(), tt.want)
			}
		})
	}
}

// --- Metrics ---

func TestMetrics_PassesThrough(t *testing.T) {
	m, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	for _, mw := range []middleware.Middleware{middleware.Metrics(m, "nodeflow"), middleware.Metrics(nil, "nodeflow")} {
		rr := serve(mw(okHandler()), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d", rr.Code)
		}
	}
}

// --- RateLimit ---

func TestRateLimit(t *testing.T) {
	h := middleware.RateLimit(middleware.RateLimitConfig{RequestsPerMinute: 2})(okHandler())

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/v1/runs", http.NoBody)
		req.RemoteAddr = "10.0.0.1:5555"
		codes = append(codes, serve(h, req).Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	other := httptest.NewRequest(http.MethodPost, "/v1/runs", http.NoBody)
	other.RemoteAddr = "10.0.0.2:5555"
	if rr := serve(h, other); rr.Code != http.StatusOK {
		t.Errorf("other client status = %d", rr.Code)
	}
}
