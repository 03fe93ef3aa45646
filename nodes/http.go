package nodes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/resilience"
	"github.com/kbukum/nodeflow/typesys"
	"github.com/kbukum/nodeflow/util"
	"github.com/kbukum/nodeflow/validation"
	"github.com/kbukum/nodeflow/version"
)

// TypeHTTPRequest performs one HTTP call.
const TypeHTTPRequest = "http/request"

// HTTPClientAdapterName is the ExecContext adapter key of an optional
// *http.Client used by http/request.
const HTTPClientAdapterName = "http"

const (
	httpTimeout     = 30 * time.Second
	maxResponseSize = 10 << 20
	initialBackoff  = 100 * time.Millisecond
	maxBackoff      = 5 * time.Second
)

var httpMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead,
}

func httpDefinitions() []registry.Definition {
	return []registry.Definition{
		{
			Type:          TypeHTTPRequest,
			Category:      CategoryNetwork,
			Description:   "Calls url and returns status, headers and the decoded body.",
			Execution:     registry.ExecutionPolicy{Async: true, Timeout: httpTimeout, Mode: registry.ModeManual},
			Handles:       registry.Handles{Inputs: []string{"url", "body"}, Outputs: []string{"body", "status", "headers"}},
			ExecInputs:    true,
			ExecOutputs:   []string{ExecNext},
			ExposedFields: []string{"url", "body"},
			Config: map[string]registry.ConfigField{
				"url":     {Required: true},
				"method":  {Default: http.MethodGet},
				"headers": {Description: "Header name to value"},
				"body":    {},
				"retries": {Default: 0},
			},
			OutputTypes: map[string]typesys.Tag{"status": typesys.Integer, "headers": typesys.Object},
			Operation:   doRequest,
			Validator: func(cfg map[string]any) []string {
				v := validation.New().
					Pattern("url", util.ToString(cfg["url"]), `^https?://`).
					OneOf("method", strings.ToUpper(util.ToString(cfg["method"])), httpMethods)
				if n, ok := util.ToInt(cfg["retries"]); ok {
					v.Range("retries", n, 0, 10)
				}
				return v.Messages()
			},
		},
	}
}

func doRequest(ctx context.Context, req registry.Request) (any, error) {
	client := http.DefaultClient
	if a, ok := req.Exec.Adapter(HTTPClientAdapterName); ok {
		if c, ok := a.(*http.Client); ok {
			client = c
		}
	}
	retries, _ := util.ToInt(req.Config["retries"])

	cfg := resilience.RetryConfig{
		MaxAttempts:    retries + 1,
		InitialBackoff: initialBackoff,
		MaxBackoff:     maxBackoff,
		BackoffFactor:  2,
	}
	if req.Exec != nil && req.Exec.Logger != nil {
		cfg.OnRetry = func(attempt int, err error, _ time.Duration) {
			req.Exec.Logger.Debug("retrying http request", map[string]interface{}{"attempt": attempt, "error": err.Error()})
		}
	}
	return resilience.Retry(ctx, cfg, func() (any, error) {
		return send(ctx, client, req.Config)
	})
}

func send(ctx context.Context, client *http.Client, cfg map[string]any) (map[string]any, error) {
	method := strings.ToUpper(util.ToString(cfg["method"]))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := ""
	if b := registry.UnwrapValue(cfg["body"]); b != nil {
		switch x := b.(type) {
		case string:
			body = strings.NewReader(x)
			contentType = "text/plain; charset=utf-8"
		default:
			data, err := json.Marshal(x)
			if err != nil {
				return nil, fmt.Errorf("encoding body: %w", err)
			}
			body = bytes.NewReader(data)
			contentType = "application/json"
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, util.ToString(registry.UnwrapValue(cfg["url"])), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if headers, ok := cfg["headers"].(map[string]any); ok {
		for k, v := range headers {
			httpReq.Header.Set(k, util.ToString(v))
		}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, resilience.Retryable(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resilience.Retryable(err)
	}
	if resp.StatusCode >= 500 {
		return nil, resilience.Retryable(fmt.Errorf("server error status: %d", resp.StatusCode))
	}

	headers := make(map[string]any, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return map[string]any{
		"body":    decodeBody(resp.Header.Get("Content-Type"), data),
		"status":  resp.StatusCode,
		"headers": headers,
	}, nil
}

func decodeBody(contentType string, data []byte) any {
	if strings.Contains(contentType, "json") {
		var v any
		if err := json.Unmarshal(data, &v); err == nil {
			return v
		}
	}
	return string(data)
}
