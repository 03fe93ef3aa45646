package observability

import (
	"context"
	"time"
)

// HealthStatus is the state of the service or one of its components.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// SlowPing is the round trip above which a reachable component reports
// degraded.
const SlowPing = 500 * time.Millisecond

// Health is the state of one component, such as the run store.
type Health struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	LatencyMS int64        `json:"latency_ms"`
}

// ServiceHealth aggregates component health. The service is down when any
// component is down and degraded when any is degraded.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{Service: service, Status: HealthStatusUp, Version: version}
}

// AddComponent records h and lowers the overall status to match it.
func (sh *ServiceHealth) AddComponent(h Health) {
	sh.Components = append(sh.Components, h)
	switch {
	case h.Status == HealthStatusDown:
		sh.Status = HealthStatusDown
	case h.Status == HealthStatusDegraded && sh.Status == HealthStatusUp:
		sh.Status = HealthStatusDegraded
	}
}

// Pinger is implemented by storage adapters holding a connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckPing pings p and reports it down on error, degraded when slower
// than SlowPing.
func CheckPing(ctx context.Context, name string, p Pinger) Health {
	start := time.Now()
	err := p.Ping(ctx)
	h := Health{Name: name, Status: HealthStatusUp, LatencyMS: time.Since(start).Milliseconds()}
	switch {
	case err != nil:
		h.Status = HealthStatusDown
		h.Message = err.Error()
	case time.Since(start) > SlowPing:
		h.Status = HealthStatusDegraded
		h.Message = "slow response"
	}
	return h
}
