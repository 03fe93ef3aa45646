package endpoint

import (
	"context"
	"maps"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/nodeflow/observability"
	"github.com/kbukum/nodeflow/version"
)

// HealthChecker returns the health of the server's collaborators, such as
// the run store.
type HealthChecker func(ctx context.Context) []observability.Health

// Health reports service health with component statuses. A down component
// turns the response into 503.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.NewServiceHealth(serviceName, version.Short())
		if checker != nil {
			for _, h := range checker(c.Request.Context()) {
				sh.AddComponent(h)
			}
		}

		status := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, sh)
	}
}

// PingChecker builds a HealthChecker over named pingers, reported in name
// order.
func PingChecker(pingers map[string]observability.Pinger) HealthChecker {
	names := slices.Sorted(maps.Keys(pingers))
	return func(ctx context.Context) []observability.Health {
		out := make([]observability.Health, 0, len(names))
		for _, name := range names {
			out = append(out, observability.CheckPing(ctx, name, pingers[name]))
		}
		return out
	}
}
