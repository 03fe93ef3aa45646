package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/nodeflow/observability"
)

type probe struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

func newProbe(status, service string) probe {
	return probe{Status: status, Service: service, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// Liveness answers as long as the process serves requests.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, newProbe("alive", serviceName))
	}
}

// Readiness answers 503 while any component is down. A degraded component
// still counts as ready.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker != nil {
			for _, h := range checker(c.Request.Context()) {
				if h.Status == observability.HealthStatusDown {
					c.JSON(http.StatusServiceUnavailable, newProbe("not_ready", serviceName))
					return
				}
			}
		}
		c.JSON(http.StatusOK, newProbe("ready", serviceName))
	}
}
