package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kbukum/nodeflow/observability"
)

// Metrics records request count, duration and in-flight requests.
// A nil m disables recording.
func Metrics(m *observability.Metrics, service string) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			m.RecordRequestStart(ctx)
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			m.RecordRequestEnd(ctx, service, r.Method, strconv.Itoa(sw.status), time.Since(start))
			if sw.status >= 500 {
				m.RecordError(ctx, "http_"+strconv.Itoa(sw.status), "server")
			}
		})
	}
}
