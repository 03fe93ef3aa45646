package middleware

import (
	"net/http"

	"github.com/kbukum/nodeflow/util"
)

const defaultMaxBodySize = 10 << 20

// BodySizeLimit caps request bodies at a size such as "10MB" or "512KB".
// Flow definitions posted to the run endpoint are the largest bodies served.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}
