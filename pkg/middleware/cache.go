package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// CacheControl marks successful GET and HEAD responses as cacheable for
// maxAge. Error responses get no-store so a transient failure is not
// pinned in browser caches. A Cache-Control set by the handler wins.
func CacheControl(maxAge time.Duration) func(http.Handler) http.Handler {
	directive := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(&cacheWriter{ResponseWriter: w, directive: directive}, r)
		})
	}
}

type cacheWriter struct {
	http.ResponseWriter
	directive string
	decided   bool
}

func (c *cacheWriter) WriteHeader(code int) {
	if !c.decided {
		c.decided = true
		h := c.Header()
		if h.Get("Cache-Control") == "" {
			if code < http.StatusBadRequest {
				h.Set("Cache-Control", c.directive)
			} else {
				h.Set("Cache-Control", "no-store")
			}
		}
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *cacheWriter) Write(b []byte) (int, error) {
	if !c.decided {
		c.WriteHeader(http.StatusOK)
	}
	return c.ResponseWriter.Write(b)
}

func (c *cacheWriter) Unwrap() http.ResponseWriter {
	return c.ResponseWriter
}
