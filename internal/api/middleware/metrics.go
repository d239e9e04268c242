package middleware

import (
	"net/http"
	"sync/atomic"
)

// Counters feeds the runtime stats endpoint with request and error
// totals. The counters live on the app so the endpoint can read them
// without reaching into the middleware.
type Counters struct {
	requests *atomic.Int64
	errors   *atomic.Int64
}

func NewCounters(requests, errors *atomic.Int64) *Counters {
	return &Counters{requests: requests, errors: errors}
}

// Middleware counts every request and every 4xx/5xx response.
func (c *Counters) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.requests.Add(1)

		rec := record(w)
		next.ServeHTTP(rec, r)

		if rec.status >= http.StatusBadRequest {
			c.errors.Add(1)
		}
	})
}
