package middleware

import (
	"net/http"
	"strconv"
	"time"

	"propertyhub/internal/platform/metrics"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument records request count and latency under the route pattern, not the raw path.
func Instrument(m *metrics.Metrics, method, route string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if m == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next(sw, r)
			m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(sw.status)).Inc()
			m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		}
	}
}
