package middleware

import (
	"net/http"
	"time"

	"go-telehealth-booking/internal/service"

	"github.com/gorilla/mux"
)

// MetricsMiddleware records request counts and latency per route template
type MetricsMiddleware struct {
	metrics *service.Metrics
}

func NewMetricsMiddleware(metrics *service.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: metrics}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (m *MetricsMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.metrics.ObserveHTTP(r.Method, routeTemplate(r), rec.status, time.Since(started))
	})
}

// routeTemplate keeps label cardinality bounded by using the mux path template
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
