package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "telehealth"

// Metrics groups the prometheus collectors of the appointment core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	BookingAttempts      *prometheus.CounterVec
	Transitions          *prometheus.CounterVec
	SweepRuns            *prometheus.CounterVec
	SweepDuration        prometheus.Histogram
	SweepRowFailures     prometheus.Counter
	NotificationFailures *prometheus.CounterVec
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BookingAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "booking_attempts_total",
			Help:      "Appointment booking attempts by result.",
		}, []string{"result"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "appointment_transitions_total",
			Help:      "Applied appointment status transitions.",
		}, []string{"from", "to", "trigger"}),
		SweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lifecycle_sweep_runs_total",
			Help:      "Lifecycle sweep runs by outcome.",
		}, []string{"outcome"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "lifecycle_sweep_duration_seconds",
			Help:      "Duration of lifecycle sweep runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		SweepRowFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lifecycle_sweep_row_failures_total",
			Help:      "Appointments the sweeper failed to reconcile.",
		}),
		NotificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "notification_failures_total",
			Help:      "Notification publishes that failed by event.",
		}, []string{"event"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.BookingAttempts,
		m.Transitions,
		m.SweepRuns,
		m.SweepDuration,
		m.SweepRowFailures,
		m.NotificationFailures,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

func (m *Metrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.BookingAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveTransition(from, to, trigger string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to, trigger).Inc()
}

func (m *Metrics) ObserveSweep(outcome string, elapsed time.Duration, failedRows int) {
	if m == nil {
		return
	}
	m.SweepRuns.WithLabelValues(outcome).Inc()
	m.SweepDuration.Observe(elapsed.Seconds())
	m.SweepRowFailures.Add(float64(failedRows))
}

func (m *Metrics) ObserveNotificationFailure(event string) {
	if m == nil {
		return
	}
	m.NotificationFailures.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
