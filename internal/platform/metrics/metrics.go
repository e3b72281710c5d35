// Package metrics owns the Prometheus collectors for the API and the workers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	TransactionsRecorded prometheus.Counter
	RentGenerated        prometheus.Counter
	LateFeesAssessed     prometheus.Counter
	JobRuns              *prometheus.CounterVec
	WebhookDeliveries    *prometheus.CounterVec
}

// New builds a private registry so tests can create as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "propertyhub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "propertyhub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		TransactionsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "propertyhub",
			Name:      "payment_transactions_recorded_total",
			Help:      "Payment transactions recorded.",
		}),
		RentGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "propertyhub",
			Name:      "rent_payments_generated_total",
			Help:      "Rent payments created by the monthly generator.",
		}),
		LateFeesAssessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "propertyhub",
			Name:      "late_fees_assessed_total",
			Help:      "Late-fee payments created.",
		}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "propertyhub",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs per organization outcome.",
		}, []string{"job", "result"}),
		WebhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "propertyhub",
			Name:      "webhook_deliveries_total",
			Help:      "Outbound webhook deliveries.",
		}, []string{"event", "result"}),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.TransactionsRecorded,
		m.RentGenerated,
		m.LateFeesAssessed,
		m.JobRuns,
		m.WebhookDeliveries,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
