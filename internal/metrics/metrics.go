package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	SyncsTotal      prometheus.Counter
	SyncErrorsTotal prometheus.Counter

	// op: status|technician|ramp_status|ramp_assign|ramp_release|auto_assign|create|approve
	MutationsTotal *prometheus.CounterVec

	EventsPublished prometheus.Counter
	EventsConsumed  prometheus.Counter
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())

	m := &Metrics{
		registry: registry,
		SyncsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rampdesk", Subsystem: service,
			Name: "syncs_total", Help: "Completed workshop snapshot syncs.",
		}),
		SyncErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rampdesk", Subsystem: service,
			Name: "sync_errors_total", Help: "Failed workshop snapshot syncs.",
		}),
		MutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rampdesk", Subsystem: service,
			Name: "mutations_total", Help: "Mutations issued to the platform.",
		}, []string{"op", "outcome"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rampdesk", Subsystem: service,
			Name: "events_published_total", Help: "Kafka events published.",
		}),
		EventsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rampdesk", Subsystem: service,
			Name: "events_consumed_total", Help: "Kafka events consumed.",
		}),
	}
	registry.MustRegister(m.SyncsTotal, m.SyncErrorsTotal, m.MutationsTotal, m.EventsPublished, m.EventsConsumed)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Mutation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.MutationsTotal.WithLabelValues(op, outcome).Inc()
}
