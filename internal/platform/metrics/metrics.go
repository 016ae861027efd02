package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP server metrics. Resolution metrics live with the
// resolution packages.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	Panics          prometheus.Counter
}

// New registers the HTTP metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idgraph_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		Panics: factory.NewCounter(prometheus.CounterOpts{
			Name: "idgraph_http_panics_total",
			Help: "Handler panics recovered by the server",
		}),
	}
}

// ObserveRequest records one request. Safe on a nil receiver.
func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementPanics() {
	if m != nil {
		m.Panics.Inc()
	}
}
