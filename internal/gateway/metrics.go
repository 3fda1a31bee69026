package gateway

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's Prometheus collectors.
type Metrics struct {
	forwardTotal    *prometheus.CounterVec
	forwardDuration *prometheus.HistogramVec
	mediaTotal      *prometheus.CounterVec
	contactTotal    *prometheus.CounterVec
}

// NewMetrics registers the gateway collectors with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	m := &Metrics{
		forwardTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "site_gateway",
				Subsystem: "forward",
				Name:      "requests_total",
				Help:      "Forwarded API requests by method and outcome code.",
			},
			[]string{"method", "code"},
		),
		forwardDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "site_gateway",
				Subsystem: "forward",
				Name:      "duration_seconds",
				Help:      "Duration of forwarded API requests.",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		mediaTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "site_gateway",
				Subsystem: "media",
				Name:      "requests_total",
				Help:      "Media requests by response status.",
			},
			[]string{"status"},
		),
		contactTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "site_gateway",
				Subsystem: "contact",
				Name:      "submissions_total",
				Help:      "Contact relay submissions by outcome.",
			},
			[]string{"outcome"},
		),
	}

	for _, code := range []string{"OK", CodeTimeout, CodeConnection, CodeInternal} {
		m.forwardTotal.WithLabelValues("GET", code)
		m.forwardTotal.WithLabelValues("POST", code)
	}
	return m
}

func (m *Metrics) observeForward(method, code string, seconds float64) {
	if m == nil {
		return
	}
	m.forwardTotal.WithLabelValues(method, code).Inc()
	m.forwardDuration.WithLabelValues(method).Observe(seconds)
}

func (m *Metrics) observeMedia(status int) {
	if m == nil {
		return
	}
	m.mediaTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (m *Metrics) observeContact(outcome string) {
	if m == nil {
		return
	}
	m.contactTotal.WithLabelValues(outcome).Inc()
}
