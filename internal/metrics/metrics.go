// Package metrics provides Prometheus metrics collection for the engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Pricing metrics
	EstimatesTotal           *prometheus.CounterVec
	ConsultationsRecommended prometheus.Counter
	ConsultationBookings     *prometheus.CounterVec

	// Sequencer metrics
	SequencesScheduledTotal *prometheus.CounterVec
	SequencesCancelledTotal prometheus.Counter
	EmailsScheduledTotal    *prometheus.CounterVec

	// Dispatcher metrics
	EmailsDispatchedTotal *prometheus.CounterVec
	DispatchDuration      prometheus.Histogram
	DispatchQueueDepth    prometheus.Gauge

	registry prometheus.Gatherer
}

// New creates a Metrics instance registered on the default registry.
func New() *Metrics {
	m := newWithRegistry(prometheus.DefaultRegisterer)
	m.registry = prometheus.DefaultGatherer
	return m
}

// NewForTesting creates a Metrics instance on an isolated registry so tests
// do not collide on the default one.
func NewForTesting() *Metrics {
	reg := prometheus.NewRegistry()
	m := newWithRegistry(reg)
	m.registry = reg
	return m
}

func newWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stageside_http_requests_total",
			Help: "Total HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stageside_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		HTTPRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stageside_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),

		EstimatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stageside_estimates_total",
			Help: "Pricing estimates by service and outcome.",
		}, []string{"service", "outcome"}),
		ConsultationsRecommended: factory.NewCounter(prometheus.CounterOpts{
			Name: "stageside_consultations_recommended_total",
			Help: "Estimates that recommended a consultation over a quote.",
		}),
		ConsultationBookings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stageside_consultation_bookings_total",
			Help: "Consultation bookings by service.",
		}, []string{"service"}),

		SequencesScheduledTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stageside_sequences_scheduled_total",
			Help: "Follow-up sequences scheduled by service.",
		}, []string{"service"}),
		SequencesCancelledTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "stageside_sequences_cancelled_total",
			Help: "Follow-up sequences cancelled.",
		}),
		EmailsScheduledTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stageside_emails_scheduled_total",
			Help: "Scheduled emails by service.",
		}, []string{"service"}),

		EmailsDispatchedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stageside_emails_dispatched_total",
			Help: "Email dispatch attempts by outcome.",
		}, []string{"outcome"}),
		DispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stageside_dispatch_duration_seconds",
			Help:    "Time spent handing one email to the transport.",
			Buckets: prometheus.DefBuckets,
		}),
		DispatchQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stageside_dispatch_queue_depth",
			Help: "Scheduled emails currently due for dispatch.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	if m.registry == prometheus.DefaultGatherer || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentHTTP wraps an http.Handler with request metrics.
func (m *Metrics) InstrumentHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}
