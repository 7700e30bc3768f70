package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/session"
)

// Metrics holds the storefront's Prometheus collectors.
type Metrics struct {
	// Inbound requests by route pattern
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec

	// Outbound backend attempts by base URL and outcome (ok|error)
	Attempts *prometheus.CounterVec

	// Session lifecycle events
	SessionEvents *prometheus.CounterVec
}

func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_http_requests_total",
				Help: "Total number of handled requests",
			},
			[]string{"route", "code"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_http_request_duration_seconds",
				Help:    "Request handling duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		Attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_backend_attempts_total",
				Help: "Total number of outbound attempts per backend base URL",
			},
			[]string{"base", "outcome"},
		),
		SessionEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_session_events_total",
				Help: "Total number of session events by kind",
			},
			[]string{"kind"},
		),
	}
}

// ObserveAttempt matches proxy.Forwarder's OnAttempt hook.
func (m *Metrics) ObserveAttempt(base string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Attempts.WithLabelValues(base, outcome).Inc()
}

// ObserveSession is a session.Notifier subscriber.
func (m *Metrics) ObserveSession(e session.Event) {
	m.SessionEvents.WithLabelValues(string(e.Kind)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument counts and times h under route.
func (m *Metrics) Instrument(route string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		m.Requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.Duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
