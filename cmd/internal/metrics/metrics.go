// Package metrics exposes Prometheus counters for the challenge/verify/validate protocol.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "altcha"

// Metrics owns a private registry so tests and multiple instances never collide.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	challenges    prometheus.Counter
	challengeErrs prometheus.Counter
	verifications *prometheus.CounterVec
	validations   *prometheus.CounterVec
	requests      *prometheus.HistogramVec
}

// New builds and registers all collectors, including Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		challenges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_issued_total",
			Help:      "Puzzles issued.",
		}),
		challengeErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenge_errors_total",
			Help:      "Puzzle issuance failures (random source).",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Solution verifications by result.",
		}, []string{"result"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_validations_total",
			Help:      "Session credential validations by result.",
		}, []string{"result"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}

	reg.MustRegister(
		m.challenges,
		m.challengeErrs,
		m.verifications,
		m.validations,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ChallengeIssued counts a successfully issued puzzle.
func (m *Metrics) ChallengeIssued() {
	if m == nil {
		return
	}
	m.challenges.Inc()
}

// ChallengeFailed counts a puzzle issuance failure.
func (m *Metrics) ChallengeFailed() {
	if m == nil {
		return
	}
	m.challengeErrs.Inc()
}

// Verified counts a verification outcome; result is altcha.Reason of the error.
func (m *Metrics) Verified(result string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(result).Inc()
}

// Validated counts a credential validation outcome.
func (m *Metrics) Validated(result string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(result).Inc()
}

// ObserveRequest records one HTTP request. Route must be a fixed pattern, never a raw path.
// Methods outside the standard set share the "other" label.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(methodLabel(method), route, statusLabel(status)).Observe(d.Seconds())
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return method
	default:
		return "other"
	}
}

func statusLabel(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests, extra collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
