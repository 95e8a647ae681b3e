package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds the storefront's Prometheus collectors.
type Manager struct {
	Registry                 *prometheus.Registry
	CartMutationsTotal       *prometheus.CounterVec
	CartPersistFailuresTotal prometheus.Counter
	CheckoutAttemptsTotal    *prometheus.CounterVec
	HTTPRequestLatency       *prometheus.HistogramVec
}

// NewManager builds the collectors on a private registry so tests can create
// as many managers as they like.
func NewManager(namespace string) *Manager {
	registry := prometheus.NewRegistry()

	cartMutationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Total number of cart mutations by operation.",
	}, []string{"operation"})
	cartPersistFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_persist_failures_total",
		Help:      "Total number of cart writes that failed to reach storage.",
	})
	checkoutAttemptsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_attempts_total",
		Help:      "Total number of checkout attempts by outcome.",
	}, []string{"outcome"})
	httpRequestLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_latency_seconds",
		Help:      "Latency of HTTP requests by route and status class.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "status"})

	registry.MustRegister(
		cartMutationsTotal,
		cartPersistFailuresTotal,
		checkoutAttemptsTotal,
		httpRequestLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &Manager{
		Registry:                 registry,
		CartMutationsTotal:       cartMutationsTotal,
		CartPersistFailuresTotal: cartPersistFailuresTotal,
		CheckoutAttemptsTotal:    checkoutAttemptsTotal,
		HTTPRequestLatency:       httpRequestLatency,
	}
}

// ObserveMutation is nil-safe so callers may run without metrics.
func (m *Manager) ObserveMutation(operation string) {
	if m == nil {
		return
	}
	m.CartMutationsTotal.WithLabelValues(operation).Inc()
}

func (m *Manager) ObservePersistFailure() {
	if m == nil {
		return
	}
	m.CartPersistFailuresTotal.Inc()
}

func (m *Manager) ObserveCheckout(outcome string) {
	if m == nil {
		return
	}
	m.CheckoutAttemptsTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
