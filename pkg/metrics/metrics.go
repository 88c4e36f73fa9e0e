// Package metrics exposes Prometheus collectors for the kiosk server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-kiosk/pkg/intent"
)

const namespace = "kiosk"

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	Requests         *prometheus.CounterVec
	LatencyMS        *prometheus.HistogramVec
	Intents          *prometheus.CounterVec
	UpstreamFailures *prometheus.CounterVec
	Orders           *prometheus.CounterVec
	OrderTotal       prometheus.Histogram
}

// New creates and registers the collectors. Go runtime and process
// collectors are included.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Recognized intents by screen context and kind.",
		}, []string{"context", "kind"}),
		UpstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_failures_total",
			Help:      "Failed calls to the assistant, catalog, store or event bus.",
		}, []string{"service"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_completed_total",
			Help:      "Completed orders by payment method.",
		}, []string{"payment"}),
		OrderTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_total_won",
			Help:      "Order totals in won.",
			Buckets:   prometheus.LinearBuckets(5000, 5000, 10),
		}),
	}
	m.registry.MustRegister(
		m.Requests, m.LatencyMS, m.Intents, m.UpstreamFailures, m.Orders, m.OrderTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// TrackSessions exports the number of live sessions reported by count.
func (m *Metrics) TrackSessions(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Live kiosk sessions.",
	}, func() float64 { return float64(count()) }))
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(float64(elapsed) / float64(time.Millisecond))
}

// ObserveIntent implements kiosk.Observer.
func (m *Metrics) ObserveIntent(ctx intent.Context, kind intent.Kind) {
	m.Intents.WithLabelValues(string(ctx), string(kind)).Inc()
}

// ObserveUpstreamFailure implements kiosk.Observer.
func (m *Metrics) ObserveUpstreamFailure(service string) {
	m.UpstreamFailures.WithLabelValues(service).Inc()
}

// ObserveOrder implements kiosk.Observer.
func (m *Metrics) ObserveOrder(paymentMethod string, total int) {
	m.Orders.WithLabelValues(paymentMethod).Inc()
	m.OrderTotal.Observe(float64(total))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
