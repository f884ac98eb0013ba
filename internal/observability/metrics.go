package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "alert_dispatch"

// Metrics stores Prometheus collectors used by the API, dispatch and callback flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDuration        *prometheus.HistogramVec
	alertsTotal                *prometheus.CounterVec
	deliveriesTotal            *prometheus.CounterVec
	sendDuration               *prometheus.HistogramVec
	sendsInflight              *prometheus.GaugeVec
	callbacksTotal             *prometheus.CounterVec
	callbackRelayTotal         *prometheus.CounterVec
	reliabilityFailuresTotal   prometheus.Counter
	reliabilityUpdateErrsTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		alertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "alerts_total",
				Help:      "Total number of alerts dispatched by kind and recipient group.",
			},
			[]string{"kind", "group"},
		),
		deliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "deliveries_total",
				Help:      "Total number of delivery records created by kind and initial status.",
			},
			[]string{"kind", "status"},
		),
		sendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "provider_send_duration_seconds",
				Help:      "Provider send duration in seconds grouped by alert kind.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"kind"},
		),
		sendsInflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "sends_inflight",
				Help:      "Current number of in-flight provider sends grouped by alert kind.",
			},
			[]string{"kind"},
		),
		callbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "status_callbacks_total",
				Help:      "Total number of provider status callbacks by reconcile outcome.",
			},
			[]string{"outcome"},
		),
		callbackRelayTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "status_callback_relay_total",
				Help:      "Total number of received status callbacks by relay path (queued or inline).",
			},
			[]string{"path"},
		),
		reliabilityFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "contact_failures_recorded_total",
				Help:      "Total number of contact point failures recorded.",
			},
		),
		reliabilityUpdateErrsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "contact_failure_update_errors_total",
				Help:      "Total number of contact point failure updates that could not be stored.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.alertsTotal,
		m.deliveriesTotal,
		m.sendDuration,
		m.sendsInflight,
		m.callbacksTotal,
		m.callbackRelayTotal,
		m.reliabilityFailuresTotal,
		m.reliabilityUpdateErrsTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncAlert(kind string, group string) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues(normalizeLabel(kind), normalizeLabel(group)).Inc()
}

func (m *Metrics) IncDelivery(kind string, status string) {
	if m == nil {
		return
	}
	m.deliveriesTotal.WithLabelValues(normalizeLabel(kind), normalizeLabel(status)).Inc()
}

func (m *Metrics) ObserveSendDuration(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sendDuration.WithLabelValues(normalizeLabel(kind)).Observe(max(duration.Seconds(), 0))
}

func (m *Metrics) IncSendsInFlight(kind string) {
	if m == nil {
		return
	}
	m.sendsInflight.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) DecSendsInFlight(kind string) {
	if m == nil {
		return
	}
	m.sendsInflight.WithLabelValues(normalizeLabel(kind)).Dec()
}

func (m *Metrics) IncCallback(outcome string) {
	if m == nil {
		return
	}
	m.callbacksTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncCallbackRelay(path string) {
	if m == nil {
		return
	}
	m.callbackRelayTotal.WithLabelValues(normalizeLabel(path)).Inc()
}

func (m *Metrics) IncContactFailure() {
	if m == nil {
		return
	}
	m.reliabilityFailuresTotal.Inc()
}

func (m *Metrics) IncContactFailureUpdateError() {
	if m == nil {
		return
	}
	m.reliabilityUpdateErrsTotal.Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
