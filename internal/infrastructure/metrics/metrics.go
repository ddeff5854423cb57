package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/you/companionsvc/domain"
)

const namespace = "companion"

// Metrics holds the service collectors on a private registry
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight  prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	auditEvents   *prometheus.CounterVec
	modelCalls    *prometheus.CounterVec
	modelDuration *prometheus.HistogramVec
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		auditEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "events_total",
			Help:      "Account, catalog and chat events by type and outcome.",
		}, []string{"event", "success"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat_model",
			Name:      "calls_total",
			Help:      "Total number of chat model calls.",
		}, []string{"provider", "status"}),
		modelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat_model",
			Name:      "call_duration_seconds",
			Help:      "Duration of chat model calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"provider"}),
	}

	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.auditEvents,
		m.modelCalls,
		m.modelDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// CountAuditEvent records one audit event
func (m *Metrics) CountAuditEvent(eventType string, success bool) {
	m.auditEvents.WithLabelValues(eventType, strconv.FormatBool(success)).Inc()
}

// InstrumentChatModel wraps a chat model with call metrics
func (m *Metrics) InstrumentChatModel(provider string, next domain.ChatModel) domain.ChatModel {
	return &instrumentedModel{metrics: m, provider: provider, next: next}
}

type instrumentedModel struct {
	metrics  *Metrics
	provider string
	next     domain.ChatModel
}

func (im *instrumentedModel) Reply(ctx context.Context, bot *domain.Bot, history []*domain.ChatMessage, message string) (string, error) {
	start := time.Now()
	reply, err := im.next.Reply(ctx, bot, history, message)

	status := "ok"
	if err != nil {
		status = "error"
	}
	im.metrics.modelCalls.WithLabelValues(im.provider, status).Inc()
	im.metrics.modelDuration.WithLabelValues(im.provider).Observe(time.Since(start).Seconds())
	return reply, err
}
