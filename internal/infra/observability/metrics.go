package observability

import (
	"time"

	"github.com/indianbaazaar/storefront-chat-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the chat service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	externalErrors     *prometheus.CounterVec
	conversationsTotal *prometheus.CounterVec
	messagesTotal      *prometheus.CounterVec
	activeSessions     prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chat_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		conversationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_conversations_total",
				Help: "Finished conversations by outcome.",
			},
			[]string{"status"},
		),
		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_messages_total",
				Help: "Transcript messages appended, by origin.",
			},
			[]string{"origin"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chat_sessions_active",
				Help: "Widget sessions currently held in memory.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrConversation counts a finished conversation: "saved", "rejected" or
// "failed".
func (m *Metrics) IncrConversation(status string) {
	m.conversationsTotal.WithLabelValues(status).Inc()
}

// IncrMessage counts one transcript message by origin ("bot" or "user").
func (m *Metrics) IncrMessage(origin string) {
	m.messagesTotal.WithLabelValues(origin).Inc()
}

// SessionOpened / SessionClosed track the active session gauge.
func (m *Metrics) SessionOpened() { m.activeSessions.Inc() }
func (m *Metrics) SessionClosed() { m.activeSessions.Dec() }

// GetChatSnapshot returns a snapshot of chat metrics suitable for the
// GET /v1/metrics/chat endpoint.
func (m *Metrics) GetChatSnapshot() *domain.ChatMetrics {
	// Prometheus counters expose cumulative values.
	saved := getCounterValue(m.conversationsTotal, "saved")
	rejected := getCounterValue(m.conversationsTotal, "rejected")
	failed := getCounterValue(m.conversationsTotal, "failed")
	total := saved + rejected + failed

	failureRate := float64(0)
	if total > 0 {
		failureRate = failed / total
	}

	return &domain.ChatMetrics{
		ConversationsSaved:    int64(saved),
		ConversationsRejected: int64(rejected),
		ConversationsFailed:   int64(failed),
		FailureRate:           failureRate,
		BotMessages:           int64(getCounterValue(m.messagesTotal, "bot")),
		UserMessages:          int64(getCounterValue(m.messagesTotal, "user")),
		ActiveSessions:        int64(getGaugeValue(m.activeSessions)),
		Period:                "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getGaugeValue(g prometheus.Gauge) float64 {
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		return 0
	}
	if m.Gauge != nil && m.Gauge.Value != nil {
		return *m.Gauge.Value
	}
	return 0
}
