package monitoring

import (
	"strconv"
	"time"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Sessions
	sessionsActive prometheus.Gauge
	sessionsOpened prometheus.Counter

	// Submissions
	submissionsAccepted prometheus.Counter
	submissionsRejected *prometheus.CounterVec
	submissionsResolved *prometheus.CounterVec

	// Upstream
	documentRefreshes *prometheus.CounterVec
	permissionQueries *prometheus.CounterVec
	gatewayDuration   *prometheus.HistogramVec

	// Notifications
	notificationsSent    *prometheus.CounterVec
	notificationsDropped prometheus.Counter
	streamsConnected     prometheus.Gauge

	// HTTP
	httpRequests *prometheus.HistogramVec
}

var _ ports.MetricsRecorder = (*PrometheusCollector)(nil)

// NewPrometheusCollector registers the console metrics with reg, or with the
// default registry when reg is nil.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusCollector{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agentdesk_sessions_active",
			Help: "Number of open console sessions",
		}),

		sessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentdesk_sessions_opened_total",
			Help: "Total number of console sessions opened",
		}),

		submissionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentdesk_submissions_accepted_total",
			Help: "Total number of queries sent to the agent",
		}),

		submissionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentdesk_submissions_rejected_total",
			Help: "Submissions dropped before reaching the agent",
		}, []string{"reason"}),

		submissionsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentdesk_submissions_resolved_total",
			Help: "Agent queries by final outcome",
		}, []string{"outcome"}),

		documentRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentdesk_document_refreshes_total",
			Help: "Document list refreshes by outcome",
		}, []string{"outcome"}),

		permissionQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentdesk_permission_queries_total",
			Help: "Per-role permission lookups by outcome",
		}, []string{"role", "outcome"}),

		gatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentdesk_gateway_request_duration_seconds",
			Help:    "Latency of agent API calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint", "outcome"}),

		notificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentdesk_notifications_sent_total",
			Help: "Notifications raised by level",
		}, []string{"level"}),

		notificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentdesk_notifications_dropped_total",
			Help: "Notifications discarded because a subscriber was too slow",
		}),

		streamsConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agentdesk_notification_streams_connected",
			Help: "Number of open notification websockets",
		}),

		httpRequests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentdesk_http_request_duration_seconds",
			Help:    "Console API request latency",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"method", "route", "status"}),
	}
}

func (p *PrometheusCollector) SessionOpened() {
	p.sessionsActive.Inc()
	p.sessionsOpened.Inc()
}

func (p *PrometheusCollector) SessionClosed() {
	p.sessionsActive.Dec()
}

func (p *PrometheusCollector) SubmissionAccepted() {
	p.submissionsAccepted.Inc()
}

func (p *PrometheusCollector) SubmissionRejected(reason string) {
	p.submissionsRejected.WithLabelValues(reason).Inc()
}

func (p *PrometheusCollector) SubmissionResolved(outcome string) {
	p.submissionsResolved.WithLabelValues(outcome).Inc()
}

func (p *PrometheusCollector) DocumentsRefreshed(outcome string) {
	p.documentRefreshes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusCollector) PermissionQuery(role domain.Role, outcome string) {
	p.permissionQueries.WithLabelValues(string(role), outcome).Inc()
}

func (p *PrometheusCollector) NotificationSent(level domain.NotificationLevel) {
	p.notificationsSent.WithLabelValues(string(level)).Inc()
}

func (p *PrometheusCollector) GatewayCall(endpoint, outcome string, duration time.Duration) {
	p.gatewayDuration.WithLabelValues(endpoint, outcome).Observe(duration.Seconds())
}

func (p *PrometheusCollector) NotificationDropped() {
	p.notificationsDropped.Inc()
}

func (p *PrometheusCollector) StreamConnected() {
	p.streamsConnected.Inc()
}

func (p *PrometheusCollector) StreamDisconnected() {
	p.streamsConnected.Dec()
}

func (p *PrometheusCollector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
