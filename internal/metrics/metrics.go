// Package metrics provides Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billbot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	// TurnsTotal counts handled chat turns by state transition.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billbot_turns_total",
			Help: "Conversation turns handled",
		},
		[]string{"from", "to"},
	)

	EffectFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billbot_effect_failures_total",
			Help: "Failed completion side effects",
		},
		[]string{"kind"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billbot_notifications_total",
			Help: "Outbound chat replies by outcome",
		},
		[]string{"outcome"},
	)

	RecordsPersistedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billbot_billing_records_persisted_total",
			Help: "Billing records written after a confirmed authorization",
		},
	)

	ConversationsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billbot_conversations_swept_total",
			Help: "Conversations deleted by expiry or reset",
		},
	)

	ActiveConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "billbot_active_conversations",
			Help: "Stored conversations at the last stats run",
		},
	)
)

func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
}

func RecordTurn(from, to string) {
	TurnsTotal.WithLabelValues(from, to).Inc()
}

func RecordEffectFailure(kind string) {
	EffectFailuresTotal.WithLabelValues(kind).Inc()
}

func RecordNotification(sent bool) {
	outcome := "sent"
	if !sent {
		outcome = "failed"
	}

	NotificationsTotal.WithLabelValues(outcome).Inc()
}
