// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PushEventsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_events_received_total",
			Help: "Total number of inbound push events handled",
		},
	)

	NotificationsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_notifications_rendered_total",
			Help: "Total number of notifications rendered, by platform family",
		},
		[]string{"family"},
	)

	NotificationsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_notifications_suppressed_total",
			Help: "Total number of notifications suppressed, by reason",
		},
		[]string{"reason"},
	)

	NotificationClicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_notification_clicks_total",
			Help: "Total number of notification clicks, by action",
		},
		[]string{"action"},
	)

	SubscriptionsEstablished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_subscriptions_established_total",
			Help: "Total number of subscription establishments, by outcome",
		},
		[]string{"outcome"},
	)

	SubscribeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "push_subscribe_duration_seconds",
			Help: "Duration of platform subscribe calls in seconds",
		},
	)
)
