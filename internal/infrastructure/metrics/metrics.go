package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taara_requests_submitted_total",
			Help: "Requests accepted by the lifecycle engine",
		},
		[]string{"kind"},
	)

	RequestTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taara_request_transitions_total",
			Help: "Committed status transitions",
		},
		[]string{"kind", "status"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taara_notifications_total",
			Help: "Notification writes by outcome",
		},
		[]string{"type", "outcome"},
	)

	CapacityRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taara_capacity_rejections_total",
			Help: "Kapon registrations refused because the schedule was full",
		},
	)

	DependentWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taara_dependent_write_failures_total",
			Help: "Secondary writes that failed after the primary write committed",
		},
		[]string{"op"},
	)

	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taara_notification_streams_active",
			Help: "Open notification WebSocket streams",
		},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
