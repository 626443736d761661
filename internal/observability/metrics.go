package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	OrdersPlacedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders created, by payment method",
		},
		[]string{"payment_method"},
	)

	OrderStatusUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_updates_total",
			Help: "Order status changes, by new status",
		},
		[]string{"status"},
	)

	OrderTotalMismatchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_total_mismatch_total",
			Help: "Orders whose submitted total differs from line items minus discount",
		},
	)

	OrphanedPaymentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orphaned_payments_total",
			Help: "Captured card payments whose order could not be created",
		},
	)

	PromoValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_validations_total",
			Help: "Promo code validations, by result",
		},
		[]string{"result"},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Broker publications, by topic and result",
		},
		[]string{"topic", "result"},
	)

	OutboxEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_events_total",
			Help: "Outbox transitions, by action",
		},
		[]string{"action"},
	)

	NotificationsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_processed_total",
			Help: "Notifications consumed, by type and result",
		},
		[]string{"type", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		OrdersPlacedTotal,
		OrderStatusUpdatesTotal,
		OrderTotalMismatchTotal,
		OrphanedPaymentsTotal,
		PromoValidationsTotal,
		EventsPublishedTotal,
		OutboxEventsTotal,
		NotificationsProcessedTotal,
	)
}
