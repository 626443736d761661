package model

import "time"

type NotificationType string

const (
	NotificationOrderCreated   NotificationType = "ORDER_CREATED"
	NotificationOrderStatus    NotificationType = "ORDER_STATUS_UPDATE"
	NotificationPaymentSuccess NotificationType = "PAYMENT_SUCCESS"
	NotificationGeneral        NotificationType = "GENERAL"
)

// Notification is the wire format on notifications.events and on the push
// channels. UserID nil means broadcast only.
type Notification struct {
	ID        string            `json:"id"`
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	UserID    *int64            `json:"userId,omitempty"`
	OrderID   *int64            `json:"orderId,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Read      bool              `json:"read"`
}
