package notification

import (
	"fmt"
	"strconv"
	"time"

	"bookstore/internal/domain/model"

	"github.com/google/uuid"
)

const (
	trackingURL = "/order-history"
	actionText  = "Track Your Order"
)

type statusText struct {
	title   string
	message string
}

var statusCatalogue = map[model.OrderStatus]statusText{
	model.OrderStatusNewOrder: {
		"Order Received!",
		"Your order has been received and is being prepared. You can track its progress in your order history.",
	},
	model.OrderStatusProcessing: {
		"Order Processing!",
		"Your order is being processed and prepared for shipment. We'll notify you when it's ready to ship.",
	},
	model.OrderStatusPacked: {
		"Order Packed!",
		"Great news! Your order has been packed and is ready for dispatch. It will be shipped soon.",
	},
	model.OrderStatusDispatched: {
		"Order Dispatched!",
		"Your order has been dispatched and is on its way to you. You can track its delivery progress.",
	},
	model.OrderStatusInTransit: {
		"Order In Transit!",
		"Your order is currently in transit and making its way to your delivery address.",
	},
	model.OrderStatusOutForDelivery: {
		"Out for Delivery!",
		"Your order is out for delivery and should arrive at your address soon. Please be available to receive it.",
	},
	model.OrderStatusDelivered: {
		"Order Delivered!",
		"Your order has been successfully delivered! Thank you for shopping with us. Enjoy your books!",
	},
	model.OrderStatusCanceled: {
		"Order Cancelled",
		"Your order has been cancelled. If you have any questions, please contact our customer support.",
	},
}

func statusCopy(s model.OrderStatus) statusText {
	if t, ok := statusCatalogue[s]; ok {
		return t
	}
	return statusText{
		title:   "Order Status Updated",
		message: fmt.Sprintf("Your order status has been updated to: %s. You can track its progress in your order history.", s),
	}
}

// Record keys on notifications.events. Records of one order share a partition.
func createdKey(orderID int64) string { return "created_" + strconv.FormatInt(orderID, 10) }
func statusKey(orderID int64) string  { return "status_" + strconv.FormatInt(orderID, 10) }
func paymentKey(orderID int64) string { return "payment_" + strconv.FormatInt(orderID, 10) }

func generalKey(userID *int64) string {
	if userID == nil {
		return "general"
	}
	return "general_" + strconv.FormatInt(*userID, 10)
}

func newNotification(t model.NotificationType, title, message string, now time.Time) model.Notification {
	return model.Notification{
		ID:        uuid.NewString(),
		Type:      t,
		Title:     title,
		Message:   message,
		Timestamp: now.UTC(),
	}
}

func forOrder(n model.Notification, o model.Order) model.Notification {
	userID, orderID := o.UserID, o.ID
	n.UserID = &userID
	n.OrderID = &orderID
	n.Metadata = map[string]string{
		"orderNumber": o.OrderNumber,
		"status":      string(o.Status),
		"trackingUrl": trackingURL,
		"actionText":  actionText,
	}
	return n
}

func OrderCreatedNotification(o model.Order, now time.Time) model.Notification {
	n := newNotification(model.NotificationOrderCreated,
		"Order Confirmed!",
		fmt.Sprintf("Your order %s has been placed successfully and is being processed.", o.OrderNumber),
		now)
	return forOrder(n, o)
}

func StatusNotification(o model.Order, now time.Time) model.Notification {
	c := statusCopy(o.Status)
	return forOrder(newNotification(model.NotificationOrderStatus, c.title, c.message, now), o)
}

func PaymentNotification(o model.Order, now time.Time) model.Notification {
	n := newNotification(model.NotificationPaymentSuccess,
		"Payment Successful!",
		fmt.Sprintf("Your payment of £%s for order %s has been processed successfully!", o.TotalAmount.StringFixed(2), o.OrderNumber),
		now)
	return forOrder(n, o)
}

func GeneralNotification(title, message string, userID *int64, now time.Time) model.Notification {
	n := newNotification(model.NotificationGeneral, title, message, now)
	n.UserID = userID
	return n
}
