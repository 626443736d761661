package model

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	OrderStatusNewOrder       OrderStatus = "NEW_ORDER"
	OrderStatusProcessing     OrderStatus = "PROCESSING"
	OrderStatusPacked         OrderStatus = "PACKED"
	OrderStatusDispatched     OrderStatus = "DISPATCHED"
	OrderStatusInTransit      OrderStatus = "IN_TRANSIT"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCanceled       OrderStatus = "CANCELED"
)

// Lifecycle order. CANCELED sits outside the forward chain.
var OrderStatuses = []OrderStatus{
	OrderStatusNewOrder,
	OrderStatusProcessing,
	OrderStatusPacked,
	OrderStatusDispatched,
	OrderStatusInTransit,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCanceled,
}

type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	names := make([]string, 0, len(OrderStatuses))
	for _, s := range OrderStatuses {
		names = append(names, string(s))
	}
	return fmt.Sprintf("Invalid order status: %s. Valid statuses are: [%s]", e.Value, strings.Join(names, ", "))
}

// ParseOrderStatus trims and uppercases before matching.
func ParseOrderStatus(v string) (OrderStatus, error) {
	s := OrderStatus(strings.ToUpper(strings.TrimSpace(v)))
	for _, known := range OrderStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", &InvalidStatusError{Value: v}
}

// Customers may not cancel once delivered or already canceled.
func (s OrderStatus) CustomerCancelable() bool {
	return s != OrderStatusDelivered && s != OrderStatusCanceled
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

func (s OrderStatus) rank() int {
	for i, known := range OrderStatuses {
		if known == s {
			return i
		}
	}
	return -1
}

// CanAdvanceTo is the forward-only table: any later lifecycle step, or
// CANCELED from a non-terminal status. Only enforced when strict
// transitions are switched on.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCanceled {
		return true
	}
	return next.rank() > s.rank()
}
