package domain

import "fmt"

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusInProduction   OrderStatus = "in_production"
	OrderStatusPrinted        OrderStatus = "printed"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// fulfilment order; cancelled sits outside it
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:        0,
	OrderStatusPendingPayment: 1,
	OrderStatusPaid:           2,
	OrderStatusInProduction:   3,
	OrderStatusPrinted:        4,
	OrderStatusShipped:        5,
	OrderStatusDelivered:      6,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := orderStatusRank[st]; ok || st == OrderStatusCancelled {
		return st, nil
	}
	return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo allows forward moves (skipping is fine) and cancellation
// from any non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() || s == next {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	from, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[next]
	return ok && to > from
}

func (s OrderStatus) String() string {
	return string(s)
}
