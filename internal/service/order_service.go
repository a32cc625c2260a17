package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/logger"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
)

// errNoChange aborts an UpdateOrder transaction that would not change anything.
var errNoChange = errors.New("order already up to date")

const (
	PaymentPending   = "payment.pending"
	PaymentSucceeded = "payment.succeeded"
)

type PaymentNotification struct {
	Type      string
	OrderID   uuid.UUID
	PaymentID string
}

type StatusChange struct {
	Order     *domain.Order      `json:"order"`
	OldStatus domain.OrderStatus `json:"oldStatus"`
	NewStatus domain.OrderStatus `json:"newStatus"`
}

type OrderService struct {
	orders   OrderStore
	activity *ActivityRecorder
	now      func() time.Time
}

func NewOrderService(orders OrderStore, activity *ActivityRecorder) *OrderService {
	return &OrderService{orders: orders, activity: activity, now: time.Now}
}

func (s *OrderService) ListMine(ctx context.Context, actor domain.Actor) ([]*domain.Order, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.orders.ListOrdersByUserID(ctx, actor.UserID)
}

// Get returns the order when the actor owns it. Other users' orders are
// reported as missing rather than forbidden.
func (s *OrderService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Order, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(order.UserID) {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) AdminList(ctx context.Context, actor domain.Actor, f repository.OrderFilter) ([]*domain.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.orders.ListOrders(ctx, f)
}

func (s *OrderService) AdminGet(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.orders.GetOrderByID(ctx, id)
}

// UpdateStatus moves the fulfilment track. The status string is parsed
// before the order is touched, so an unknown value never reaches storage.
func (s *OrderService) UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status string, expectedVersion *int) (*StatusChange, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	var old domain.OrderStatus
	order, err := s.orders.UpdateOrder(ctx, id, expectedVersion, func(o *domain.Order) (repository.OrderChange, error) {
		old = o.Status
		if !o.Status.CanTransitionTo(next) {
			return repository.OrderChange{}, fmt.Errorf("%w: cannot move order from %s to %s", domain.ErrConflict, o.Status, next)
		}
		o.Status = next
		event := domain.NewOrderEvent(domain.EventOrderStatusChanged, o, s.now()).WithStatus(old.String(), next.String())
		return repository.OrderChange{Events: []domain.Event{event}}, nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("order_id", id.String()).
		Str("old_status", old.String()).
		Str("new_status", next.String()).
		Msg("order status updated")
	s.activity.Record(ctx, actor, "update_status", "order", id.String(), map[string]string{
		"oldStatus": old.String(),
		"newStatus": next.String(),
	})
	return &StatusChange{Order: order, OldStatus: old, NewStatus: next}, nil
}

// ConfirmPayment applies a payment gateway notification. Replays and
// out-of-order deliveries leave the order untouched.
func (s *OrderService) ConfirmPayment(ctx context.Context, n PaymentNotification) (*domain.Order, error) {
	var target domain.OrderStatus
	switch n.Type {
	case PaymentPending:
		target = domain.OrderStatusPendingPayment
	case PaymentSucceeded:
		target = domain.OrderStatusPaid
	default:
		return nil, fmt.Errorf("%w: unsupported payment event %q", domain.ErrValidation, n.Type)
	}

	order, err := s.orders.UpdateOrder(ctx, n.OrderID, nil, func(o *domain.Order) (repository.OrderChange, error) {
		if !o.Status.CanTransitionTo(target) {
			return repository.OrderChange{}, errNoChange
		}
		o.Status = target
		if n.PaymentID != "" {
			paymentID := n.PaymentID
			o.PaymentID = &paymentID
		}
		if target != domain.OrderStatusPaid {
			return repository.OrderChange{}, nil
		}
		return repository.OrderChange{
			Events: []domain.Event{domain.NewOrderEvent(domain.EventPaymentReceived, o, s.now())},
		}, nil
	})
	if errors.Is(err, errNoChange) {
		logger.FromContext(ctx).Info().
			Str("order_id", n.OrderID.String()).
			Str("event", n.Type).
			Msg("payment notification ignored, order already past target status")
		return s.orders.GetOrderByID(ctx, n.OrderID)
	}
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().
		Str("order_id", order.ID.String()).
		Str("status", order.Status.String()).
		Msg("payment applied")
	return order, nil
}
