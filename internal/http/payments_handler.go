package http

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/service"
)

type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, n service.PaymentNotification) (*domain.Order, error)
}

// PaymentsHandler receives the payment gateway's webhook. The gateway
// authenticates with a shared secret rather than a session token.
type PaymentsHandler struct {
	orders PaymentConfirmer
	secret string
}

func NewPaymentsHandler(orders PaymentConfirmer, secret string) *PaymentsHandler {
	return &PaymentsHandler{orders: orders, secret: secret}
}

type PaymentWebhookDTO struct {
	Type      string `json:"type" validate:"required,oneof=payment.pending payment.succeeded"`
	OrderID   string `json:"orderId" validate:"required,uuid"`
	PaymentID string `json:"paymentId" validate:"max=255"`
}

// POST /payments/webhook
func (h *PaymentsHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get("X-Webhook-Secret")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(h.secret), []byte(got)) != 1 {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid webhook secret")
		return
	}
	var req PaymentWebhookDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	orderID, _ := uuid.Parse(req.OrderID)

	order, err := h.orders.ConfirmPayment(r.Context(), service.PaymentNotification{
		Type:      req.Type,
		OrderID:   orderID,
		PaymentID: req.PaymentID,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().
		Str("order_id", order.ID.String()).
		Str("payment_event", req.Type).
		Str("status", order.Status.String()).
		Msg("payment webhook processed")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"received": true,
		"orderId":  order.ID,
		"status":   order.Status,
	})
}
