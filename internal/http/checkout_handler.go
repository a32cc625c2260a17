package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/service"
	"github.com/travatlanta/Sticky-sub003/internal/shipping"
)

type Checkout interface {
	ShippingQuote(ctx context.Context, owner string, address shipping.Address) (shipping.Quote, error)
	PreviewPromotion(ctx context.Context, actor domain.Actor, owner, code string) (*service.PromotionPreview, error)
	Checkout(ctx context.Context, actor domain.Actor, req service.CheckoutRequest) (*domain.Order, bool, error)
}

type CheckoutHandler struct {
	checkout Checkout
}

func NewCheckoutHandler(checkout Checkout) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type ShippingDestinationDTO struct {
	State string `json:"state" validate:"required,len=2,alpha"`
	Zip   string `json:"zip" validate:"omitempty,max=10"`
}

type ShippingQuoteRequestDTO struct {
	ShippingAddress ShippingDestinationDTO `json:"shippingAddress"`
}

type PromotionRequestDTO struct {
	Code string `json:"code" validate:"required,max=64"`
}

type AddressDTO struct {
	Name    string `json:"name" validate:"required,max=200"`
	Line1   string `json:"line1" validate:"required,max=200"`
	Line2   string `json:"line2" validate:"max=200"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,len=2,alpha"`
	Zip     string `json:"zip" validate:"required,max=10"`
	Country string `json:"country" validate:"omitempty,len=2"`
}

type CheckoutRequestDTO struct {
	ShippingAddress AddressDTO `json:"shippingAddress"`
	PromotionCode   string     `json:"promotionCode" validate:"max=64"`
}

// POST /checkout/shipping-quote
func (h *CheckoutHandler) ShippingQuote(w http.ResponseWriter, r *http.Request) {
	var req ShippingQuoteRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	quote, err := h.checkout.ShippingQuote(r.Context(), cartOwnerFrom(r.Context()), shipping.Address{
		State: strings.ToUpper(req.ShippingAddress.State),
		Zip:   req.ShippingAddress.Zip,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// POST /checkout/promotion
func (h *CheckoutHandler) PreviewPromotion(w http.ResponseWriter, r *http.Request) {
	var req PromotionRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	preview, err := h.checkout.PreviewPromotion(r.Context(), actorFrom(r.Context()), cartOwnerFrom(r.Context()), req.Code)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// POST /checkout
//
// A repeated Idempotency-Key returns the order created by the first request
// with 200 and Idempotent-Replayed: true instead of creating another.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" || len(key) > 255 {
		respondError(w, http.StatusBadRequest, "missing_idempotency_key", "Idempotency-Key header is required")
		return
	}
	var req CheckoutRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	a := req.ShippingAddress
	order, replayed, err := h.checkout.Checkout(r.Context(), actorFrom(r.Context()), service.CheckoutRequest{
		Owner: cartOwnerFrom(r.Context()),
		ShippingAddress: domain.Address{
			Name:    a.Name,
			Line1:   a.Line1,
			Line2:   a.Line2,
			City:    a.City,
			State:   strings.ToUpper(a.State),
			Zip:     a.Zip,
			Country: strings.ToUpper(a.Country),
		},
		PromotionCode:  strings.TrimSpace(req.PromotionCode),
		IdempotencyKey: key,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	if replayed {
		w.Header().Set("Idempotent-Replayed", "true")
		respondJSON(w, http.StatusOK, order)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}
