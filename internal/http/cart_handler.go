package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/service"
)

type Cart interface {
	GetCart(ctx context.Context, owner string) (*domain.Cart, error)
	AddItem(ctx context.Context, actor domain.Actor, owner string, req service.AddItemRequest) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, owner, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, owner, itemID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, owner string) error
	CartAdopter
}

type CartHandler struct {
	cart Cart
}

func NewCartHandler(cart Cart) *CartHandler {
	return &CartHandler{cart: cart}
}

type AddItemRequestDTO struct {
	ProductID int64   `json:"productId" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"required,gte=1,lte=100000"`
	OptionIDs []int64 `json:"optionIds" validate:"dive,gt=0"`
	DesignID  *string `json:"designId" validate:"omitempty,uuid"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=100000"`
}

// GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.GetCart(r.Context(), cartOwnerFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// POST /cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	cart, err := h.cart.AddItem(r.Context(), actorFrom(r.Context()), cartOwnerFrom(r.Context()), service.AddItemRequest{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		OptionIDs: req.OptionIDs,
		DesignID:  req.DesignID,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, cart)
}

// PATCH /cart/items/{itemId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_argument", "itemId is required")
		return
	}
	var req UpdateQuantityRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	cart, err := h.cart.UpdateQuantity(r.Context(), cartOwnerFrom(r.Context()), itemID, req.Quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// DELETE /cart/items/{itemId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_argument", "itemId is required")
		return
	}
	cart, err := h.cart.RemoveItem(r.Context(), cartOwnerFrom(r.Context()), itemID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// DELETE /cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.ClearCart(r.Context(), cartOwnerFrom(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
