package http

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
	"github.com/travatlanta/Sticky-sub003/internal/service"
)

// maxListLimit caps page sizes on list endpoints.
const maxListLimit = 500

type Orders interface {
	ListMine(ctx context.Context, actor domain.Actor) ([]*domain.Order, error)
	Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Order, error)
	AdminList(ctx context.Context, actor domain.Actor, f repository.OrderFilter) ([]*domain.Order, error)
	AdminGet(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status string, expectedVersion *int) (*service.StatusChange, error)
}

type Artwork interface {
	Upload(ctx context.Context, actor domain.Actor, orderID, designID uuid.UUID, itemID *int64) (*domain.Order, error)
	Approve(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error)
	RequestRevision(ctx context.Context, actor domain.Actor, orderID uuid.UUID, note string) (*domain.Order, error)
	AdminUpdate(ctx context.Context, actor domain.Actor, orderID uuid.UUID, u service.ArtworkUpdate, expectedVersion *int) (*domain.Order, error)
	Restore(ctx context.Context, actor domain.Actor, orderID uuid.UUID, expectedVersion *int) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  Orders
	artwork Artwork
}

func NewOrdersHandler(orders Orders, artwork Artwork) *OrdersHandler {
	return &OrdersHandler{orders: orders, artwork: artwork}
}

type UploadArtworkDTO struct {
	DesignID    string `json:"designId" validate:"required,uuid"`
	OrderItemID *int64 `json:"orderItemId" validate:"omitempty,gt=0"`
}

type RevisionRequestDTO struct {
	Notes string `json:"notes" validate:"required,max=2000"`
}

type UpdateStatusDTO struct {
	Status string `json:"status" validate:"required"`
}

type UpdateArtworkDTO struct {
	ArtworkStatus *string `json:"artworkStatus"`
	ArtworkNotes  *string `json:"artworkNotes" validate:"omitempty,max=2000"`
	AdminDesignID *string `json:"adminDesignId" validate:"omitempty,uuid"`
}

// respondOrder exposes the order version as an ETag so admins can send it
// back in If-Match.
func respondOrder(w http.ResponseWriter, status int, order *domain.Order) {
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(order.Version)))
	respondJSON(w, status, order)
}

// GET /orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListMine(r.Context(), actorFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GET /orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	order, err := h.orders.Get(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondOrder(w, http.StatusOK, order)
}

// POST /orders/{id}/artwork/upload
func (h *OrdersHandler) UploadArtwork(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req UploadArtworkDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	designID, _ := uuid.Parse(req.DesignID)
	order, err := h.artwork.Upload(r.Context(), actorFrom(r.Context()), id, designID, req.OrderItemID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondOrder(w, http.StatusOK, order)
}

// POST /orders/{id}/artwork/approve
func (h *OrdersHandler) ApproveArtwork(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	order, err := h.artwork.Approve(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondOrder(w, http.StatusOK, order)
}

// POST /orders/{id}/artwork/revision
func (h *OrdersHandler) RequestRevision(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req RevisionRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	order, err := h.artwork.RequestRevision(r.Context(), actorFrom(r.Context()), id, req.Notes)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondOrder(w, http.StatusOK, order)
}

// GET /admin/orders?status=&artworkStatus=&limit=&offset=
func (h *OrdersHandler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	var f repository.OrderFilter
	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		s, err := domain.ParseOrderStatus(raw)
		if err != nil {
			handleError(w, r, err)
			return
		}
		f.Status = &s
	}
	if raw := q.Get("artworkStatus"); raw != "" {
		s, err := domain.ParseArtworkStatus(raw)
		if err != nil {
			handleError(w, r, err)
			return
		}
		f.ArtworkStatus = &s
	}
	var err error
	if f.Limit, err = queryIntRange(r, "limit", 50, 1, maxListLimit); err != nil {
		handleError(w, r, err)
		return
	}
	if f.Offset, err = queryIntRange(r, "offset", 0, 0, math.MaxInt32); err != nil {
		handleError(w, r, err)
		return
	}

	orders, err := h.orders.AdminList(r.Context(), actorFrom(r.Context()), f)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GET /admin/orders/{id}
func (h *OrdersHandler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	order, err := h.orders.AdminGet(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondOrder(w, http.StatusOK, order)
}

// PATCH /admin/orders/{id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	version, err := ifMatchVersion(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req UpdateStatusDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	change, err := h.orders.UpdateStatus(r.Context(), actorFrom(r.Context()), id, req.Status, version)
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(change.Order.Version)))
	respondJSON(w, http.StatusOK, change)
}

// PATCH /admin/orders/{id}/artwork
func (h *OrdersHandler) UpdateArtwork(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	version, err := ifMatchVersion(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req UpdateArtworkDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	update := service.ArtworkUpdate{Status: req.ArtworkStatus, Notes: req.ArtworkNotes}
	if req.AdminDesignID != nil {
		designID, _ := uuid.Parse(*req.AdminDesignID)
		update.AdminDesignID = &designID
	}
	order, err := h.artwork.AdminUpdate(r.Context(), actorFrom(r.Context()), id, update, version)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondOrder(w, http.StatusOK, order)
}

// POST /admin/orders/{id}/artwork/restore
func (h *OrdersHandler) RestoreArtwork(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	version, err := ifMatchVersion(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	order, err := h.artwork.Restore(r.Context(), actorFrom(r.Context()), id, version)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondOrder(w, http.StatusOK, order)
}
