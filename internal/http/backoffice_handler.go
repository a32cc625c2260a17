package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/service"
	"github.com/travatlanta/Sticky-sub003/internal/shipping"
)

type Promotions interface {
	ListPromotions(ctx context.Context, actor domain.Actor) ([]*domain.Promotion, error)
	CreatePromotion(ctx context.Context, actor domain.Actor, p *domain.Promotion) (*domain.Promotion, error)
	UpdatePromotion(ctx context.Context, actor domain.Actor, p *domain.Promotion) (*domain.Promotion, error)
	DeletePromotion(ctx context.Context, actor domain.Actor, id int64) error
	ActiveDeals(ctx context.Context) ([]*domain.Deal, error)
	ListDeals(ctx context.Context, actor domain.Actor) ([]*domain.Deal, error)
	CreateDeal(ctx context.Context, actor domain.Actor, d *domain.Deal) (*domain.Deal, error)
	UpdateDeal(ctx context.Context, actor domain.Actor, d *domain.Deal) (*domain.Deal, error)
	DeleteDeal(ctx context.Context, actor domain.Actor, id int64) error
}

type BackOffice interface {
	GetTemplate(ctx context.Context, actor domain.Actor, key string) (*domain.EmailTemplate, error)
	PutTemplate(ctx context.Context, actor domain.Actor, t *domain.EmailTemplate) (*domain.EmailTemplate, error)
	ShippingSettings(ctx context.Context, actor domain.Actor) (shipping.Settings, error)
	SaveShippingSettings(ctx context.Context, actor domain.Actor, settings shipping.Settings) (shipping.Settings, error)
	ActivityLog(ctx context.Context, actor domain.Actor, limit int) ([]*domain.ActivityLog, error)
	Notifications(ctx context.Context, actor domain.Actor, limit int) ([]*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, actor domain.Actor, id int64) error
}

type Designs interface {
	Create(ctx context.Context, actor domain.Actor, req service.CreateDesignRequest) (*domain.Design, error)
	Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Design, error)
}

type BackOfficeHandler struct {
	promotions Promotions
	backOffice BackOffice
	designs    Designs
}

func NewBackOfficeHandler(promotions Promotions, backOffice BackOffice, designs Designs) *BackOfficeHandler {
	return &BackOfficeHandler{promotions: promotions, backOffice: backOffice, designs: designs}
}

type PromotionDTO struct {
	Code           string           `json:"code" validate:"required,max=64"`
	Description    string           `json:"description"`
	DiscountType   string           `json:"discountType" validate:"required,oneof=percentage flat"`
	Value          decimal.Decimal  `json:"value"`
	MinOrderAmount *decimal.Decimal `json:"minOrderAmount"`
	MaxUses        *int             `json:"maxUses" validate:"omitempty,gte=1"`
	MaxUsesPerUser *int             `json:"maxUsesPerUser" validate:"omitempty,gte=1"`
	StartsAt       *time.Time       `json:"startsAt"`
	EndsAt         *time.Time       `json:"endsAt"`
	IsActive       bool             `json:"isActive"`
}

func (d PromotionDTO) toDomain(id int64) *domain.Promotion {
	return &domain.Promotion{
		ID:             id,
		Code:           d.Code,
		Description:    d.Description,
		DiscountType:   domain.DiscountType(d.DiscountType),
		Value:          d.Value,
		MinOrderAmount: d.MinOrderAmount,
		MaxUses:        d.MaxUses,
		MaxUsesPerUser: d.MaxUsesPerUser,
		StartsAt:       d.StartsAt,
		EndsAt:         d.EndsAt,
		IsActive:       d.IsActive,
	}
}

type DealDTO struct {
	Title         string           `json:"title" validate:"required,max=200"`
	Description   string           `json:"description"`
	ProductID     *int64           `json:"productId" validate:"omitempty,gt=0"`
	ImageURL      string           `json:"imageUrl" validate:"omitempty,url"`
	Quantity      int              `json:"quantity" validate:"gte=1"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	IsActive      bool             `json:"isActive"`
	ShowOnHome    bool             `json:"showOnHome"`
	DisplayOrder  int              `json:"displayOrder"`
	StartsAt      *time.Time       `json:"startsAt"`
	EndsAt        *time.Time       `json:"endsAt"`
}

func (d DealDTO) toDomain(id int64) *domain.Deal {
	return &domain.Deal{
		ID:            id,
		Title:         d.Title,
		Description:   d.Description,
		ProductID:     d.ProductID,
		ImageURL:      d.ImageURL,
		Quantity:      d.Quantity,
		Price:         d.Price,
		OriginalPrice: d.OriginalPrice,
		IsActive:      d.IsActive,
		ShowOnHome:    d.ShowOnHome,
		DisplayOrder:  d.DisplayOrder,
		StartsAt:      d.StartsAt,
		EndsAt:        d.EndsAt,
	}
}

type EmailTemplateDTO struct {
	Subject string `json:"subject" validate:"required,max=300"`
	Body    string `json:"body" validate:"required"`
}

type ShippingSettingsDTO struct {
	ShippingCost      decimal.Decimal `json:"shippingCost"`
	FreeShipping      bool            `json:"freeShipping"`
	AutomaticShipping bool            `json:"automaticShipping"`
}

type CreateDesignDTO struct {
	Name       string          `json:"name" validate:"max=200"`
	Canvas     json.RawMessage `json:"canvas" validate:"required"`
	PreviewURL string          `json:"previewUrl" validate:"omitempty,url"`
}

// GET /admin/promotions
func (h *BackOfficeHandler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.promotions.ListPromotions(r.Context(), actorFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, promotions)
}

// POST /admin/promotions
func (h *BackOfficeHandler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req PromotionDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	p, err := h.promotions.CreatePromotion(r.Context(), actorFrom(r.Context()), req.toDomain(0))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// PUT /admin/promotions/{id}
func (h *BackOfficeHandler) UpdatePromotion(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req PromotionDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	p, err := h.promotions.UpdatePromotion(r.Context(), actorFrom(r.Context()), req.toDomain(id))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DELETE /admin/promotions/{id}
func (h *BackOfficeHandler) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.promotions.DeletePromotion(r.Context(), actorFrom(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /deals
func (h *BackOfficeHandler) ActiveDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := h.promotions.ActiveDeals(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deals)
}

// GET /admin/deals
func (h *BackOfficeHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := h.promotions.ListDeals(r.Context(), actorFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deals)
}

// POST /admin/deals
func (h *BackOfficeHandler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var req DealDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	d, err := h.promotions.CreateDeal(r.Context(), actorFrom(r.Context()), req.toDomain(0))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// PUT /admin/deals/{id}
func (h *BackOfficeHandler) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req DealDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	d, err := h.promotions.UpdateDeal(r.Context(), actorFrom(r.Context()), req.toDomain(id))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// DELETE /admin/deals/{id}
func (h *BackOfficeHandler) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.promotions.DeleteDeal(r.Context(), actorFrom(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /admin/email-templates/{key}
func (h *BackOfficeHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.backOffice.GetTemplate(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "key"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// PUT /admin/email-templates/{key}
func (h *BackOfficeHandler) PutTemplate(w http.ResponseWriter, r *http.Request) {
	var req EmailTemplateDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	t, err := h.backOffice.PutTemplate(r.Context(), actorFrom(r.Context()), &domain.EmailTemplate{
		Key:     chi.URLParam(r, "key"),
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// GET /admin/settings/shipping
func (h *BackOfficeHandler) ShippingSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.backOffice.ShippingSettings(r.Context(), actorFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// PUT /admin/settings/shipping
func (h *BackOfficeHandler) SaveShippingSettings(w http.ResponseWriter, r *http.Request) {
	var req ShippingSettingsDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	saved, err := h.backOffice.SaveShippingSettings(r.Context(), actorFrom(r.Context()), shipping.Settings{
		ShippingCost:      req.ShippingCost,
		FreeShipping:      req.FreeShipping,
		AutomaticShipping: req.AutomaticShipping,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// GET /admin/activity-logs?limit=
func (h *BackOfficeHandler) ActivityLog(w http.ResponseWriter, r *http.Request) {
	limit, err := queryIntRange(r, "limit", 0, 0, maxListLimit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logs, err := h.backOffice.ActivityLog(r.Context(), actorFrom(r.Context()), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

// GET /notifications?limit=
func (h *BackOfficeHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryIntRange(r, "limit", 0, 0, maxListLimit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	notifications, err := h.backOffice.Notifications(r.Context(), actorFrom(r.Context()), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, notifications)
}

// POST /notifications/{id}/read
func (h *BackOfficeHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.backOffice.MarkNotificationRead(r.Context(), actorFrom(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /designs
func (h *BackOfficeHandler) CreateDesign(w http.ResponseWriter, r *http.Request) {
	var req CreateDesignDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	d, err := h.designs.Create(r.Context(), actorFrom(r.Context()), service.CreateDesignRequest{
		Name:       req.Name,
		Canvas:     req.Canvas,
		PreviewURL: req.PreviewURL,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// GET /designs/{id}
func (h *BackOfficeHandler) GetDesign(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	d, err := h.designs.Get(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}
