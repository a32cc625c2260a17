package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/pricing"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
	"github.com/travatlanta/Sticky-sub003/internal/service"
)

type Catalog interface {
	ListProducts(ctx context.Context, f repository.ProductFilter) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64, includeInactive bool) (*domain.Product, error)
	Quote(ctx context.Context, productID int64, quantity int, optionIDs []int64) (*service.PriceQuote, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, actor domain.Actor, name, slug string) (*domain.Category, error)
	CreateProduct(ctx context.Context, actor domain.Actor, p *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, actor domain.Actor, p *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, actor domain.Actor, id int64) error
	ReplaceOptions(ctx context.Context, actor domain.Actor, productID int64, options []domain.ProductOption) ([]domain.ProductOption, error)
	GlobalTiers(ctx context.Context) ([]domain.PricingTier, error)
	ReplaceProductTiers(ctx context.Context, actor domain.Actor, productID int64, tiers []domain.PricingTier) ([]domain.PricingTier, error)
	ReplaceGlobalTiers(ctx context.Context, actor domain.Actor, tiers []domain.PricingTier) ([]domain.PricingTier, error)
	BulkAdjust(ctx context.Context, actor domain.Actor, req service.BulkAdjustRequest) ([]domain.PriceChange, error)
}

type CatalogHandler struct {
	catalog Catalog
}

func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type ProductRequestDTO struct {
	Name              string           `json:"name" validate:"required,max=200"`
	Description       string           `json:"description"`
	ImageURL          string           `json:"imageUrl" validate:"omitempty,url"`
	BasePrice         decimal.Decimal  `json:"basePrice"`
	IsActive          bool             `json:"isActive"`
	IsFeatured        bool             `json:"isFeatured"`
	ShippingType      string           `json:"shippingType" validate:"omitempty,oneof=free flat calculated"`
	FlatShippingPrice *decimal.Decimal `json:"flatShippingPrice"`
	CategoryID        *int64           `json:"categoryId" validate:"omitempty,gt=0"`
}

func (d ProductRequestDTO) toDomain(id int64) *domain.Product {
	shippingType, _ := domain.ParseShippingType(d.ShippingType)
	return &domain.Product{
		ID:                id,
		Name:              d.Name,
		Description:       d.Description,
		ImageURL:          d.ImageURL,
		BasePrice:         d.BasePrice,
		IsActive:          d.IsActive,
		IsFeatured:        d.IsFeatured,
		ShippingType:      shippingType,
		FlatShippingPrice: d.FlatShippingPrice,
		CategoryID:        d.CategoryID,
	}
}

type OptionDTO struct {
	Type          string          `json:"optionType" validate:"required,oneof=material coating cut"`
	Name          string          `json:"name" validate:"required"`
	PriceModifier decimal.Decimal `json:"priceModifier"`
	IsDefault     bool            `json:"isDefault"`
}

type ReplaceOptionsDTO struct {
	Options []OptionDTO `json:"options" validate:"dive"`
}

type TierDTO struct {
	MinQuantity  int             `json:"minQuantity"`
	MaxQuantity  *int            `json:"maxQuantity"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
}

// ReplaceTiersDTO is not validated per tier: unusable rows are dropped by the
// catalog instead of failing the request.
type ReplaceTiersDTO struct {
	Tiers []TierDTO `json:"tiers"`
}

func (d ReplaceTiersDTO) toDomain() []domain.PricingTier {
	tiers := make([]domain.PricingTier, 0, len(d.Tiers))
	for _, t := range d.Tiers {
		tiers = append(tiers, domain.PricingTier{MinQuantity: t.MinQuantity, MaxQuantity: t.MaxQuantity, PricePerUnit: t.PricePerUnit})
	}
	return tiers
}

type CategoryRequestDTO struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"omitempty,max=100"`
}

type BulkAdjustDTO struct {
	AdjustmentType string          `json:"adjustmentType" validate:"required,oneof=percentage flat"`
	Value          decimal.Decimal `json:"adjustmentValue"`
	CategoryID     *int64          `json:"categoryId" validate:"omitempty,gt=0"`
	Preview        bool            `json:"preview"`
}

// GET /products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	f := repository.ProductFilter{}
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_argument", "categoryId must be an integer")
			return
		}
		f.CategoryID = &id
	}
	f.FeaturedOnly = r.URL.Query().Get("featured") == "true"

	products, err := h.catalog.ListProducts(r.Context(), f)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// GET /products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	p, err := h.catalog.GetProduct(r.Context(), id, actorFrom(r.Context()).IsAdmin())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GET /products/{id}/price?quantity=&options=1,2
func (h *CatalogHandler) Quote(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	quantity, err := queryInt(r, "quantity", 1)
	if err != nil {
		handleError(w, r, err)
		return
	}
	optionIDs, err := queryInt64List(r, "options")
	if err != nil {
		handleError(w, r, err)
		return
	}
	quote, err := h.catalog.Quote(r.Context(), id, quantity, optionIDs)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// GET /categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// POST /admin/categories
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	c, err := h.catalog.CreateCategory(r.Context(), actorFrom(r.Context()), req.Name, req.Slug)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// POST /admin/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	p, err := h.catalog.CreateProduct(r.Context(), actorFrom(r.Context()), req.toDomain(0))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// PUT /admin/products/{id}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req ProductRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	p, err := h.catalog.UpdateProduct(r.Context(), actorFrom(r.Context()), req.toDomain(id))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DELETE /admin/products/{id}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), actorFrom(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /admin/products/{id}/options
func (h *CatalogHandler) ReplaceOptions(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req ReplaceOptionsDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	options := make([]domain.ProductOption, 0, len(req.Options))
	for _, o := range req.Options {
		options = append(options, domain.ProductOption{
			ProductID:     id,
			Type:          domain.OptionType(o.Type),
			Name:          o.Name,
			PriceModifier: o.PriceModifier,
			IsDefault:     o.IsDefault,
		})
	}
	saved, err := h.catalog.ReplaceOptions(r.Context(), actorFrom(r.Context()), id, options)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// PUT /admin/products/{id}/pricing-tiers
func (h *CatalogHandler) ReplaceProductTiers(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req ReplaceTiersDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	saved, err := h.catalog.ReplaceProductTiers(r.Context(), actorFrom(r.Context()), id, req.toDomain())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// GET /admin/pricing/global-tiers
func (h *CatalogHandler) GlobalTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.catalog.GlobalTiers(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tiers)
}

// PUT /admin/pricing/global-tiers
func (h *CatalogHandler) ReplaceGlobalTiers(w http.ResponseWriter, r *http.Request) {
	var req ReplaceTiersDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	saved, err := h.catalog.ReplaceGlobalTiers(r.Context(), actorFrom(r.Context()), req.toDomain())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// POST /admin/products/bulk-adjust
func (h *CatalogHandler) BulkAdjust(w http.ResponseWriter, r *http.Request) {
	var req BulkAdjustDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	changes, err := h.catalog.BulkAdjust(r.Context(), actorFrom(r.Context()), service.BulkAdjustRequest{
		Type:       pricing.AdjustmentType(req.AdjustmentType),
		Value:      req.Value,
		CategoryID: req.CategoryID,
		Preview:    req.Preview,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"preview": req.Preview,
		"changes": changes,
	})
}
