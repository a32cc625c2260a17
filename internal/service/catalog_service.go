package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/logger"
	"github.com/travatlanta/Sticky-sub003/internal/pricing"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
)

type CatalogService struct {
	store    CatalogStore
	activity *ActivityRecorder
}

func NewCatalogService(store CatalogStore, activity *ActivityRecorder) *CatalogService {
	return &CatalogService{store: store, activity: activity}
}

// PriceQuote is the engine's answer for one product line.
type PriceQuote struct {
	ProductID int64                  `json:"productId"`
	Quantity  int                    `json:"quantity"`
	UnitPrice decimal.Decimal        `json:"unitPrice"`
	LineTotal decimal.Decimal        `json:"lineTotal"`
	Tier      *domain.PricingTier    `json:"tier,omitempty"`
	Options   []domain.ProductOption `json:"options"`
}

type BulkAdjustRequest struct {
	Type       pricing.AdjustmentType
	Value      decimal.Decimal
	CategoryID *int64
	Preview    bool
}

func (s *CatalogService) ListProducts(ctx context.Context, f repository.ProductFilter) ([]*domain.Product, error) {
	return s.store.ListProducts(ctx, f)
}

// GetProduct hides inactive products unless includeInactive is set.
func (s *CatalogService) GetProduct(ctx context.Context, id int64, includeInactive bool) (*domain.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive && !includeInactive {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (s *CatalogService) Quote(ctx context.Context, productID int64, quantity int, optionIDs []int64) (*PriceQuote, error) {
	p, err := s.GetProduct(ctx, productID, false)
	if err != nil {
		return nil, err
	}
	global, err := s.store.GlobalTiers(ctx)
	if err != nil {
		return nil, err
	}
	line, options, err := pricing.QuoteProduct(p, global, quantity, optionIDs)
	if err != nil {
		return nil, err
	}
	return &PriceQuote{
		ProductID: p.ID,
		Quantity:  quantity,
		UnitPrice: line.UnitPrice,
		LineTotal: line.Total,
		Tier:      line.Tier,
		Options:   options,
	}, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor domain.Actor, name, slug string) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrValidation)
	}
	if slug == "" {
		slug = slugify(name)
	}
	c := &domain.Category{Name: name, Slug: slug}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, "create", "category", strconv.FormatInt(c.ID, 10), c)
	return c, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor domain.Actor, p *domain.Product) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, "create", "product", strconv.FormatInt(p.ID, 10), map[string]any{"name": p.Name})
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, actor domain.Actor, p *domain.Product) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, "update", "product", strconv.FormatInt(p.ID, 10), map[string]any{"name": p.Name})
	return s.store.GetProduct(ctx, p.ID)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, actor domain.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.activity.Record(ctx, actor, "delete", "product", strconv.FormatInt(id, 10), nil)
	return nil
}

func (s *CatalogService) ReplaceOptions(ctx context.Context, actor domain.Actor, productID int64, options []domain.ProductOption) ([]domain.ProductOption, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	for _, o := range options {
		if !o.Type.Valid() {
			return nil, fmt.Errorf("%w: unknown option type %q", domain.ErrValidation, o.Type)
		}
		if strings.TrimSpace(o.Name) == "" {
			return nil, fmt.Errorf("%w: option name is required", domain.ErrValidation)
		}
	}
	saved, err := s.store.ReplaceProductOptions(ctx, productID, options)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, "replace_options", "product", strconv.FormatInt(productID, 10), map[string]int{"count": len(saved)})
	return saved, nil
}

func (s *CatalogService) GlobalTiers(ctx context.Context) ([]domain.PricingTier, error) {
	return s.store.GlobalTiers(ctx)
}

func (s *CatalogService) ReplaceProductTiers(ctx context.Context, actor domain.Actor, productID int64, tiers []domain.PricingTier) ([]domain.PricingTier, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	usable, err := usableTiers(tiers)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.ReplaceProductTiers(ctx, productID, usable)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, "replace_tiers", "product", strconv.FormatInt(productID, 10), map[string]int{"count": len(saved)})
	return saved, nil
}

func (s *CatalogService) ReplaceGlobalTiers(ctx context.Context, actor domain.Actor, tiers []domain.PricingTier) ([]domain.PricingTier, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	usable, err := usableTiers(tiers)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.ReplaceGlobalTiers(ctx, usable)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, "replace_tiers", "pricing", "global", map[string]int{"count": len(saved)})
	return saved, nil
}

// BulkAdjust re-prices every product in scope. A preview computes the new
// prices without writing; otherwise all rows change in one transaction.
func (s *CatalogService) BulkAdjust(ctx context.Context, actor domain.Actor, req BulkAdjustRequest) ([]domain.PriceChange, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	adjust := func(p decimal.Decimal) (decimal.Decimal, error) {
		return pricing.AdjustPrice(p, req.Type, req.Value)
	}
	if _, err := adjust(decimal.Zero); err != nil {
		return nil, err
	}

	if req.Preview {
		products, err := s.store.ListProducts(ctx, repository.ProductFilter{CategoryID: req.CategoryID, IncludeInactive: true})
		if err != nil {
			return nil, err
		}
		changes := make([]domain.PriceChange, 0, len(products))
		for _, p := range products {
			next, err := adjust(p.BasePrice)
			if err != nil {
				return nil, err
			}
			changes = append(changes, domain.PriceChange{ProductID: p.ID, Name: p.Name, OldPrice: p.BasePrice, NewPrice: next})
		}
		return changes, nil
	}

	changes, err := s.store.AdjustBasePrices(ctx, req.CategoryID, adjust)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().
		Str("type", string(req.Type)).
		Str("value", req.Value.String()).
		Int("products", len(changes)).
		Msg("bulk price adjustment applied")
	s.activity.Record(ctx, actor, "bulk_adjust", "product", "*", map[string]any{
		"adjustmentType":  req.Type,
		"adjustmentValue": req.Value,
		"categoryId":      req.CategoryID,
		"products":        len(changes),
	})
	return changes, nil
}

func validateProduct(p *domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrValidation)
	}
	if p.BasePrice.IsNegative() {
		return fmt.Errorf("%w: base price must not be negative", domain.ErrValidation)
	}
	st, ok := domain.ParseShippingType(string(p.ShippingType))
	if !ok {
		return fmt.Errorf("%w: unknown shipping type %q", domain.ErrValidation, p.ShippingType)
	}
	p.ShippingType = st
	if st == domain.ShippingFlat && (p.FlatShippingPrice == nil || p.FlatShippingPrice.IsNegative()) {
		return fmt.Errorf("%w: flat shipping requires a non-negative flatShippingPrice", domain.ErrValidation)
	}
	return nil
}

// usableTiers drops tiers with a non-positive minimum or price, then rejects
// what is left if brackets overlap.
func usableTiers(tiers []domain.PricingTier) ([]domain.PricingTier, error) {
	usable := make([]domain.PricingTier, 0, len(tiers))
	for _, t := range tiers {
		if t.MinQuantity <= 0 || !t.PricePerUnit.IsPositive() {
			continue
		}
		if t.MaxQuantity != nil && *t.MaxQuantity < t.MinQuantity {
			return nil, fmt.Errorf("%w: tier max %d is below min %d", domain.ErrValidation, *t.MaxQuantity, t.MinQuantity)
		}
		usable = append(usable, t)
	}
	slices.SortFunc(usable, func(a, b domain.PricingTier) int { return a.MinQuantity - b.MinQuantity })
	for i := 1; i < len(usable); i++ {
		prev := usable[i-1]
		if prev.MaxQuantity == nil || *prev.MaxQuantity >= usable[i].MinQuantity {
			return nil, fmt.Errorf("%w: tiers starting at %d and %d overlap", domain.ErrValidation, prev.MinQuantity, usable[i].MinQuantity)
		}
	}
	return usable, nil
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
