package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// PromotionService is the back office for discount codes and homepage deals.
type PromotionService struct {
	promos   PromotionStore
	deals    DealStore
	activity *ActivityRecorder
}

func NewPromotionService(promos PromotionStore, deals DealStore, activity *ActivityRecorder) *PromotionService {
	return &PromotionService{promos: promos, deals: deals, activity: activity}
}

func (s *PromotionService) ListPromotions(ctx context.Context, actor domain.Actor) ([]*domain.Promotion, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.promos.ListPromotions(ctx)
}

func (s *PromotionService) CreatePromotion(ctx context.Context, actor domain.Actor, p *domain.Promotion) (*domain.Promotion, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validatePromotion(p); err != nil {
		return nil, err
	}
	if err := s.promos.CreatePromotion(ctx, p); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, "create", "promotion", strconv.FormatInt(p.ID, 10), map[string]string{"code": p.Code})
	return p, nil
}

func (s *PromotionService) UpdatePromotion(ctx context.Context, actor domain.Actor, p *domain.Promotion) (*domain.Promotion, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validatePromotion(p); err != nil {
		return nil, err
	}
	if err := s.promos.UpdatePromotion(ctx, p); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, "update", "promotion", strconv.FormatInt(p.ID, 10), map[string]string{"code": p.Code})
	return s.promos.GetPromotion(ctx, p.ID)
}

func (s *PromotionService) DeletePromotion(ctx context.Context, actor domain.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.promos.DeletePromotion(ctx, id); err != nil {
		return err
	}
	s.activity.Record(ctx, actor, "delete", "promotion", strconv.FormatInt(id, 10), nil)
	return nil
}

// ActiveDeals is the public listing: active deals inside their window.
func (s *PromotionService) ActiveDeals(ctx context.Context) ([]*domain.Deal, error) {
	return s.deals.ListDeals(ctx, true)
}

func (s *PromotionService) ListDeals(ctx context.Context, actor domain.Actor) ([]*domain.Deal, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.deals.ListDeals(ctx, false)
}

func (s *PromotionService) CreateDeal(ctx context.Context, actor domain.Actor, d *domain.Deal) (*domain.Deal, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateDeal(d); err != nil {
		return nil, err
	}
	if err := s.deals.CreateDeal(ctx, d); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, "create", "deal", strconv.FormatInt(d.ID, 10), map[string]string{"title": d.Title})
	return d, nil
}

func (s *PromotionService) UpdateDeal(ctx context.Context, actor domain.Actor, d *domain.Deal) (*domain.Deal, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateDeal(d); err != nil {
		return nil, err
	}
	if err := s.deals.UpdateDeal(ctx, d); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, "update", "deal", strconv.FormatInt(d.ID, 10), map[string]string{"title": d.Title})
	return s.deals.GetDeal(ctx, d.ID)
}

func (s *PromotionService) DeleteDeal(ctx context.Context, actor domain.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.deals.DeleteDeal(ctx, id); err != nil {
		return err
	}
	s.activity.Record(ctx, actor, "delete", "deal", strconv.FormatInt(id, 10), nil)
	return nil
}

func validatePromotion(p *domain.Promotion) error {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if p.Code == "" {
		return fmt.Errorf("%w: promotion code is required", domain.ErrValidation)
	}
	switch p.DiscountType {
	case domain.DiscountPercentage:
		if !p.Value.IsPositive() || p.Value.GreaterThan(hundred) {
			return fmt.Errorf("%w: percentage discount must be between 0 and 100", domain.ErrValidation)
		}
	case domain.DiscountFlat:
		if !p.Value.IsPositive() {
			return fmt.Errorf("%w: flat discount must be positive", domain.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown discount type %q", domain.ErrValidation, p.DiscountType)
	}
	if p.StartsAt != nil && p.EndsAt != nil && p.EndsAt.Before(*p.StartsAt) {
		return fmt.Errorf("%w: promotion ends before it starts", domain.ErrValidation)
	}
	return nil
}

func validateDeal(d *domain.Deal) error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: deal title is required", domain.ErrValidation)
	}
	if d.Quantity <= 0 {
		return fmt.Errorf("%w: deal quantity must be positive", domain.ErrValidation)
	}
	if d.Price.IsNegative() {
		return fmt.Errorf("%w: deal price must not be negative", domain.ErrValidation)
	}
	if d.StartsAt != nil && d.EndsAt != nil && d.EndsAt.Before(*d.StartsAt) {
		return fmt.Errorf("%w: deal ends before it starts", domain.ErrValidation)
	}
	return nil
}
