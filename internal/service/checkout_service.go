package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/cache"
	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/logger"
	"github.com/travatlanta/Sticky-sub003/internal/pricing"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
	"github.com/travatlanta/Sticky-sub003/internal/shipping"
)

type SettingsLoader interface {
	Load() shipping.Settings
}

type CheckoutRequest struct {
	Owner           string
	ShippingAddress domain.Address
	PromotionCode   string
	IdempotencyKey  string
}

type PromotionPreview struct {
	Code         string              `json:"code"`
	DiscountType domain.DiscountType `json:"discountType"`
	Value        decimal.Decimal     `json:"value"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	Discount     decimal.Decimal     `json:"discount"`
}

type CheckoutService struct {
	carts    *CartService
	products ProductSource
	orders   OrderStore
	promos   PromotionStore
	idem     cache.IdempotencyStore
	settings SettingsLoader
	taxRate  decimal.Decimal
	now      func() time.Time
}

func NewCheckoutService(
	carts *CartService,
	products ProductSource,
	orders OrderStore,
	promos PromotionStore,
	idem cache.IdempotencyStore,
	settings SettingsLoader,
	taxRate decimal.Decimal,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		products: products,
		orders:   orders,
		promos:   promos,
		idem:     idem,
		settings: settings,
		taxRate:  taxRate,
		now:      time.Now,
	}
}

// pricedCart is the cart re-priced against the current catalog.
type pricedCart struct {
	items    []domain.OrderItem
	shipping []shipping.Item
	subtotal decimal.Decimal
}

func (s *CheckoutService) priceCart(ctx context.Context, cart *domain.Cart) (*pricedCart, error) {
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}
	global, err := s.products.GlobalTiers(ctx)
	if err != nil {
		return nil, err
	}

	products := make(map[int64]*domain.Product)
	priced := &pricedCart{subtotal: decimal.Zero}
	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok {
			p, err = s.products.GetProduct(ctx, item.ProductID)
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: product %d is no longer available", domain.ErrValidation, item.ProductID)
			}
			if err != nil {
				return nil, err
			}
			products[item.ProductID] = p
		}
		if !p.IsActive {
			return nil, fmt.Errorf("%w: product %s is no longer available", domain.ErrValidation, p.Name)
		}

		line, options, err := pricing.QuoteProduct(p, global, item.Quantity, item.OptionIDs)
		if err != nil {
			return nil, err
		}

		var designID *uuid.UUID
		if item.DesignID != nil {
			id, err := uuid.Parse(*item.DesignID)
			if err != nil {
				return nil, fmt.Errorf("%w: cart line %s has an invalid design id", domain.ErrValidation, item.ID)
			}
			designID = &id
		}
		priced.items = append(priced.items, domain.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			DesignID:    designID,
			Quantity:    item.Quantity,
			OptionIDs:   pricing.OptionIDs(options),
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.Total,
		})
		flat := decimal.Zero
		if p.FlatShippingPrice != nil {
			flat = *p.FlatShippingPrice
		}
		priced.shipping = append(priced.shipping, shipping.Item{
			Quantity:          item.Quantity,
			ShippingType:      p.ShippingType,
			FlatShippingPrice: flat,
		})
		priced.subtotal = priced.subtotal.Add(line.Total)
	}
	return priced, nil
}

// ShippingQuote prices delivery of the owner's current cart. An empty cart
// costs nothing to ship.
func (s *CheckoutService) ShippingQuote(ctx context.Context, owner string, address shipping.Address) (shipping.Quote, error) {
	cart, err := s.carts.GetCart(ctx, owner)
	if err != nil {
		return shipping.Quote{}, err
	}
	if len(cart.Items) == 0 {
		return shipping.ComputeQuote(nil, address, s.settings.Load()), nil
	}
	priced, err := s.priceCart(ctx, cart)
	if err != nil {
		return shipping.Quote{}, err
	}
	return shipping.ComputeQuote(priced.shipping, address, s.settings.Load()), nil
}

func (s *CheckoutService) PreviewPromotion(ctx context.Context, actor domain.Actor, owner, code string) (*PromotionPreview, error) {
	cart, err := s.carts.GetCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	priced, err := s.priceCart(ctx, cart)
	if err != nil {
		return nil, err
	}
	promo, discount, err := s.applyPromotion(ctx, actor.UserID, code, priced.subtotal)
	if err != nil {
		return nil, err
	}
	return &PromotionPreview{
		Code:         promo.Code,
		DiscountType: promo.DiscountType,
		Value:        promo.Value,
		Subtotal:     priced.subtotal,
		Discount:     discount,
	}, nil
}

func (s *CheckoutService) applyPromotion(ctx context.Context, userID, code string, subtotal decimal.Decimal) (*domain.Promotion, decimal.Decimal, error) {
	promo, err := s.promos.GetPromotionByCode(ctx, code)
	if errors.Is(err, repository.ErrPromotionNotFound) {
		return nil, decimal.Zero, ErrUnknownPromotion
	}
	if err != nil {
		return nil, decimal.Zero, err
	}
	uses := 0
	if userID != "" {
		if uses, err = s.promos.CountUserRedemptions(ctx, promo.ID, userID); err != nil {
			return nil, decimal.Zero, err
		}
	}
	if err := promo.CheckUsable(s.now(), subtotal, uses); err != nil {
		return nil, decimal.Zero, err
	}
	return promo, promo.DiscountFor(subtotal), nil
}

// Checkout turns the owner's cart into a pending order. The second return
// value reports whether the order was replayed for a repeated idempotency key.
func (s *CheckoutService) Checkout(ctx context.Context, actor domain.Actor, req CheckoutRequest) (*domain.Order, bool, error) {
	if actor.UserID == "" {
		return nil, false, domain.ErrUnauthorized
	}
	if strings.TrimSpace(req.ShippingAddress.State) == "" || strings.TrimSpace(req.ShippingAddress.Line1) == "" {
		return nil, false, fmt.Errorf("%w: shipping address needs at least a street line and state", domain.ErrValidation)
	}

	log := logger.FromContext(ctx)
	if req.IdempotencyKey != "" {
		existing, err := s.claimKey(ctx, req.IdempotencyKey)
		if err != nil || existing != nil {
			return existing, existing != nil, err
		}
	}

	order, err := s.placeOrder(ctx, actor, req)
	if err != nil {
		if req.IdempotencyKey != "" {
			if errors.Is(err, repository.ErrDuplicateCheckout) {
				existing, lookupErr := s.orders.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
				if lookupErr == nil {
					return existing, true, nil
				}
			}
			if relErr := s.idem.Release(context.WithoutCancel(ctx), req.IdempotencyKey); relErr != nil {
				log.Warn().Err(relErr).Msg("failed to release idempotency key")
			}
		}
		return nil, false, err
	}

	if req.IdempotencyKey != "" {
		if err := s.idem.Complete(ctx, req.IdempotencyKey, order.ID.String()); err != nil {
			log.Warn().Err(err).Msg("failed to record idempotency key")
		}
	}
	if err := s.carts.ClearCart(ctx, req.Owner); err != nil {
		log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to clear cart after checkout")
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("total", order.Total.StringFixed(2)).
		Msg("order placed")
	return order, false, nil
}

// claimKey returns the earlier order for a completed key, or reserves the
// key for this request. A Redis outage degrades to the database unique key.
func (s *CheckoutService) claimKey(ctx context.Context, key string) (*domain.Order, error) {
	log := logger.FromContext(ctx)
	orderID, err := s.idem.Lookup(ctx, key)
	switch {
	case err == nil && orderID == "":
		return nil, ErrCheckoutInProgress
	case err == nil:
		id, parseErr := uuid.Parse(orderID)
		if parseErr == nil {
			return s.orders.GetOrderByID(ctx, id)
		}
	case !errors.Is(err, cache.ErrCacheMiss):
		log.Warn().Err(err).Msg("idempotency lookup failed")
		return nil, nil
	}

	ok, err := s.idem.Reserve(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("idempotency reserve failed")
		return nil, nil
	}
	if !ok {
		return nil, ErrCheckoutInProgress
	}
	return nil, nil
}

func (s *CheckoutService) placeOrder(ctx context.Context, actor domain.Actor, req CheckoutRequest) (*domain.Order, error) {
	cart, err := s.carts.GetCart(ctx, req.Owner)
	if err != nil {
		return nil, err
	}
	priced, err := s.priceCart(ctx, cart)
	if err != nil {
		return nil, err
	}
	// ownership may have changed since the line was added
	checked := make(map[uuid.UUID]bool)
	for _, item := range priced.items {
		if item.DesignID == nil || checked[*item.DesignID] {
			continue
		}
		if err := s.carts.checkDesign(ctx, actor, *item.DesignID); err != nil {
			return nil, err
		}
		checked[*item.DesignID] = true
	}

	quote := shipping.ComputeQuote(priced.shipping,
		shipping.Address{State: req.ShippingAddress.State, Zip: req.ShippingAddress.Zip},
		s.settings.Load())

	discount := decimal.Zero
	var (
		promoID   *int64
		promoCode *string
	)
	if code := strings.TrimSpace(req.PromotionCode); code != "" {
		promo, d, err := s.applyPromotion(ctx, actor.UserID, code, priced.subtotal)
		if err != nil {
			return nil, err
		}
		discount = d
		promoID = &promo.ID
		promoCode = &promo.Code
	}

	taxable := priced.subtotal.Sub(discount)
	tax := taxable.Mul(s.taxRate).Round(pricing.MoneyPlaces)
	total := taxable.Add(quote.ShippingCost).Add(tax).Round(pricing.MoneyPlaces)

	artwork := domain.ArtworkUploaded
	for _, item := range priced.items {
		if item.DesignID == nil {
			artwork = domain.ArtworkAwaiting
			break
		}
	}

	now := s.now().UTC()
	id := uuid.New()
	order := &domain.Order{
		ID:              id,
		OrderNumber:     domain.NewOrderNumber(id, now),
		UserID:          actor.UserID,
		CustomerEmail:   actor.Email,
		CustomerName:    actor.Name,
		Status:          domain.OrderStatusPending,
		ArtworkStatus:   artwork,
		ShippingAddress: req.ShippingAddress,
		Subtotal:        priced.subtotal.Round(pricing.MoneyPlaces),
		ShippingCost:    quote.ShippingCost,
		Tax:             tax,
		Discount:        discount,
		Total:           total,
		PromotionCode:   promoCode,
		Items:           priced.items,
	}

	err = s.orders.CreateOrder(ctx, repository.PlaceOrder{
		Order:          order,
		IdempotencyKey: req.IdempotencyKey,
		PromotionID:    promoID,
		Events:         []domain.Event{domain.NewOrderEvent(domain.EventOrderPlaced, order, now)},
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
