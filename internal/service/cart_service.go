package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/travatlanta/Sticky-sub003/internal/cache"
	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/logger"
	"github.com/travatlanta/Sticky-sub003/internal/pricing"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
)

type AddItemRequest struct {
	ProductID int64
	Quantity  int
	OptionIDs []int64
	DesignID  *string
}

type CartService struct {
	repo     repository.CartRepository
	cache    cache.CartCache
	products ProductSource
	designs  DesignStore
	sfg      singleflight.Group // collapses concurrent cache misses per owner
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, products ProductSource, designs DesignStore) *CartService {
	return &CartService{
		repo:     repo,
		cache:    cache,
		products: products,
		designs:  designs,
	}
}

// GetCart returns the owner's cart, or an empty one when none exists yet.
func (s *CartService) GetCart(ctx context.Context, owner string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(owner, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, owner)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.FromContext(ctx).Warn().Err(err).Str("owner", owner).Msg("cart cache get failed")
		}

		cart, err = s.repo.GetCart(ctx, owner)
		if errors.Is(err, repository.ErrCartNotFound) {
			now := time.Now().UTC()
			return &domain.Cart{Owner: owner, Items: []domain.CartItem{}, CreatedAt: now, UpdatedAt: now}, nil
		}
		if err != nil {
			return nil, err
		}

		go func(cart *domain.Cart) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(ctx, owner, cart); err != nil {
				logger.FromContext(ctx).Warn().Err(err).Str("owner", owner).Msg("cart cache set failed")
			}
		}(cart)

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddItem prices the line through the engine and snapshots the unit price.
// A design can only be attached by a signed-in actor who owns it.
func (s *CartService) AddItem(ctx context.Context, actor domain.Actor, owner string, req AddItemRequest) (*domain.Cart, error) {
	line, options, err := s.price(ctx, req.ProductID, req.Quantity, req.OptionIDs)
	if err != nil {
		return nil, err
	}
	if req.DesignID != nil {
		id, err := uuid.Parse(*req.DesignID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid design id", domain.ErrValidation)
		}
		if err := s.checkDesign(ctx, actor, id); err != nil {
			return nil, err
		}
	}

	item := domain.CartItem{
		ID:        uuid.NewString(),
		ProductID: req.ProductID,
		DesignID:  req.DesignID,
		Quantity:  req.Quantity,
		OptionIDs: pricing.OptionIDs(options),
		UnitPrice: line.UnitPrice.StringFixed(pricing.UnitPlaces),
	}
	if err := s.repo.AddItem(ctx, owner, item); err != nil {
		return nil, err
	}
	s.invalidate(ctx, owner)
	return s.GetCart(ctx, owner)
}

// UpdateQuantity re-prices the line, since a new quantity may land in a
// different tier.
func (s *CartService) UpdateQuantity(ctx context.Context, owner, itemID string, quantity int) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, owner)
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil, repository.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}

	var item *domain.CartItem
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			item = &cart.Items[i]
			break
		}
	}
	if item == nil {
		return nil, repository.ErrItemNotFound
	}

	line, _, err := s.price(ctx, item.ProductID, quantity, item.OptionIDs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItem(ctx, owner, itemID, quantity, line.UnitPrice.StringFixed(pricing.UnitPlaces)); err != nil {
		return nil, err
	}
	s.invalidate(ctx, owner)
	return s.GetCart(ctx, owner)
}

func (s *CartService) RemoveItem(ctx context.Context, owner, itemID string) (*domain.Cart, error) {
	if err := s.repo.RemoveItem(ctx, owner, itemID); err != nil {
		return nil, err
	}
	s.invalidate(ctx, owner)
	return s.GetCart(ctx, owner)
}

// ClearCart is a no-op for owners without a cart.
func (s *CartService) ClearCart(ctx context.Context, owner string) error {
	err := s.repo.DeleteCart(ctx, owner)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return err
	}
	s.invalidate(ctx, owner)
	return nil
}

// ClearCartPlacedBefore empties the owner's cart unless it changed after
// placedAt, which means the customer already started a new one. It reports
// whether anything was removed.
func (s *CartService) ClearCartPlacedBefore(ctx context.Context, owner string, placedAt time.Time) (bool, error) {
	cart, err := s.repo.GetCart(ctx, owner)
	if errors.Is(err, repository.ErrCartNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if cart.UpdatedAt.After(placedAt) {
		return false, nil
	}
	if err := s.ClearCart(ctx, owner); err != nil {
		return false, err
	}
	return true, nil
}

// AdoptCart moves the lines of a guest cart into the signed-in owner's cart
// and deletes the guest cart. It returns the number of lines moved.
func (s *CartService) AdoptCart(ctx context.Context, from, to string) (int, error) {
	guest, err := s.repo.GetCart(ctx, from)
	if errors.Is(err, repository.ErrCartNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer s.invalidate(ctx, to)

	for _, item := range guest.Items {
		if err := s.repo.AddItem(ctx, to, item); err != nil {
			return 0, err
		}
	}
	if err := s.ClearCart(ctx, from); err != nil {
		return 0, err
	}
	return len(guest.Items), nil
}

// checkDesign fails unless the design exists and the actor may print it.
func (s *CartService) checkDesign(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if actor.UserID == "" {
		return fmt.Errorf("%w: sign in to attach a design", domain.ErrUnauthorized)
	}
	design, err := s.designs.GetDesign(ctx, id)
	if errors.Is(err, repository.ErrDesignNotFound) {
		return fmt.Errorf("%w: design %s does not exist", domain.ErrValidation, id)
	}
	if err != nil {
		return err
	}
	if !actor.Owns(design.UserID) {
		return fmt.Errorf("%w: design belongs to another user", domain.ErrForbidden)
	}
	return nil
}

func (s *CartService) price(ctx context.Context, productID int64, quantity int, optionIDs []int64) (pricing.Line, []domain.ProductOption, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return pricing.Line{}, nil, err
	}
	if !product.IsActive {
		return pricing.Line{}, nil, fmt.Errorf("%w: product %d is not available", domain.ErrValidation, productID)
	}
	global, err := s.products.GlobalTiers(ctx)
	if err != nil {
		return pricing.Line{}, nil, err
	}
	return pricing.QuoteProduct(product, global, quantity, optionIDs)
}

func (s *CartService) invalidate(ctx context.Context, owner string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, owner); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("owner", owner).Msg("cart cache invalidate failed")
	}
}
