package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

type Promotion struct {
	ID             int64            `json:"id"`
	Code           string           `json:"code"`
	Description    string           `json:"description"`
	DiscountType   DiscountType     `json:"discountType"`
	Value          decimal.Decimal  `json:"value"`
	MinOrderAmount *decimal.Decimal `json:"minOrderAmount,omitempty"`
	MaxUses        *int             `json:"maxUses,omitempty"`
	MaxUsesPerUser *int             `json:"maxUsesPerUser,omitempty"`
	UsedCount      int              `json:"usedCount"`
	StartsAt       *time.Time       `json:"startsAt,omitempty"`
	EndsAt         *time.Time       `json:"endsAt,omitempty"`
	IsActive       bool             `json:"isActive"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// CheckUsable validates the promotion for one checkout. userUses is the
// number of earlier redemptions by the same user.
func (p Promotion) CheckUsable(now time.Time, subtotal decimal.Decimal, userUses int) error {
	if !p.IsActive {
		return fmt.Errorf("%w: promotion %s is not active", ErrValidation, p.Code)
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return fmt.Errorf("%w: promotion %s has not started", ErrValidation, p.Code)
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return fmt.Errorf("%w: promotion %s has expired", ErrValidation, p.Code)
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return fmt.Errorf("%w: promotion %s usage limit reached", ErrConflict, p.Code)
	}
	if p.MaxUsesPerUser != nil && userUses >= *p.MaxUsesPerUser {
		return fmt.Errorf("%w: promotion %s already used", ErrConflict, p.Code)
	}
	if p.MinOrderAmount != nil && subtotal.LessThan(*p.MinOrderAmount) {
		return fmt.Errorf("%w: order must be at least %s to use %s", ErrValidation, p.MinOrderAmount.StringFixed(2), p.Code)
	}
	return nil
}

// DiscountFor never discounts more than the subtotal.
func (p Promotion) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch p.DiscountType {
	case DiscountPercentage:
		discount = subtotal.Mul(p.Value).Div(decimal.NewFromInt(100))
	case DiscountFlat:
		discount = p.Value
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2)
}

// Deal is a homepage-promotable priced listing.
type Deal struct {
	ID            int64            `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	ProductID     *int64           `json:"productId,omitempty"`
	ImageURL      string           `json:"imageUrl"`
	Quantity      int              `json:"quantity"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	IsActive      bool             `json:"isActive"`
	ShowOnHome    bool             `json:"showOnHome"`
	DisplayOrder  int              `json:"displayOrder"`
	StartsAt      *time.Time       `json:"startsAt,omitempty"`
	EndsAt        *time.Time       `json:"endsAt,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func (d Deal) IsLive(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false
	}
	return d.EndsAt == nil || !now.After(*d.EndsAt)
}
