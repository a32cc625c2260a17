package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShippingType string

const (
	ShippingFree       ShippingType = "free"
	ShippingFlat       ShippingType = "flat"
	ShippingCalculated ShippingType = "calculated"
)

// ParseShippingType maps an unset value to calculated, the storefront default.
func ParseShippingType(s string) (ShippingType, bool) {
	switch ShippingType(s) {
	case "", ShippingCalculated:
		return ShippingCalculated, true
	case ShippingFree, ShippingFlat:
		return ShippingType(s), true
	}
	return "", false
}

type OptionType string

const (
	OptionMaterial OptionType = "material"
	OptionCoating  OptionType = "coating"
	OptionCut      OptionType = "cut"
)

func (t OptionType) Valid() bool {
	return t == OptionMaterial || t == OptionCoating || t == OptionCut
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

type Product struct {
	ID                int64            `json:"id"`
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	ImageURL          string           `json:"imageUrl"`
	BasePrice         decimal.Decimal  `json:"basePrice"`
	IsActive          bool             `json:"isActive"`
	IsFeatured        bool             `json:"isFeatured"`
	ShippingType      ShippingType     `json:"shippingType"`
	FlatShippingPrice *decimal.Decimal `json:"flatShippingPrice,omitempty"`
	CategoryID        *int64           `json:"categoryId,omitempty"`
	Tiers             []PricingTier    `json:"pricingTiers"`
	Options           []ProductOption  `json:"options"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// PricingTier maps a quantity bracket to a per-unit price. A nil MaxQuantity
// means the bracket is open-ended. ProductID is nil for the global tier set.
type PricingTier struct {
	ID           int64           `json:"id"`
	ProductID    *int64          `json:"productId,omitempty"`
	MinQuantity  int             `json:"minQuantity"`
	MaxQuantity  *int            `json:"maxQuantity,omitempty"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
}

// Contains reports whether quantity falls inside the tier bracket.
func (t PricingTier) Contains(quantity int) bool {
	if quantity < t.MinQuantity {
		return false
	}
	return t.MaxQuantity == nil || quantity <= *t.MaxQuantity
}

type ProductOption struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"productId"`
	Type          OptionType      `json:"optionType"`
	Name          string          `json:"name"`
	PriceModifier decimal.Decimal `json:"priceModifier"`
	IsDefault     bool            `json:"isDefault"`
}

// PriceChange records one product's base price before and after a bulk
// adjustment.
type PriceChange struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	OldPrice  decimal.Decimal `json:"oldPrice"`
	NewPrice  decimal.Decimal `json:"newPrice"`
}
