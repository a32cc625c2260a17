// Package pricing turns quantities, quantity-break tiers and option choices
// into unit prices and line totals. Nothing here performs I/O; callers pass
// rows they have already loaded.
package pricing

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

const (
	// UnitPlaces is the precision carried by tier and unit prices.
	UnitPlaces = 4
	// MoneyPlaces is the precision of persisted monetary amounts.
	MoneyPlaces = 2
)

type AdjustmentType string

const (
	AdjustPercentage AdjustmentType = "percentage"
	AdjustFlat       AdjustmentType = "flat"
)

var (
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be greater than 0", domain.ErrValidation)
	ErrInvalidAdjustment = fmt.Errorf("%w: adjustment type must be percentage or flat", domain.ErrValidation)
)

func ParseAdjustmentType(s string) (AdjustmentType, error) {
	switch t := AdjustmentType(s); t {
	case AdjustPercentage, AdjustFlat:
		return t, nil
	}
	return "", ErrInvalidAdjustment
}

// Line is a priced cart or order line.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
	// Tier is nil when the base price applied.
	Tier *domain.PricingTier
}

// SelectTier picks the tier whose bracket contains quantity. When quantity is
// above every bracket the tier with the highest minimum applies. Quantities
// below the first bracket or inside a gap between brackets match nothing.
func SelectTier(tiers []domain.PricingTier, quantity int) (domain.PricingTier, bool) {
	if len(tiers) == 0 {
		return domain.PricingTier{}, false
	}
	sorted := slices.Clone(tiers)
	slices.SortFunc(sorted, func(a, b domain.PricingTier) int {
		return a.MinQuantity - b.MinQuantity
	})

	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Contains(quantity) {
			return sorted[i], true
		}
	}

	for _, t := range sorted {
		if t.MaxQuantity == nil || quantity <= *t.MaxQuantity {
			return domain.PricingTier{}, false
		}
	}
	return sorted[len(sorted)-1], true
}

// PriceLine computes the unit price (tier or base price plus every option
// modifier) and the line total rounded half-up to cents.
func PriceLine(quantity int, basePrice decimal.Decimal, tiers []domain.PricingTier, modifiers []decimal.Decimal) (Line, error) {
	if quantity <= 0 {
		return Line{}, ErrInvalidQuantity
	}

	line := Line{Quantity: quantity}
	unit := basePrice
	if tier, ok := SelectTier(tiers, quantity); ok {
		unit = tier.PricePerUnit
		line.Tier = &tier
	}
	for _, m := range modifiers {
		unit = unit.Add(m)
	}

	line.UnitPrice = unit.Round(UnitPlaces)
	line.Total = line.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(MoneyPlaces)
	return line, nil
}

// AdjustPrice applies one bulk re-pricing event. Percentage multiplies by
// (1 + value/100), flat adds value. The result is floored at zero. Repeated
// calls compound.
func AdjustPrice(current decimal.Decimal, t AdjustmentType, value decimal.Decimal) (decimal.Decimal, error) {
	var next decimal.Decimal
	switch t {
	case AdjustPercentage:
		factor := decimal.NewFromInt(1).Add(value.Div(decimal.NewFromInt(100)))
		next = current.Mul(factor)
	case AdjustFlat:
		next = current.Add(value)
	default:
		return decimal.Zero, ErrInvalidAdjustment
	}
	if next.IsNegative() {
		next = decimal.Zero
	}
	return next.Round(UnitPlaces), nil
}
