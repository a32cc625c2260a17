// Package shipping prices delivery for a cart from global settings and the
// per-product shipping type of every line.
package shipping

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

var (
	remoteMultiplier  = decimal.RequireFromString("1.5")
	defaultMultiplier = decimal.NewFromInt(1)
)

// Item is the shipping-relevant view of a cart line.
type Item struct {
	Quantity          int
	ShippingType      domain.ShippingType
	FlatShippingPrice decimal.Decimal
}

type Address struct {
	State string `json:"state"`
	Zip   string `json:"zip"`
}

type Quote struct {
	ShippingCost       decimal.Decimal `json:"shippingCost"`
	LocationMultiplier decimal.Decimal `json:"locationMultiplier"`
}

// ComputeQuote is deterministic: no carrier lookup takes place. Flat items are
// charged per unit, calculated items either once per cart or per unit when
// automatic shipping is on, and the destination multiplier applies to the sum.
func ComputeQuote(items []Item, address Address, settings Settings) Quote {
	if settings.FreeShipping {
		return Quote{ShippingCost: decimal.Zero, LocationMultiplier: defaultMultiplier}
	}

	flat := decimal.Zero
	calculatedQty := 0
	hasCalculated := false
	for _, item := range items {
		switch item.ShippingType {
		case domain.ShippingFree:
			continue
		case domain.ShippingFlat:
			units := max(1, item.Quantity)
			flat = flat.Add(item.FlatShippingPrice.Mul(decimal.NewFromInt(int64(units))))
		default:
			hasCalculated = true
			calculatedQty += item.Quantity
		}
	}

	calculated := decimal.Zero
	if hasCalculated {
		if settings.AutomaticShipping {
			calculated = settings.ShippingCost.Mul(decimal.NewFromInt(int64(calculatedQty)))
		} else {
			calculated = settings.ShippingCost
		}
	}

	multiplier := LocationMultiplier(address.State)
	total := flat.Add(calculated).Mul(multiplier).Round(2)
	return Quote{ShippingCost: total, LocationMultiplier: multiplier}
}

// LocationMultiplier is a placeholder policy: Alaska and Hawaii cost 1.5x.
func LocationMultiplier(state string) decimal.Decimal {
	switch strings.ToUpper(strings.TrimSpace(state)) {
	case "AK", "HI", "ALASKA", "HAWAII":
		return remoteMultiplier
	}
	return defaultMultiplier
}
