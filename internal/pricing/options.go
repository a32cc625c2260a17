package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

// ResolveOptions returns the options a line is priced with: every explicitly
// selected option, plus the default of each type left unselected.
func ResolveOptions(available []domain.ProductOption, selectedIDs []int64) ([]domain.ProductOption, error) {
	byID := make(map[int64]domain.ProductOption, len(available))
	for _, o := range available {
		byID[o.ID] = o
	}

	chosen := make(map[domain.OptionType]domain.ProductOption)
	for _, id := range selectedIDs {
		o, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: option %d does not belong to this product", domain.ErrValidation, id)
		}
		if _, dup := chosen[o.Type]; dup {
			return nil, fmt.Errorf("%w: more than one %s option selected", domain.ErrValidation, o.Type)
		}
		chosen[o.Type] = o
	}

	result := make([]domain.ProductOption, 0, 3)
	for _, t := range []domain.OptionType{domain.OptionMaterial, domain.OptionCoating, domain.OptionCut} {
		if o, ok := chosen[t]; ok {
			result = append(result, o)
			continue
		}
		for _, o := range available {
			if o.Type == t && o.IsDefault {
				result = append(result, o)
				break
			}
		}
	}
	return result, nil
}

func Modifiers(options []domain.ProductOption) []decimal.Decimal {
	mods := make([]decimal.Decimal, len(options))
	for i, o := range options {
		mods[i] = o.PriceModifier
	}
	return mods
}

func OptionIDs(options []domain.ProductOption) []int64 {
	ids := make([]int64, len(options))
	for i, o := range options {
		ids[i] = o.ID
	}
	return ids
}

// EffectiveTiers returns the product's own tiers, or the global set when the
// product has none.
func EffectiveTiers(product *domain.Product, global []domain.PricingTier) []domain.PricingTier {
	if len(product.Tiers) > 0 {
		return product.Tiers
	}
	return global
}

// QuoteProduct prices quantity units of product with the selected options.
func QuoteProduct(product *domain.Product, global []domain.PricingTier, quantity int, selectedIDs []int64) (Line, []domain.ProductOption, error) {
	options, err := ResolveOptions(product.Options, selectedIDs)
	if err != nil {
		return Line{}, nil, err
	}
	line, err := PriceLine(quantity, product.BasePrice, EffectiveTiers(product, global), Modifiers(options))
	if err != nil {
		return Line{}, nil, err
	}
	return line, options, nil
}
