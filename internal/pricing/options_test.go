package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

func testOptions() []domain.ProductOption {
	return []domain.ProductOption{
		{ID: 1, Type: domain.OptionMaterial, Name: "Vinyl", PriceModifier: d("0"), IsDefault: true},
		{ID: 2, Type: domain.OptionMaterial, Name: "Holographic", PriceModifier: d("0.15")},
		{ID: 3, Type: domain.OptionCoating, Name: "Gloss", PriceModifier: d("0"), IsDefault: true},
		{ID: 4, Type: domain.OptionCoating, Name: "Matte", PriceModifier: d("0.10")},
		{ID: 5, Type: domain.OptionCut, Name: "Die cut", PriceModifier: d("0.05"), IsDefault: true},
	}
}

func TestResolveOptions_FillsDefaults(t *testing.T) {
	got, err := ResolveOptions(testOptions(), []int64{4})

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4, 5}, OptionIDs(got))
}

func TestResolveOptions_RejectsForeignOption(t *testing.T) {
	_, err := ResolveOptions(testOptions(), []int64{42})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestResolveOptions_RejectsTwoOfSameType(t *testing.T) {
	_, err := ResolveOptions(testOptions(), []int64{1, 2})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestQuoteProduct_UsesGlobalTiersWhenProductHasNone(t *testing.T) {
	product := &domain.Product{BasePrice: d("1.00"), Options: testOptions()}
	global := []domain.PricingTier{tier(100, nil, "0.50")}

	line, options, err := QuoteProduct(product, global, 150, []int64{4})

	require.NoError(t, err)
	assert.Len(t, options, 3)
	// 0.50 tier + 0.10 matte + 0.05 die cut
	assert.Equal(t, "0.65", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "97.50", line.Total.StringFixed(2))
}

func TestQuoteProduct_ProductTiersWin(t *testing.T) {
	product := &domain.Product{
		BasePrice: d("1.00"),
		Tiers:     []domain.PricingTier{tier(100, nil, "0.45")},
	}
	global := []domain.PricingTier{tier(100, nil, "0.50")}

	line, _, err := QuoteProduct(product, global, 100, nil)

	require.NoError(t, err)
	assert.Equal(t, "45.00", line.Total.StringFixed(2))
}
