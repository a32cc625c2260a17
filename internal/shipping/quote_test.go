package shipping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func settings(cost string, free, automatic bool) Settings {
	return Settings{ShippingCost: d(cost), FreeShipping: free, AutomaticShipping: automatic}
}

func TestComputeQuote(t *testing.T) {
	tests := []struct {
		name     string
		items    []Item
		state    string
		settings Settings
		want     string
		wantMult string
	}{
		{
			name:     "empty cart",
			settings: settings("5.99", false, false),
			want:     "0.00",
			wantMult: "1",
		},
		{
			name:     "free shipping overrides everything",
			items:    []Item{{Quantity: 3, ShippingType: domain.ShippingFlat, FlatShippingPrice: d("5")}},
			state:    "AK",
			settings: settings("5.99", true, true),
			want:     "0.00",
			wantMult: "1",
		},
		{
			name:     "flat item charged per unit",
			items:    []Item{{Quantity: 3, ShippingType: domain.ShippingFlat, FlatShippingPrice: d("5")}},
			settings: settings("5.99", false, false),
			want:     "15.00",
			wantMult: "1",
		},
		{
			name: "calculated items charged once without automatic shipping",
			items: []Item{
				{Quantity: 1, ShippingType: domain.ShippingCalculated},
				{Quantity: 4, ShippingType: domain.ShippingCalculated},
			},
			settings: settings("5.99", false, false),
			want:     "5.99",
			wantMult: "1",
		},
		{
			name: "automatic shipping charges per unit",
			items: []Item{
				{Quantity: 1, ShippingType: domain.ShippingCalculated},
				{Quantity: 4, ShippingType: ""},
			},
			settings: settings("2", false, true),
			want:     "10.00",
			wantMult: "1",
		},
		{
			name:     "free items contribute nothing",
			items:    []Item{{Quantity: 10, ShippingType: domain.ShippingFree}},
			settings: settings("5.99", false, true),
			want:     "0.00",
			wantMult: "1",
		},
		{
			name: "mixed flat and calculated",
			items: []Item{
				{Quantity: 2, ShippingType: domain.ShippingFlat, FlatShippingPrice: d("1.50")},
				{Quantity: 7, ShippingType: domain.ShippingCalculated},
			},
			settings: settings("4", false, false),
			want:     "7.00",
			wantMult: "1",
		},
		{
			name:     "remote state multiplier",
			items:    []Item{{Quantity: 1, ShippingType: domain.ShippingCalculated}},
			state:    "AK",
			settings: settings("5.99", false, false),
			want:     "8.99",
			wantMult: "1.5",
		},
		{
			name:     "full state name",
			items:    []Item{{Quantity: 1, ShippingType: domain.ShippingCalculated}},
			state:    "hawaii",
			settings: settings("10", false, false),
			want:     "15.00",
			wantMult: "1.5",
		},
		{
			name:     "contiguous state",
			items:    []Item{{Quantity: 1, ShippingType: domain.ShippingCalculated}},
			state:    "AZ",
			settings: settings("5.99", false, false),
			want:     "5.99",
			wantMult: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ComputeQuote(tt.items, Address{State: tt.state}, tt.settings)
			assert.Equal(t, tt.want, q.ShippingCost.StringFixed(2))
			assert.True(t, q.LocationMultiplier.Equal(d(tt.wantMult)), "multiplier %s", q.LocationMultiplier)
		})
	}
}

func TestComputeQuote_FlatItemWithZeroQuantityChargedOnce(t *testing.T) {
	q := ComputeQuote([]Item{{Quantity: 0, ShippingType: domain.ShippingFlat, FlatShippingPrice: d("3")}}, Address{}, settings("5", false, false))
	assert.Equal(t, "3.00", q.ShippingCost.StringFixed(2))
}
