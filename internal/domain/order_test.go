package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendArtworkNote_AppendsWithSeparator(t *testing.T) {
	o := &Order{}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	o.AppendArtworkNote("Customer", "make the logo bigger", at)
	assert.Equal(t, "[2026-03-01T12:00:00Z] Customer: make the logo bigger", o.ArtworkNotes)

	o.AppendArtworkNote("Admin", "resized", at.Add(time.Hour))
	parts := strings.Split(o.ArtworkNotes, "\n---\n")
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0], "make the logo bigger")
	assert.Equal(t, "[2026-03-01T13:00:00Z] Admin: resized", parts[1])
}

func TestEventWithNote_Truncates(t *testing.T) {
	long := strings.Repeat("a", 150)
	e := Event{}.WithNote(long)
	assert.Len(t, e.Note, 100)

	short := Event{}.WithNote("fine")
	assert.Equal(t, "fine", short.Note)
}

func TestNewOrderNumber(t *testing.T) {
	id := uuid.MustParse("0b7e2d9a-1111-4222-8333-444455556666")
	n := NewOrderNumber(id, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "STK-261019-0b7e2d", n)
}

func TestDesignRetag(t *testing.T) {
	d := &Design{ID: uuid.New(), Tag: DesignTagCustomerUpload}

	require.NoError(t, d.Retag(DesignTagFlagged))
	assert.ErrorIs(t, d.Retag(DesignTagCustomerUpload), ErrConflict, "flag sticks")

	d.ClearFlag(DesignTagCustomerUpload)
	assert.Equal(t, DesignTagCustomerUpload, d.Tag)

	require.NoError(t, d.Retag(DesignTagFlagged))
	require.NoError(t, d.Retag(DesignTagApproved), "approval clears a flag")
	assert.Equal(t, DesignTagApproved, d.Tag)

	require.NoError(t, d.Retag(DesignTagCustomerUpload), "approved design reused on a new order")
	assert.Equal(t, DesignTagApproved, d.Tag)
	require.NoError(t, d.Retag(DesignTagAdminDesign))
	assert.Equal(t, DesignTagApproved, d.Tag)
	assert.ErrorIs(t, d.Retag(DesignTagNone), ErrConflict)
}

func TestPromotion_CheckUsable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	maxUses := 1
	minAmount := decimal.NewFromInt(20)

	p := Promotion{Code: "SAVE", IsActive: true, EndsAt: &past}
	assert.ErrorIs(t, p.CheckUsable(now, decimal.NewFromInt(50), 0), ErrValidation)

	p = Promotion{Code: "SAVE", IsActive: true, MaxUses: &maxUses, UsedCount: 1}
	assert.ErrorIs(t, p.CheckUsable(now, decimal.NewFromInt(50), 0), ErrConflict)

	p = Promotion{Code: "SAVE", IsActive: true, MaxUsesPerUser: &maxUses}
	assert.ErrorIs(t, p.CheckUsable(now, decimal.NewFromInt(50), 1), ErrConflict)

	p = Promotion{Code: "SAVE", IsActive: true, MinOrderAmount: &minAmount}
	assert.ErrorIs(t, p.CheckUsable(now, decimal.NewFromInt(10), 0), ErrValidation)
	assert.NoError(t, p.CheckUsable(now, decimal.NewFromInt(25), 0))
}

func TestPromotion_DiscountFor(t *testing.T) {
	pct := Promotion{DiscountType: DiscountPercentage, Value: decimal.NewFromInt(15)}
	assert.Equal(t, "15.00", pct.DiscountFor(decimal.NewFromInt(100)).StringFixed(2))

	flat := Promotion{DiscountType: DiscountFlat, Value: decimal.NewFromInt(30)}
	assert.Equal(t, "20.00", flat.DiscountFor(decimal.NewFromInt(20)).StringFixed(2))
}
