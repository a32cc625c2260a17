package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
)

const owner = "user:user-1"

func TestGetCart_Success(t *testing.T) {
	mockRepo := &mockCartRepository{cart: &domain.Cart{
		Owner: owner,
		Items: []domain.CartItem{{ID: "a", ProductID: 1, Quantity: 5, UnitPrice: "1.0000"}},
	}}
	mockC := &mockCartCache{}

	sut := NewCartService(mockRepo, mockC, newMockCatalog(stickerProduct()), newMockDesignStore())
	ret, err := sut.GetCart(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, ret.Items, 1)
	assert.Equal(t, int64(1), ret.Items[0].ProductID)

	require.Eventually(t, func() bool {
		return mockC.getCart() != nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cart was not set in cache")
}

func TestGetCart_CacheHit(t *testing.T) {
	mockRepo := &mockCartRepository{err: fmt.Errorf("repo must not be called")}
	mockC := &mockCartCache{cart: &domain.Cart{Owner: owner, Items: []domain.CartItem{{ID: "a", ProductID: 1, Quantity: 3}}}}

	sut := NewCartService(mockRepo, mockC, newMockCatalog(), newMockDesignStore())
	ret, err := sut.GetCart(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, ret.Items, 1)
}

func TestGetCart_NotFoundReturnsEmptyCart(t *testing.T) {
	sut := NewCartService(&mockCartRepository{}, &mockCartCache{}, newMockCatalog(), newMockDesignStore())
	ret, err := sut.GetCart(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, owner, ret.Owner)
	assert.Empty(t, ret.Items)
}

func TestGetCart_RepoError(t *testing.T) {
	mockC := &mockCartCache{}
	sut := NewCartService(&mockCartRepository{err: fmt.Errorf("database error")}, mockC, newMockCatalog(), newMockDesignStore())
	ret, err := sut.GetCart(context.Background(), owner)
	require.ErrorContains(t, err, "database error")
	assert.Nil(t, ret)
	assert.Nil(t, mockC.getCart())
}

func TestAddItem_SnapshotsTierPrice(t *testing.T) {
	mockRepo := &mockCartRepository{}
	mockC := &mockCartCache{cart: &domain.Cart{Owner: owner}}

	sut := NewCartService(mockRepo, mockC, newMockCatalog(stickerProduct()), newMockDesignStore())
	cart, err := sut.AddItem(context.Background(), customer, owner, AddItemRequest{ProductID: 1, Quantity: 150, OptionIDs: []int64{10}})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "0.6000", cart.Items[0].UnitPrice)
	assert.Equal(t, []int64{10}, cart.Items[0].OptionIDs)
	assert.NotEmpty(t, cart.Items[0].ID)
}

func TestAddItem_Rejections(t *testing.T) {
	inactive := stickerProduct()
	inactive.ID = 2
	inactive.IsActive = false
	bad := "not-a-uuid"

	tests := []struct {
		name    string
		req     AddItemRequest
		wantErr error
	}{
		{"zero quantity", AddItemRequest{ProductID: 1, Quantity: 0}, domain.ErrValidation},
		{"unknown option", AddItemRequest{ProductID: 1, Quantity: 1, OptionIDs: []int64{99}}, domain.ErrValidation},
		{"inactive product", AddItemRequest{ProductID: 2, Quantity: 1}, domain.ErrValidation},
		{"missing product", AddItemRequest{ProductID: 42, Quantity: 1}, repository.ErrProductNotFound},
		{"bad design id", AddItemRequest{ProductID: 1, Quantity: 1, DesignID: &bad}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockCartRepository{}
			sut := NewCartService(mockRepo, &mockCartCache{}, newMockCatalog(stickerProduct(), inactive), newMockDesignStore())
			_, err := sut.AddItem(context.Background(), customer, owner, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, mockRepo.cart, "nothing was written")
		})
	}
}

func TestUpdateQuantity_RepricesLine(t *testing.T) {
	mockRepo := &mockCartRepository{cart: &domain.Cart{
		Owner: owner,
		Items: []domain.CartItem{{ID: "a", ProductID: 1, Quantity: 10, UnitPrice: "1.0000"}},
	}}
	mockC := &mockCartCache{cart: mockRepo.cart}

	sut := NewCartService(mockRepo, mockC, newMockCatalog(stickerProduct()), newMockDesignStore())
	cart, err := sut.UpdateQuantity(context.Background(), owner, "a", 200)
	require.NoError(t, err)
	assert.Equal(t, 200, cart.Items[0].Quantity)
	assert.Equal(t, "0.5000", cart.Items[0].UnitPrice, "quantity moved into the 100-999 tier")
}

func TestUpdateQuantity_UnknownItem(t *testing.T) {
	mockRepo := &mockCartRepository{cart: &domain.Cart{Owner: owner}}
	sut := NewCartService(mockRepo, &mockCartCache{}, newMockCatalog(stickerProduct()), newMockDesignStore())
	_, err := sut.UpdateQuantity(context.Background(), owner, "missing", 2)
	assert.ErrorIs(t, err, repository.ErrItemNotFound)
}

func TestRemoveItem_InvalidatesCache(t *testing.T) {
	mockRepo := &mockCartRepository{cart: &domain.Cart{
		Owner: owner,
		Items: []domain.CartItem{{ID: "a", ProductID: 1, Quantity: 1}, {ID: "b", ProductID: 1, Quantity: 2}},
	}}
	mockC := &mockCartCache{cart: mockRepo.cart}

	sut := NewCartService(mockRepo, mockC, newMockCatalog(), newMockDesignStore())
	cart, err := sut.RemoveItem(context.Background(), owner, "a")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "b", cart.Items[0].ID)
}

func TestClearCart(t *testing.T) {
	mockRepo := &mockCartRepository{cart: &domain.Cart{Owner: owner, Items: []domain.CartItem{{ID: "a"}}}}
	mockC := &mockCartCache{cart: mockRepo.cart}

	sut := NewCartService(mockRepo, mockC, newMockCatalog(), newMockDesignStore())
	require.NoError(t, sut.ClearCart(context.Background(), owner))
	assert.Nil(t, mockRepo.cart)
	assert.Nil(t, mockC.getCart())

	require.NoError(t, sut.ClearCart(context.Background(), owner), "clearing a missing cart is a no-op")
}

func TestClearCart_RepoError(t *testing.T) {
	sut := NewCartService(&mockCartRepository{err: fmt.Errorf("database error")}, &mockCartCache{}, newMockCatalog(), newMockDesignStore())
	require.ErrorContains(t, sut.ClearCart(context.Background(), owner), "database error")
}

func TestClearCartPlacedBefore(t *testing.T) {
	placed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	t.Run("clears a cart untouched since checkout", func(t *testing.T) {
		mockRepo := &mockCartRepository{cart: &domain.Cart{Owner: owner, UpdatedAt: placed.Add(-time.Minute)}}
		sut := NewCartService(mockRepo, &mockCartCache{}, newMockCatalog(), newMockDesignStore())

		cleared, err := sut.ClearCartPlacedBefore(context.Background(), owner, placed)
		require.NoError(t, err)
		assert.True(t, cleared)
		assert.Nil(t, mockRepo.cart)
	})

	t.Run("keeps a cart started after checkout", func(t *testing.T) {
		mockRepo := &mockCartRepository{cart: &domain.Cart{Owner: owner, UpdatedAt: placed.Add(time.Minute)}}
		sut := NewCartService(mockRepo, &mockCartCache{}, newMockCatalog(), newMockDesignStore())

		cleared, err := sut.ClearCartPlacedBefore(context.Background(), owner, placed)
		require.NoError(t, err)
		assert.False(t, cleared)
		assert.NotNil(t, mockRepo.cart)
	})

	t.Run("missing cart", func(t *testing.T) {
		sut := NewCartService(&mockCartRepository{}, &mockCartCache{}, newMockCatalog(), newMockDesignStore())

		cleared, err := sut.ClearCartPlacedBefore(context.Background(), owner, placed)
		require.NoError(t, err)
		assert.False(t, cleared)
	})
}

func TestAddItem_DesignMustBelongToActor(t *testing.T) {
	mine := &domain.Design{ID: uuid.New(), UserID: customer.UserID}
	theirs := &domain.Design{ID: uuid.New(), UserID: stranger.UserID}
	missing := uuid.NewString()
	mineID, theirsID := mine.ID.String(), theirs.ID.String()

	tests := []struct {
		name     string
		actor    domain.Actor
		designID *string
		wantErr  error
	}{
		{"own design", customer, &mineID, nil},
		{"admin may attach any design", admin, &theirsID, nil},
		{"unknown design", customer, &missing, domain.ErrValidation},
		{"another customer's design", customer, &theirsID, domain.ErrForbidden},
		{"guest", domain.Actor{}, &mineID, domain.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockCartRepository{}
			sut := NewCartService(mockRepo, &mockCartCache{}, newMockCatalog(stickerProduct()), newMockDesignStore(mine, theirs))

			cart, err := sut.AddItem(context.Background(), tt.actor, owner, AddItemRequest{ProductID: 1, Quantity: 10, DesignID: tt.designID})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, mockRepo.cart, "nothing was written")
				return
			}
			require.NoError(t, err)
			require.Len(t, cart.Items, 1)
			assert.Equal(t, *tt.designID, *cart.Items[0].DesignID)
		})
	}
}

func TestAdoptCart_MovesGuestLines(t *testing.T) {
	guest := domain.SessionCartOwner("guest-123")
	store := newOwnerCartRepository()
	store.carts[guest] = &domain.Cart{Owner: guest, Items: []domain.CartItem{
		{ID: "g1", ProductID: 1, Quantity: 50, UnitPrice: "1.0000"},
		{ID: "g2", ProductID: 1, Quantity: 5, UnitPrice: "1.0000"},
	}}
	store.carts[owner] = &domain.Cart{Owner: owner, Items: []domain.CartItem{{ID: "u1", ProductID: 1, Quantity: 1}}}
	mockC := &mockCartCache{cart: store.carts[owner]}

	sut := NewCartService(store, mockC, newMockCatalog(), newMockDesignStore())
	moved, err := sut.AdoptCart(context.Background(), guest, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	assert.NotContains(t, store.carts, guest, "guest cart deleted")
	var ids []string
	for _, item := range store.carts[owner].Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"u1", "g1", "g2"}, ids)
	assert.Nil(t, mockC.getCart(), "cached cart invalidated")
}

func TestAdoptCart_NoGuestCart(t *testing.T) {
	store := newOwnerCartRepository()
	sut := NewCartService(store, &mockCartCache{}, newMockCatalog(), newMockDesignStore())

	moved, err := sut.AdoptCart(context.Background(), domain.SessionCartOwner("gone"), owner)
	require.NoError(t, err)
	assert.Zero(t, moved)
	assert.Empty(t, store.carts)
}

func TestAdoptCart_WriteFailureKeepsGuestCart(t *testing.T) {
	guest := domain.SessionCartOwner("guest-123")
	store := newOwnerCartRepository()
	store.carts[guest] = &domain.Cart{Owner: guest, Items: []domain.CartItem{{ID: "g1", ProductID: 1, Quantity: 5}}}
	store.addErr = fmt.Errorf("write conflict")

	sut := NewCartService(store, &mockCartCache{}, newMockCatalog(), newMockDesignStore())
	_, err := sut.AdoptCart(context.Background(), guest, owner)
	require.ErrorContains(t, err, "write conflict")
	assert.Contains(t, store.carts, guest)
}
