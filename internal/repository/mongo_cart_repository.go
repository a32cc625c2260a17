package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

var (
	ErrCartNotFound = fmt.Errorf("cart %w", domain.ErrNotFound)
	ErrItemNotFound = fmt.Errorf("cart item %w", domain.ErrNotFound)
)

// CartRepository stores carts keyed by owner ("user:<id>" or "session:<id>").
type CartRepository interface {
	GetCart(ctx context.Context, owner string) (*domain.Cart, error)
	AddItem(ctx context.Context, owner string, item domain.CartItem) error
	UpdateItem(ctx context.Context, owner, itemID string, quantity int, unitPrice string) error
	RemoveItem(ctx context.Context, owner, itemID string) error
	DeleteCart(ctx context.Context, owner string) error
}

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoCartRepository) GetCart(ctx context.Context, owner string) (*domain.Cart, error) {
	var cart domain.Cart

	err := m.collection.FindOne(ctx, bson.M{"owner": owner}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

// AddItem appends a line, creating the cart on first use.
func (m *mongoCartRepository) AddItem(ctx context.Context, owner string, item domain.CartItem) error {
	now := time.Now().UTC()
	item.AddedAt = now
	if item.OptionIDs == nil {
		item.OptionIDs = []int64{}
	}

	update := bson.M{
		"$push":        bson.M{"items": item},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := m.collection.UpdateOne(ctx, bson.M{"owner": owner}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	return nil
}

func (m *mongoCartRepository) UpdateItem(ctx context.Context, owner, itemID string, quantity int, unitPrice string) error {
	filter := bson.M{
		"owner":         owner,
		"items.item_id": itemID,
	}
	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity":   quantity,
			"items.$[elem].unit_price": unitPrice,
			"updated_at":               time.Now().UTC(),
		},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.item_id": itemID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *mongoCartRepository) RemoveItem(ctx context.Context, owner, itemID string) error {
	filter := bson.M{
		"owner":         owner,
		"items.item_id": itemID,
	}
	update := bson.M{
		"$pull": bson.M{"items": bson.M{"item_id": itemID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *mongoCartRepository) DeleteCart(ctx context.Context, owner string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"owner": owner})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

// CreateIndexes enforces one cart per owner and expires idle carts.
func (m *mongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(30 * 24 * 60 * 60),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// EnsureCartIndexes creates the cart collection indexes.
func EnsureCartIndexes(ctx context.Context, repo CartRepository) error {
	m, ok := repo.(*mongoCartRepository)
	if !ok {
		return nil
	}
	return m.CreateIndexes(ctx)
}
