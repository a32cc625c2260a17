package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is keyed by Owner, either "user:<id>" or "session:<cookie value>".
type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	Owner     string     `bson:"owner" json:"-"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}

// CartItem keeps the unit price as a decimal string so the document store
// never sees a float.
type CartItem struct {
	ID        string    `bson:"item_id" json:"id"`
	ProductID int64     `bson:"product_id" json:"productId"`
	DesignID  *string   `bson:"design_id,omitempty" json:"designId,omitempty"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	OptionIDs []int64   `bson:"option_ids" json:"optionIds"`
	UnitPrice string    `bson:"unit_price" json:"unitPrice"`
	AddedAt   time.Time `bson:"added_at" json:"addedAt"`
}

func (i CartItem) Price() decimal.Decimal {
	p, err := decimal.NewFromString(i.UnitPrice)
	if err != nil {
		return decimal.Zero
	}
	return p
}

func UserCartOwner(userID string) string {
	return "user:" + userID
}

func SessionCartOwner(sessionID string) string {
	return "session:" + sessionID
}
