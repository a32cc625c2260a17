package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const artworkNoteSeparator = "\n---\n"

type Address struct {
	Name    string `json:"name"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country,omitempty"`
}

type OrderItem struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	DesignID    *uuid.UUID      `json:"designId,omitempty"`
	Quantity    int             `json:"quantity"`
	OptionIDs   []int64         `json:"optionIds"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// Order is an immutable snapshot of priced lines plus two independent
// status tracks: fulfilment (Status) and design approval (ArtworkStatus).
type Order struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          string          `json:"userId"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerName    string          `json:"customerName"`
	Status          OrderStatus     `json:"status"`
	ArtworkStatus   ArtworkStatus   `json:"artworkStatus"`
	ArtworkNotes    string          `json:"artworkNotes"`
	AdminDesignID   *uuid.UUID      `json:"adminDesignId,omitempty"`
	ShippingAddress Address         `json:"shippingAddress"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
	Tax             decimal.Decimal `json:"tax"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	PromotionCode   *string         `json:"promotionCode,omitempty"`
	PaymentID       *string         `json:"paymentId,omitempty"`
	Items           []OrderItem     `json:"items"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// AppendArtworkNote adds an attributed, timestamped entry to the running
// notes log. Existing entries are never rewritten.
func (o *Order) AppendArtworkNote(author, note string, at time.Time) {
	entry := fmt.Sprintf("[%s] %s: %s", at.UTC().Format(time.RFC3339), author, note)
	if o.ArtworkNotes == "" {
		o.ArtworkNotes = entry
		return
	}
	o.ArtworkNotes += artworkNoteSeparator + entry
}

// NewOrderNumber returns a short human-facing reference.
func NewOrderNumber(id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("STK-%s-%s", at.UTC().Format("060102"), id.String()[:6])
}
