package domain

import (
	"encoding/json"
	"time"
	"unicode/utf8"
)

type EventType string

const (
	EventOrderPlaced              EventType = "order_placed"
	EventPaymentReceived          EventType = "payment_received"
	EventOrderStatusChanged       EventType = "order_status_changed"
	EventArtworkPendingApproval   EventType = "artwork_pending_approval"
	EventArtworkApproved          EventType = "artwork_approved"
	EventArtworkRevisionRequested EventType = "artwork_revision_requested"
	EventArtworkFlagged           EventType = "artwork_flagged"
	EventArtworkRestored          EventType = "artwork_restored"
)

// ForAdmins reports whether the event is addressed to the back office
// rather than to the customer.
func (t EventType) ForAdmins() bool {
	switch t {
	case EventOrderPlaced, EventArtworkApproved, EventArtworkRevisionRequested:
		return true
	}
	return false
}

// noteExcerptLen bounds how much of a customer note goes into notifications.
const noteExcerptLen = 100

// Event is a side effect of a committed state change, delivered through the outbox.
type Event struct {
	Type          EventType `json:"event_type"`
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	UserID        string    `json:"user_id"`
	CustomerEmail string    `json:"customer_email"`
	CustomerName  string    `json:"customer_name"`
	OldStatus     string    `json:"old_status,omitempty"`
	NewStatus     string    `json:"new_status,omitempty"`
	Note          string    `json:"note,omitempty"`
	Total         string    `json:"total,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewOrderEvent(t EventType, o *Order, at time.Time) Event {
	return Event{
		Type:          t,
		OrderID:       o.ID.String(),
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,
		Total:         o.Total.StringFixed(2),
		OccurredAt:    at,
	}
}

// WithNote attaches at most the first 100 characters of note.
func (e Event) WithNote(note string) Event {
	if utf8.RuneCountInString(note) > noteExcerptLen {
		note = string([]rune(note)[:noteExcerptLen])
	}
	e.Note = note
	return e
}

func (e Event) WithStatus(oldStatus, newStatus string) Event {
	e.OldStatus = oldStatus
	e.NewStatus = newStatus
	return e
}

type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceAdmin    Audience = "admin"
)

type Notification struct {
	ID        int64     `json:"id"`
	UserID    *string   `json:"userId,omitempty"`
	Audience  Audience  `json:"audience"`
	Type      EventType `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	OrderID   *string   `json:"orderId,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type ActivityLog struct {
	ID         int64           `json:"id"`
	AdminID    string          `json:"adminId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type EmailTemplate struct {
	Key       string    `json:"key"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
}
