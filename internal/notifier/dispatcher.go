package notifier

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
}

// Dispatcher turns lifecycle events into in-app notifications and emails.
// Notify and Email are separate so a caller can retry one without repeating
// the other.
type Dispatcher struct {
	notifications   NotificationStore
	templates       TemplateStore
	sender          EmailSender
	adminRecipients []string
	log             zerolog.Logger
}

func NewDispatcher(notifications NotificationStore, templates TemplateStore, sender EmailSender, adminRecipients []string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		notifications:   notifications,
		templates:       templates,
		sender:          sender,
		adminRecipients: adminRecipients,
		log:             log.With().Str("component", "notifier").Logger(),
	}
}

func (d *Dispatcher) Notify(ctx context.Context, event domain.Event) error {
	n := &domain.Notification{
		Audience: domain.AudienceCustomer,
		Type:     event.Type,
		Title:    title(event),
		Message:  summary(event),
	}
	if event.OrderID != "" {
		orderID := event.OrderID
		n.OrderID = &orderID
	}
	if event.Type.ForAdmins() {
		n.Audience = domain.AudienceAdmin
	} else {
		if event.UserID == "" {
			return nil
		}
		userID := event.UserID
		n.UserID = &userID
	}
	if err := d.notifications.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (d *Dispatcher) Email(ctx context.Context, event domain.Event) error {
	to := d.recipients(event)
	if len(to) == 0 {
		d.log.Debug().Str("event_type", string(event.Type)).Str("order_id", event.OrderID).Msg("no email recipients")
		return nil
	}
	msg, err := render(ctx, d.templates, event)
	if err != nil {
		return err
	}
	return d.sender.Send(ctx, Email{To: to, Subject: msg.Subject, Text: msg.Body})
}

func (d *Dispatcher) recipients(event domain.Event) []string {
	if event.Type.ForAdmins() {
		return d.adminRecipients
	}
	if event.CustomerEmail == "" {
		return nil
	}
	return []string{event.CustomerEmail}
}

func title(event domain.Event) string {
	switch event.Type {
	case domain.EventOrderPlaced:
		return "New order received"
	case domain.EventPaymentReceived:
		return "Payment received"
	case domain.EventOrderStatusChanged:
		return "Order status updated"
	case domain.EventArtworkPendingApproval:
		return "Design ready for approval"
	case domain.EventArtworkApproved:
		return "Artwork approved"
	case domain.EventArtworkRevisionRequested:
		return "Revision requested"
	case domain.EventArtworkFlagged:
		return "Artwork needs attention"
	case domain.EventArtworkRestored:
		return "Original artwork restored"
	}
	return string(event.Type)
}

func summary(event domain.Event) string {
	switch event.Type {
	case domain.EventOrderPlaced:
		return fmt.Sprintf("Order %s placed by %s for $%s", event.OrderNumber, event.CustomerName, event.Total)
	case domain.EventOrderStatusChanged:
		return fmt.Sprintf("Order %s is now %s", event.OrderNumber, event.NewStatus)
	case domain.EventArtworkRevisionRequested, domain.EventArtworkFlagged:
		if event.Note != "" {
			return fmt.Sprintf("Order %s: %s", event.OrderNumber, event.Note)
		}
	}
	return fmt.Sprintf("%s for order %s", title(event), event.OrderNumber)
}
