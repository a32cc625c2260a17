package notifier

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

type TemplateStore interface {
	GetEmailTemplate(ctx context.Context, key string) (*domain.EmailTemplate, error)
}

type message struct {
	Subject string
	Body    string
}

// defaultTemplates apply when an event has no stored template. Keys are event types.
var defaultTemplates = map[domain.EventType]message{
	domain.EventOrderPlaced: {
		Subject: "New order {{.OrderNumber}}",
		Body:    "{{.CustomerName}} placed order {{.OrderNumber}} for ${{.Total}}.",
	},
	domain.EventPaymentReceived: {
		Subject: "Payment received for order {{.OrderNumber}}",
		Body:    "Thanks! We received your payment of ${{.Total}} for order {{.OrderNumber}}.",
	},
	domain.EventOrderStatusChanged: {
		Subject: "Order {{.OrderNumber}} is now {{.NewStatus}}",
		Body:    "Your order {{.OrderNumber}} moved from {{.OldStatus}} to {{.NewStatus}}.",
	},
	domain.EventArtworkPendingApproval: {
		Subject: "Your proof for order {{.OrderNumber}} is ready",
		Body:    "We prepared a design for order {{.OrderNumber}}. Please review it and approve or request changes.",
	},
	domain.EventArtworkApproved: {
		Subject: "Artwork approved for order {{.OrderNumber}}",
		Body:    "The customer approved the artwork for order {{.OrderNumber}}. It is ready for production.",
	},
	domain.EventArtworkRevisionRequested: {
		Subject: "Revision requested for order {{.OrderNumber}}",
		Body:    "The customer asked for changes on order {{.OrderNumber}}: {{.Note}}",
	},
	domain.EventArtworkFlagged: {
		Subject: "We found an issue with your artwork for order {{.OrderNumber}}",
		Body:    "Our team flagged the artwork on order {{.OrderNumber}}.{{if .Note}} Details: {{.Note}}{{end}} Please upload a new file.",
	},
	domain.EventArtworkRestored: {
		Subject: "Your original artwork is back on order {{.OrderNumber}}",
		Body:    "We restored your original artwork on order {{.OrderNumber}}.",
	},
}

// render fills the stored template for the event, falling back to the
// built-in one when none is stored or the stored one is broken.
func render(ctx context.Context, store TemplateStore, event domain.Event) (message, error) {
	if store != nil {
		if t, err := store.GetEmailTemplate(ctx, string(event.Type)); err == nil {
			if msg, err := execute(message{Subject: t.Subject, Body: t.Body}, event); err == nil {
				return msg, nil
			}
		}
	}
	def, ok := defaultTemplates[event.Type]
	if !ok {
		return message{}, fmt.Errorf("no template for event %s", event.Type)
	}
	return execute(def, event)
}

func execute(tmpl message, event domain.Event) (message, error) {
	subject, err := executeOne("subject", tmpl.Subject, event)
	if err != nil {
		return message{}, err
	}
	body, err := executeOne("body", tmpl.Body, event)
	if err != nil {
		return message{}, err
	}
	return message{Subject: subject, Body: body}, nil
}

func executeOne(name, text string, event domain.Event) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, event); err != nil {
		return "", fmt.Errorf("execute %s template: %w", name, err)
	}
	return buf.String(), nil
}
