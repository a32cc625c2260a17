package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/logger"
	"github.com/travatlanta/Sticky-sub003/internal/shipping"
)

// BackOfficeService covers the admin settings pages plus the notification inbox.
type BackOfficeService struct {
	templates     TemplateStore
	notifications NotificationStore
	settings      ShippingSettings
	activity      *ActivityRecorder
}

func NewBackOfficeService(templates TemplateStore, notifications NotificationStore, settings ShippingSettings, activity *ActivityRecorder) *BackOfficeService {
	return &BackOfficeService{
		templates:     templates,
		notifications: notifications,
		settings:      settings,
		activity:      activity,
	}
}

func (s *BackOfficeService) GetTemplate(ctx context.Context, actor domain.Actor, key string) (*domain.EmailTemplate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.templates.GetEmailTemplate(ctx, key)
}

func (s *BackOfficeService) PutTemplate(ctx context.Context, actor domain.Actor, t *domain.EmailTemplate) (*domain.EmailTemplate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(t.Key) == "" || strings.TrimSpace(t.Subject) == "" {
		return nil, fmt.Errorf("%w: template key and subject are required", domain.ErrValidation)
	}
	if err := s.templates.UpsertEmailTemplate(ctx, t); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, "update", "email_template", t.Key, nil)
	return t, nil
}

func (s *BackOfficeService) ShippingSettings(ctx context.Context, actor domain.Actor) (shipping.Settings, error) {
	if err := requireAdmin(actor); err != nil {
		return shipping.Settings{}, err
	}
	return s.settings.Load(), nil
}

func (s *BackOfficeService) SaveShippingSettings(ctx context.Context, actor domain.Actor, settings shipping.Settings) (shipping.Settings, error) {
	if err := requireAdmin(actor); err != nil {
		return shipping.Settings{}, err
	}
	if err := s.settings.Save(settings); err != nil {
		return shipping.Settings{}, err
	}
	logger.FromContext(ctx).Info().
		Str("shipping_cost", settings.ShippingCost.String()).
		Bool("free_shipping", settings.FreeShipping).
		Bool("automatic_shipping", settings.AutomaticShipping).
		Msg("shipping settings saved")
	s.activity.Record(ctx, actor, "update", "settings", "shipping", settings)
	return settings, nil
}

func (s *BackOfficeService) ActivityLog(ctx context.Context, actor domain.Actor, limit int) ([]*domain.ActivityLog, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.activity.List(ctx, limit)
}

// Notifications lists the admin inbox for admins and the caller's own
// notifications otherwise.
func (s *BackOfficeService) Notifications(ctx context.Context, actor domain.Actor, limit int) ([]*domain.Notification, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.notifications.ListNotifications(ctx, audienceOf(actor), actor.UserID, limit)
}

func (s *BackOfficeService) MarkNotificationRead(ctx context.Context, actor domain.Actor, id int64) error {
	if actor.UserID == "" {
		return domain.ErrUnauthorized
	}
	return s.notifications.MarkNotificationRead(ctx, id, audienceOf(actor), actor.UserID)
}

func audienceOf(actor domain.Actor) domain.Audience {
	if actor.IsAdmin() {
		return domain.AudienceAdmin
	}
	return domain.AudienceCustomer
}
