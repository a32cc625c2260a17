package service

import (
	"context"
	"encoding/json"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/logger"
)

// ActivityRecorder appends admin mutations to the activity log. Failures are
// logged and never surface to the caller.
type ActivityRecorder struct {
	store ActivityStore
}

func NewActivityRecorder(store ActivityStore) *ActivityRecorder {
	return &ActivityRecorder{store: store}
}

func (r *ActivityRecorder) Record(ctx context.Context, actor domain.Actor, action, entityType, entityID string, details any) {
	entry := &domain.ActivityLog{
		AdminID:    actor.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = raw
		}
	}
	if err := r.store.LogActivity(ctx, entry); err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("action", action).
			Str("entity_id", entityID).
			Msg("failed to record admin activity")
	}
}

func (r *ActivityRecorder) List(ctx context.Context, limit int) ([]*domain.ActivityLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return r.store.ListActivity(ctx, limit)
}

func requireAdmin(actor domain.Actor) error {
	if actor.UserID == "" {
		return domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}
