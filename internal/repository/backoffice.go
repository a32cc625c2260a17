package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

func (r *Repository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO notifications (user_id, audience, type, title, message, order_id, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW())
		 RETURNING id, created_at`,
		n.UserID, string(n.Audience), string(n.Type), n.Title, n.Message, n.OrderID,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns the admin feed when audience is admin, otherwise
// the given user's own notifications.
func (r *Repository) ListNotifications(ctx context.Context, audience domain.Audience, userID string, limit int) ([]*domain.Notification, error) {
	query := `SELECT id, user_id, audience, type, title, message, order_id, is_read, created_at FROM notifications`
	var args []any
	if audience == domain.AudienceAdmin {
		query += ` WHERE audience = 'admin'`
	} else {
		query += ` WHERE audience = 'customer' AND user_id = $1`
		args = append(args, userID)
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*domain.Notification{}
	for rows.Next() {
		var (
			n       domain.Notification
			userCol sql.NullString
			orderID sql.NullString
		)
		if err := rows.Scan(&n.ID, &userCol, &n.Audience, &n.Type, &n.Title, &n.Message, &orderID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if userCol.Valid {
			n.UserID = &userCol.String
		}
		if orderID.Valid {
			n.OrderID = &orderID.String
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return notifications, nil
}

func (r *Repository) MarkNotificationRead(ctx context.Context, id int64, audience domain.Audience, userID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND audience = 'admin'`
	args := []any{id}
	if audience != domain.AudienceAdmin {
		query = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND audience = 'customer' AND user_id = $2`
		args = append(args, userID)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *Repository) LogActivity(ctx context.Context, entry *domain.ActivityLog) error {
	var details any
	if len(entry.Details) > 0 {
		details = []byte(entry.Details)
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO activity_logs (admin_id, action, entity_type, entity_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING id, created_at`,
		entry.AdminID, entry.Action, entry.EntityType, entry.EntityID, details,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

func (r *Repository) ListActivity(ctx context.Context, limit int) ([]*domain.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, admin_id, action, entity_type, entity_id, details, created_at
		 FROM activity_logs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	logs := []*domain.ActivityLog{}
	for rows.Next() {
		var (
			entry   domain.ActivityLog
			details []byte
		)
		if err := rows.Scan(&entry.ID, &entry.AdminID, &entry.Action, &entry.EntityType, &entry.EntityID, &details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		if len(details) > 0 {
			entry.Details = details
		}
		logs = append(logs, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return logs, nil
}

func (r *Repository) GetEmailTemplate(ctx context.Context, key string) (*domain.EmailTemplate, error) {
	var t domain.EmailTemplate
	err := r.db.QueryRowContext(ctx,
		`SELECT key, subject, body, updated_at FROM email_templates WHERE key = $1`, key,
	).Scan(&t.Key, &t.Subject, &t.Body, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query email template: %w", err)
	}
	return &t, nil
}

func (r *Repository) UpsertEmailTemplate(ctx context.Context, t *domain.EmailTemplate) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO email_templates (key, subject, body, updated_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (key) DO UPDATE SET subject = EXCLUDED.subject, body = EXCLUDED.body, updated_at = NOW()
		 RETURNING updated_at`,
		t.Key, t.Subject, t.Body,
	).Scan(&t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert email template: %w", err)
	}
	return nil
}
