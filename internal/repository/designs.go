package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

const designColumns = `id, user_id, name, tag, canvas, preview_url, order_id, created_at, updated_at`

func scanDesign(row rowScanner) (*domain.Design, error) {
	var (
		d       domain.Design
		canvas  []byte
		orderID uuid.NullUUID
	)
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Tag,
		&canvas,
		&d.PreviewURL,
		&orderID,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Canvas = canvas
	if orderID.Valid {
		d.OrderID = &orderID.UUID
	}
	return &d, nil
}

func (r *Repository) CreateDesign(ctx context.Context, d *domain.Design) error {
	canvas := []byte(d.Canvas)
	if len(canvas) == 0 {
		canvas = []byte("{}")
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO designs (id, user_id, name, tag, canvas, preview_url, order_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		d.ID, d.UserID, d.Name, string(d.Tag), canvas, d.PreviewURL, d.OrderID,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert design: %w", err)
	}
	return nil
}

func (r *Repository) GetDesign(ctx context.Context, id uuid.UUID) (*domain.Design, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+designColumns+` FROM designs WHERE id = $1`, id)
	d, err := scanDesign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDesignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query design by id: %w", err)
	}
	return d, nil
}

// retagDesign applies the tag through Design.Retag so a flag sticks unless
// approval supersedes it. order_id keeps the first order the design was
// attached to; later orders reference it through order_items.design_id.
func retagDesign(ctx context.Context, tx *sql.Tx, id, orderID uuid.UUID, tag domain.DesignTag) error {
	row := tx.QueryRowContext(ctx, `SELECT `+designColumns+` FROM designs WHERE id = $1 FOR UPDATE`, id)
	d, err := scanDesign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDesignNotFound
	}
	if err != nil {
		return fmt.Errorf("lock design: %w", err)
	}
	if err := d.Retag(tag); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE designs SET tag = $2, order_id = COALESCE(order_id, $3), updated_at = NOW() WHERE id = $1`,
		id, string(d.Tag), orderID)
	if err != nil {
		return fmt.Errorf("update design tag: %w", err)
	}
	return nil
}

func clearDesignFlag(ctx context.Context, tx *sql.Tx, id uuid.UUID, source domain.DesignTag) error {
	row := tx.QueryRowContext(ctx, `SELECT `+designColumns+` FROM designs WHERE id = $1 FOR UPDATE`, id)
	d, err := scanDesign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDesignNotFound
	}
	if err != nil {
		return fmt.Errorf("lock design: %w", err)
	}
	d.ClearFlag(source)
	if _, err := tx.ExecContext(ctx, `UPDATE designs SET tag = $2, updated_at = NOW() WHERE id = $1`, id, string(d.Tag)); err != nil {
		return fmt.Errorf("clear design flag: %w", err)
	}
	return nil
}
