package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

const dealColumns = `id, title, description, product_id, image_url, quantity, price, original_price,
	is_active, show_on_home, display_order, starts_at, ends_at, created_at, updated_at`

func scanDeal(row rowScanner) (*domain.Deal, error) {
	var (
		d         domain.Deal
		productID sql.NullInt64
		original  decimal.NullDecimal
		startsAt  sql.NullTime
		endsAt    sql.NullTime
	)
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&productID,
		&d.ImageURL,
		&d.Quantity,
		&d.Price,
		&original,
		&d.IsActive,
		&d.ShowOnHome,
		&d.DisplayOrder,
		&startsAt,
		&endsAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if productID.Valid {
		d.ProductID = &productID.Int64
	}
	if original.Valid {
		d.OriginalPrice = &original.Decimal
	}
	if startsAt.Valid {
		d.StartsAt = &startsAt.Time
	}
	if endsAt.Valid {
		d.EndsAt = &endsAt.Time
	}
	return &d, nil
}

// ListDeals returns every deal when activeOnly is false, otherwise only
// active deals whose validity window contains the current time.
func (r *Repository) ListDeals(ctx context.Context, activeOnly bool) ([]*domain.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals`
	if activeOnly {
		query += ` WHERE is_active AND (starts_at IS NULL OR starts_at <= NOW()) AND (ends_at IS NULL OR ends_at >= NOW())`
	}
	query += ` ORDER BY display_order, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	deals := []*domain.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return deals, nil
}

func (r *Repository) GetDeal(ctx context.Context, id int64) (*domain.Deal, error) {
	d, err := scanDeal(r.db.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query deal: %w", err)
	}
	return d, nil
}

func (r *Repository) CreateDeal(ctx context.Context, d *domain.Deal) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO deals (title, description, product_id, image_url, quantity, price, original_price,
		     is_active, show_on_home, display_order, starts_at, ends_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		 RETURNING id, created_at, updated_at`,
		d.Title, d.Description, d.ProductID, d.ImageURL, d.Quantity, d.Price, nullDecimal(d.OriginalPrice),
		d.IsActive, d.ShowOnHome, d.DisplayOrder, d.StartsAt, d.EndsAt,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert deal: %w", err)
	}
	return nil
}

func (r *Repository) UpdateDeal(ctx context.Context, d *domain.Deal) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE deals
		 SET title = $2, description = $3, product_id = $4, image_url = $5, quantity = $6, price = $7,
		     original_price = $8, is_active = $9, show_on_home = $10, display_order = $11,
		     starts_at = $12, ends_at = $13, updated_at = NOW()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		d.ID, d.Title, d.Description, d.ProductID, d.ImageURL, d.Quantity, d.Price, nullDecimal(d.OriginalPrice),
		d.IsActive, d.ShowOnHome, d.DisplayOrder, d.StartsAt, d.EndsAt,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDealNotFound
	}
	if err != nil {
		return fmt.Errorf("update deal: %w", err)
	}
	return nil
}

func (r *Repository) DeleteDeal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDealNotFound
	}
	return nil
}
