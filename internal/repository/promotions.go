package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

const promotionColumns = `id, code, description, discount_type, value, min_order_amount, max_uses,
	max_uses_per_user, used_count, starts_at, ends_at, is_active, created_at, updated_at`

func scanPromotion(row rowScanner) (*domain.Promotion, error) {
	var (
		p          domain.Promotion
		minAmount  decimal.NullDecimal
		maxUses    sql.NullInt32
		maxPerUser sql.NullInt32
		startsAt   sql.NullTime
		endsAt     sql.NullTime
	)
	if err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Description,
		&p.DiscountType,
		&p.Value,
		&minAmount,
		&maxUses,
		&maxPerUser,
		&p.UsedCount,
		&startsAt,
		&endsAt,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if minAmount.Valid {
		p.MinOrderAmount = &minAmount.Decimal
	}
	p.MaxUses = nullIntPtr(maxUses)
	p.MaxUsesPerUser = nullIntPtr(maxPerUser)
	if startsAt.Valid {
		p.StartsAt = &startsAt.Time
	}
	if endsAt.Valid {
		p.EndsAt = &endsAt.Time
	}
	return &p, nil
}

func (r *Repository) ListPromotions(ctx context.Context) ([]*domain.Promotion, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+promotionColumns+` FROM promotions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query promotions: %w", err)
	}
	defer rows.Close()

	promotions := []*domain.Promotion{}
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		promotions = append(promotions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return promotions, nil
}

func (r *Repository) GetPromotion(ctx context.Context, id int64) (*domain.Promotion, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id)
	return wrapPromotion(scanPromotion(row))
}

// GetPromotionByCode matches codes case-insensitively.
func (r *Repository) GetPromotionByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+promotionColumns+` FROM promotions WHERE code = $1`, normalizeCode(code))
	return wrapPromotion(scanPromotion(row))
}

func wrapPromotion(p *domain.Promotion, err error) (*domain.Promotion, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPromotionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query promotion: %w", err)
	}
	return p, nil
}

func (r *Repository) CountUserRedemptions(ctx context.Context, promotionID int64, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM promotion_redemptions WHERE promotion_id = $1 AND user_id = $2`,
		promotionID, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count redemptions: %w", err)
	}
	return n, nil
}

func (r *Repository) CreatePromotion(ctx context.Context, p *domain.Promotion) error {
	p.Code = normalizeCode(p.Code)
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO promotions (code, description, discount_type, value, min_order_amount, max_uses,
		     max_uses_per_user, starts_at, ends_at, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		 RETURNING id, used_count, created_at, updated_at`,
		p.Code, p.Description, string(p.DiscountType), p.Value, nullDecimal(p.MinOrderAmount),
		p.MaxUses, p.MaxUsesPerUser, p.StartsAt, p.EndsAt, p.IsActive,
	).Scan(&p.ID, &p.UsedCount, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("insert promotion: %w", err)
	}
	return nil
}

func (r *Repository) UpdatePromotion(ctx context.Context, p *domain.Promotion) error {
	p.Code = normalizeCode(p.Code)
	err := r.db.QueryRowContext(ctx,
		`UPDATE promotions
		 SET code = $2, description = $3, discount_type = $4, value = $5, min_order_amount = $6,
		     max_uses = $7, max_uses_per_user = $8, starts_at = $9, ends_at = $10, is_active = $11,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING used_count, created_at, updated_at`,
		p.ID, p.Code, p.Description, string(p.DiscountType), p.Value, nullDecimal(p.MinOrderAmount),
		p.MaxUses, p.MaxUsesPerUser, p.StartsAt, p.EndsAt, p.IsActive,
	).Scan(&p.UsedCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPromotionNotFound
	}
	if isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("update promotion: %w", err)
	}
	return nil
}

func (r *Repository) DeletePromotion(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPromotionNotFound
	}
	return nil
}

// redeemPromotion re-checks both usage caps under a row lock so concurrent
// checkouts cannot overshoot them.
func redeemPromotion(ctx context.Context, tx *sql.Tx, promotionID int64, userID string, orderID uuid.UUID) error {
	var (
		used       int
		maxUses    sql.NullInt32
		maxPerUser sql.NullInt32
	)
	err := tx.QueryRowContext(ctx,
		`SELECT used_count, max_uses, max_uses_per_user FROM promotions WHERE id = $1 FOR UPDATE`,
		promotionID).Scan(&used, &maxUses, &maxPerUser)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPromotionNotFound
	}
	if err != nil {
		return fmt.Errorf("lock promotion: %w", err)
	}
	if maxUses.Valid && used >= int(maxUses.Int32) {
		return ErrPromotionExhausted
	}
	if maxPerUser.Valid {
		var mine int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM promotion_redemptions WHERE promotion_id = $1 AND user_id = $2`,
			promotionID, userID).Scan(&mine); err != nil {
			return fmt.Errorf("count redemptions: %w", err)
		}
		if mine >= int(maxPerUser.Int32) {
			return ErrPromotionExhausted
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE promotions SET used_count = used_count + 1, updated_at = NOW() WHERE id = $1`,
		promotionID); err != nil {
		return fmt.Errorf("increment promotion usage: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO promotion_redemptions (promotion_id, user_id, order_id) VALUES ($1, $2, $3)`,
		promotionID, userID, orderID); err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func nullIntPtr(n sql.NullInt32) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}
