package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

type OrderFilter struct {
	Status        *domain.OrderStatus
	ArtworkStatus *domain.ArtworkStatus
	Limit         int
	Offset        int
}

// PlaceOrder is everything checkout writes in a single transaction.
type PlaceOrder struct {
	Order          *domain.Order
	IdempotencyKey string
	PromotionID    *int64
	Events         []domain.Event
}

// OrderChange is what an UpdateOrder callback asks to persist besides the
// order row itself.
type OrderChange struct {
	Events     []domain.Event
	DesignTags map[uuid.UUID]domain.DesignTag
	// ClearFlags lifts a flag from each design, returning it to the given tag.
	ClearFlags map[uuid.UUID]domain.DesignTag
}

const orderColumns = `id, order_number, user_id, customer_email, customer_name, status, artwork_status,
	artwork_notes, admin_design_id, shipping_address, subtotal, shipping_cost, tax, discount, total,
	promotion_code, payment_id, version, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o             domain.Order
		adminDesignID uuid.NullUUID
		addressJSON   []byte
		promotionCode sql.NullString
		paymentID     sql.NullString
	)
	if err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.CustomerEmail,
		&o.CustomerName,
		&o.Status,
		&o.ArtworkStatus,
		&o.ArtworkNotes,
		&adminDesignID,
		&addressJSON,
		&o.Subtotal,
		&o.ShippingCost,
		&o.Tax,
		&o.Discount,
		&o.Total,
		&promotionCode,
		&paymentID,
		&o.Version,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if adminDesignID.Valid {
		o.AdminDesignID = &adminDesignID.UUID
	}
	if promotionCode.Valid {
		o.PromotionCode = &promotionCode.String
	}
	if paymentID.Valid {
		o.PaymentID = &paymentID.String
	}
	if err := json.Unmarshal(addressJSON, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	return &o, nil
}

// CreateOrder inserts the order, its items, the promotion redemption and the
// outbox events atomically.
func (r *Repository) CreateOrder(ctx context.Context, p PlaceOrder) error {
	order := p.Order
	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO orders (id, order_number, idempotency_key, user_id, customer_email, customer_name,
		              status, artwork_status, artwork_notes, admin_design_id, shipping_address, subtotal,
		              shipping_cost, tax, discount, total, promotion_code, payment_id, version, created_at, updated_at)
		          VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 1, NOW(), NOW())
		          RETURNING version, created_at, updated_at`

		insertErr := tx.QueryRowContext(ctx, query,
			order.ID,
			order.OrderNumber,
			p.IdempotencyKey,
			order.UserID,
			order.CustomerEmail,
			order.CustomerName,
			string(order.Status),
			string(order.ArtworkStatus),
			order.ArtworkNotes,
			order.AdminDesignID,
			addressJSON,
			order.Subtotal,
			order.ShippingCost,
			order.Tax,
			order.Discount,
			order.Total,
			order.PromotionCode,
			order.PaymentID,
		).Scan(&order.Version, &order.CreatedAt, &order.UpdatedAt)
		if isUniqueViolation(insertErr) {
			return ErrDuplicateCheckout
		}
		if insertErr != nil {
			return fmt.Errorf("insert order: %w", insertErr)
		}

		for i := range order.Items {
			item := &order.Items[i]
			if item.OptionIDs == nil {
				item.OptionIDs = []int64{}
			}
			err := tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, design_id, quantity, option_ids, unit_price, line_total)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
				order.ID,
				item.ProductID,
				item.ProductName,
				item.DesignID,
				item.Quantity,
				pq.Array(item.OptionIDs),
				item.UnitPrice,
				item.LineTotal,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if p.PromotionID != nil {
			if err := redeemPromotion(ctx, tx, *p.PromotionID, order.UserID, order.ID); err != nil {
				return err
			}
		}

		return insertEvents(ctx, tx, p.Events)
	})
}

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	if err := r.attachItems(ctx, r.db, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE idempotency_key = $1`, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by idempotency key: %w", err)
	}
	return r.GetOrderByID(ctx, id)
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, userID)
}

func (r *Repository) ListOrders(ctx context.Context, f OrderFilter) ([]*domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.ArtworkStatus != nil {
		args = append(args, string(*f.ArtworkStatus))
		where = append(where, fmt.Sprintf("artwork_status = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.queryOrders(ctx, query, args...)
}

func (r *Repository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if err := r.attachItems(ctx, r.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *Repository) attachItems(ctx context.Context, q querier, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		o.Items = []domain.OrderItem{}
		byID[o.ID] = o
		ids = append(ids, o.ID.String())
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, design_id, quantity, option_ids, unit_price, line_total
		 FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY id`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item     domain.OrderItem
			orderID  uuid.UUID
			designID uuid.NullUUID
		)
		if err := rows.Scan(
			&item.ID,
			&orderID,
			&item.ProductID,
			&item.ProductName,
			&designID,
			&item.Quantity,
			pq.Array(&item.OptionIDs),
			&item.UnitPrice,
			&item.LineTotal,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if designID.Valid {
			item.DesignID = &designID.UUID
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

// UpdateOrder locks the order row, hands it to fn and persists whatever fn
// changed along with the outbox events it returns, all in one transaction.
// When expectedVersion is set the update only proceeds if the stored version
// still matches.
func (r *Repository) UpdateOrder(ctx context.Context, id uuid.UUID, expectedVersion *int, fn func(o *domain.Order) (OrderChange, error)) (*domain.Order, error) {
	var updated *domain.Order
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
		order, err := scanOrder(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if expectedVersion != nil && *expectedVersion != order.Version {
			return fmt.Errorf("%w: order %s is at version %d", domain.ErrStaleVersion, id, order.Version)
		}
		if err := r.attachItems(ctx, tx, []*domain.Order{order}); err != nil {
			return err
		}

		change, err := fn(order)
		if err != nil {
			return err
		}

		err = tx.QueryRowContext(ctx,
			`UPDATE orders
			 SET status = $2, artwork_status = $3, artwork_notes = $4, admin_design_id = $5,
			     payment_id = $6, version = version + 1, updated_at = NOW()
			 WHERE id = $1
			 RETURNING version, updated_at`,
			order.ID,
			string(order.Status),
			string(order.ArtworkStatus),
			order.ArtworkNotes,
			order.AdminDesignID,
			order.PaymentID,
		).Scan(&order.Version, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		for _, item := range order.Items {
			if _, err := tx.ExecContext(ctx,
				`UPDATE order_items SET design_id = $3 WHERE id = $1 AND order_id = $2`,
				item.ID, order.ID, item.DesignID); err != nil {
				return fmt.Errorf("update order item design: %w", err)
			}
		}

		for designID, source := range change.ClearFlags {
			if err := clearDesignFlag(ctx, tx, designID, source); err != nil {
				return err
			}
		}
		for designID, tag := range change.DesignTags {
			if err := retagDesign(ctx, tx, designID, order.ID, tag); err != nil {
				return err
			}
		}

		if err := insertEvents(ctx, tx, change.Events); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
