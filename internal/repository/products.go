package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

type ProductFilter struct {
	CategoryID      *int64
	FeaturedOnly    bool
	IncludeInactive bool
}

const productColumns = `id, name, description, image_url, base_price, is_active, is_featured,
	shipping_type, flat_shipping_price, category_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p          domain.Product
		shipping   string
		flatPrice  decimal.NullDecimal
		categoryID sql.NullInt64
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.ImageURL,
		&p.BasePrice,
		&p.IsActive,
		&p.IsFeatured,
		&shipping,
		&flatPrice,
		&categoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.ShippingType, _ = domain.ParseShippingType(shipping)
	if flatPrice.Valid {
		p.FlatShippingPrice = &flatPrice.Decimal
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}
	return &p, nil
}

func (r *Repository) ListProducts(ctx context.Context, f ProductFilter) ([]*domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if !f.IncludeInactive {
		where = append(where, "is_active")
	}
	if f.FeaturedOnly {
		where = append(where, "is_featured")
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY is_featured DESC, name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

// GetProduct loads a product together with its own tiers and options.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}

	if p.Tiers, err = r.productTiers(ctx, &id); err != nil {
		return nil, err
	}
	if p.Options, err = r.productOptions(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (name, description, image_url, base_price, is_active, is_featured,
	              shipping_type, flat_shipping_price, category_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	          RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.Name,
		p.Description,
		p.ImageURL,
		p.BasePrice,
		p.IsActive,
		p.IsFeatured,
		string(p.ShippingType),
		nullDecimal(p.FlatShippingPrice),
		p.CategoryID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	query := `UPDATE products
	          SET name = $2, description = $3, image_url = $4, base_price = $5, is_active = $6,
	              is_featured = $7, shipping_type = $8, flat_shipping_price = $9, category_id = $10,
	              updated_at = NOW()
	          WHERE id = $1
	          RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.ImageURL,
		p.BasePrice,
		p.IsActive,
		p.IsFeatured,
		string(p.ShippingType),
		nullDecimal(p.FlatShippingPrice),
		p.CategoryID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// GlobalTiers returns the tier set used by products without their own.
func (r *Repository) GlobalTiers(ctx context.Context) ([]domain.PricingTier, error) {
	return r.productTiers(ctx, nil)
}

func (r *Repository) productTiers(ctx context.Context, productID *int64) ([]domain.PricingTier, error) {
	query := `SELECT id, product_id, min_quantity, max_quantity, price_per_unit
	          FROM pricing_tiers WHERE product_id IS NOT DISTINCT FROM $1 ORDER BY min_quantity`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("query pricing tiers: %w", err)
	}
	defer rows.Close()

	tiers := []domain.PricingTier{}
	for rows.Next() {
		var (
			t      domain.PricingTier
			owner  sql.NullInt64
			maxQty sql.NullInt32
		)
		if err := rows.Scan(&t.ID, &owner, &t.MinQuantity, &maxQty, &t.PricePerUnit); err != nil {
			return nil, fmt.Errorf("scan pricing tier: %w", err)
		}
		if owner.Valid {
			t.ProductID = &owner.Int64
		}
		if maxQty.Valid {
			m := int(maxQty.Int32)
			t.MaxQuantity = &m
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tiers, nil
}

// ReplaceProductTiers deletes the product's tiers and inserts the given set
// in one transaction.
func (r *Repository) ReplaceProductTiers(ctx context.Context, productID int64, tiers []domain.PricingTier) ([]domain.PricingTier, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockProduct(ctx, tx, productID); err != nil {
			return err
		}
		return replaceTiers(ctx, tx, &productID, tiers)
	})
	if err != nil {
		return nil, err
	}
	return r.productTiers(ctx, &productID)
}

func (r *Repository) ReplaceGlobalTiers(ctx context.Context, tiers []domain.PricingTier) ([]domain.PricingTier, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		return replaceTiers(ctx, tx, nil, tiers)
	})
	if err != nil {
		return nil, err
	}
	return r.GlobalTiers(ctx)
}

func replaceTiers(ctx context.Context, tx *sql.Tx, productID *int64, tiers []domain.PricingTier) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pricing_tiers WHERE product_id IS NOT DISTINCT FROM $1`, productID); err != nil {
		return fmt.Errorf("delete pricing tiers: %w", err)
	}
	for _, t := range tiers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pricing_tiers (product_id, min_quantity, max_quantity, price_per_unit)
			 VALUES ($1, $2, $3, $4)`,
			productID, t.MinQuantity, t.MaxQuantity, t.PricePerUnit)
		if err != nil {
			return fmt.Errorf("insert pricing tier: %w", err)
		}
	}
	return nil
}

func (r *Repository) productOptions(ctx context.Context, productID int64) ([]domain.ProductOption, error) {
	query := `SELECT id, product_id, option_type, name, price_modifier, is_default
	          FROM product_options WHERE product_id = $1 ORDER BY option_type, id`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("query product options: %w", err)
	}
	defer rows.Close()

	options := []domain.ProductOption{}
	for rows.Next() {
		var o domain.ProductOption
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Type, &o.Name, &o.PriceModifier, &o.IsDefault); err != nil {
			return nil, fmt.Errorf("scan product option: %w", err)
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return options, nil
}

func (r *Repository) ReplaceProductOptions(ctx context.Context, productID int64, options []domain.ProductOption) ([]domain.ProductOption, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockProduct(ctx, tx, productID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_options WHERE product_id = $1`, productID); err != nil {
			return fmt.Errorf("delete product options: %w", err)
		}
		for _, o := range options {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO product_options (product_id, option_type, name, price_modifier, is_default)
				 VALUES ($1, $2, $3, $4, $5)`,
				productID, string(o.Type), o.Name, o.PriceModifier, o.IsDefault)
			if err != nil {
				return fmt.Errorf("insert product option: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.productOptions(ctx, productID)
}

// AdjustBasePrices applies adjust to the base price of every product in
// scope. Either every row is updated or none is.
func (r *Repository) AdjustBasePrices(ctx context.Context, categoryID *int64, adjust func(decimal.Decimal) (decimal.Decimal, error)) ([]domain.PriceChange, error) {
	var changes []domain.PriceChange
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT id, name, base_price FROM products`
		var args []any
		if categoryID != nil {
			query += ` WHERE category_id = $1`
			args = append(args, *categoryID)
		}
		query += ` ORDER BY id FOR UPDATE`

		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query products for adjustment: %w", err)
		}
		for rows.Next() {
			var c domain.PriceChange
			if err := rows.Scan(&c.ProductID, &c.Name, &c.OldPrice); err != nil {
				rows.Close()
				return fmt.Errorf("scan product price: %w", err)
			}
			changes = append(changes, c)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("row iteration error: %w", err)
		}

		for i := range changes {
			next, err := adjust(changes[i].OldPrice)
			if err != nil {
				return err
			}
			changes[i].NewPrice = next
			if _, err := tx.ExecContext(ctx,
				`UPDATE products SET base_price = $2, updated_at = NOW() WHERE id = $1`,
				changes[i].ProductID, next); err != nil {
				return fmt.Errorf("update product %d price: %w", changes[i].ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slug, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return categories, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c *domain.Category) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id, created_at`,
		c.Name, c.Slug,
	).Scan(&c.ID, &c.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func lockProduct(ctx context.Context, tx *sql.Tx, productID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("lock product: %w", err)
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
