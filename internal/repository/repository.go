package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

var (
	ErrProductNotFound      = fmt.Errorf("product %w", domain.ErrNotFound)
	ErrCategoryNotFound     = fmt.Errorf("category %w", domain.ErrNotFound)
	ErrOrderNotFound        = fmt.Errorf("order %w", domain.ErrNotFound)
	ErrDesignNotFound       = fmt.Errorf("design %w", domain.ErrNotFound)
	ErrPromotionNotFound    = fmt.Errorf("promotion %w", domain.ErrNotFound)
	ErrDealNotFound         = fmt.Errorf("deal %w", domain.ErrNotFound)
	ErrTemplateNotFound     = fmt.Errorf("email template %w", domain.ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", domain.ErrNotFound)

	ErrDuplicateCheckout  = fmt.Errorf("%w: order for this checkout already exists", domain.ErrConflict)
	ErrDuplicateCode      = fmt.Errorf("%w: promotion code already exists", domain.ErrConflict)
	ErrDuplicateSlug      = fmt.Errorf("%w: category slug already exists", domain.ErrConflict)
	ErrPromotionExhausted = fmt.Errorf("%w: promotion usage limit reached", domain.ErrConflict)
)

const uniqueViolation = "23505"

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "storefront_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// withTx runs fn in a transaction, committing when it returns nil.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
