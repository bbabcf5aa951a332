package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// CheckoutTx is the transaction-scoped view the order pipeline runs on.
// Every read and write of a single checkout goes through one CheckoutTx;
// the transaction commits or rolls back exactly once in WithinCheckoutTx.
type CheckoutTx interface {
	MenuByID(ctx context.Context, id int64) (*models.Menu, error)
	SettingsByBusinessID(ctx context.Context, businessID int64) (*models.BusinessSettings, error)
	DishesByIDs(ctx context.Context, businessID int64, ids []int64) ([]models.Dish, error)
	CouponByCode(ctx context.Context, businessID int64, code string) (*models.Coupon, error)
	CouponUsageCountForCustomer(ctx context.Context, couponID int64, customerPhone string) (int, error)
	CouponUsageCountSince(ctx context.Context, couponID int64, since time.Time) (int, error)
	ConsumeCouponSlot(ctx context.Context, couponID int64) (bool, error)
	InsertOrder(ctx context.Context, order *models.Order) error
	InsertOrderItem(ctx context.Context, item *models.OrderItem) error
	InsertCouponUsage(ctx context.Context, usage *models.CouponUsage) error
}

type Store struct {
	db *sqlx.DB
	queries
}

// Tx wraps one open checkout transaction. Its CouponByCode locks the
// coupon row so concurrent redemptions serialize on it.
type Tx struct {
	queries
}

type queries struct {
	ext sqlx.ExtContext
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, queries: queries{ext: db}}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// WithinCheckoutTx runs fn inside one database transaction. fn returning
// an error rolls everything back; nil commits. Read committed plus the
// FOR UPDATE lock on the coupon row is sufficient for the usage-limit
// race, since the conditional usage increment re-checks the limit.
func (s *Store) WithinCheckoutTx(ctx context.Context, fn func(ctx context.Context, tx CheckoutTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &Tx{queries: queries{ext: tx}}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// noRows maps sql.ErrNoRows to a nil result so callers decide the
// failure semantics.
func noRows(err error) (bool, error) {
	if err == sql.ErrNoRows {
		return true, nil
	}
	return false, err
}
