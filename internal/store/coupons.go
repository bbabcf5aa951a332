package store

import (
	"context"
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/models"

	"github.com/jmoiron/sqlx"
)

const couponColumns = `
	id, business_id, code, discount_type, discount_value,
	max_discount_cents, min_order_value_cents, valid_from, valid_until,
	usage_limit_type, per_customer_limit, per_month_limit,
	total_usage_limit, total_usage_count, applicable_to, status, created_at`

// CouponByCode resolves a coupon for a business without locking it. Used
// by the read-only preview path; checkouts go through Tx.CouponByCode.
func (s *Store) CouponByCode(ctx context.Context, businessID int64, code string) (*models.Coupon, error) {
	return s.couponByCode(ctx, businessID, code, "")
}

// CouponByCode resolves a coupon for a business and locks its row for the
// remainder of the transaction. Concurrent checkouts redeeming the same
// coupon serialize here, which closes the validate-then-increment window.
func (t *Tx) CouponByCode(ctx context.Context, businessID int64, code string) (*models.Coupon, error) {
	return t.couponByCode(ctx, businessID, code, " FOR UPDATE")
}

func (q *queries) couponByCode(ctx context.Context, businessID int64, code string, suffix string) (*models.Coupon, error) {
	var coupon models.Coupon
	query := "SELECT" + couponColumns +
		" FROM coupons WHERE business_id = $1 AND code = $2" + suffix
	err := sqlx.GetContext(ctx, q.ext, &coupon, query,
		businessID, models.NormalizeCouponCode(code))
	if missing, err := noRows(err); missing || err != nil {
		return nil, err
	}

	if coupon.ApplicableTo == models.CouponAppliesSpecificDishes {
		ids, err := q.couponDishIDs(ctx, coupon.ID)
		if err != nil {
			return nil, err
		}
		coupon.ApplicableDishIDs = ids
	}
	return &coupon, nil
}

func (q *queries) couponDishIDs(ctx context.Context, couponID int64) ([]int64, error) {
	var ids []int64
	err := sqlx.SelectContext(ctx, q.ext, &ids,
		"SELECT dish_id FROM coupon_dishes WHERE coupon_id = $1", couponID)
	return ids, err
}

// CouponUsageCountForCustomer counts prior redemptions of a coupon by one
// customer.
func (q *queries) CouponUsageCountForCustomer(ctx context.Context, couponID int64, customerPhone string) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q.ext, &count,
		"SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND customer_phone = $2",
		couponID, customerPhone)
	return count, err
}

// CouponUsageCountSince counts redemptions of a coupon at or after the
// given instant. The caller supplies the month boundary.
func (q *queries) CouponUsageCountSince(ctx context.Context, couponID int64, since time.Time) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q.ext, &count,
		"SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND redeemed_at >= $2",
		couponID, since)
	return count, err
}

// ConsumeCouponSlot increments the running usage counter. For coupons
// with a total limit the increment is conditional on a slot remaining;
// zero rows affected means the limit was hit and the caller must fail the
// whole checkout.
func (q *queries) ConsumeCouponSlot(ctx context.Context, couponID int64) (bool, error) {
	res, err := q.ext.ExecContext(ctx, `
		UPDATE coupons
		SET total_usage_count = total_usage_count + 1
		WHERE id = $1
		  AND (usage_limit_type <> 'total_limit' OR total_usage_count < total_usage_limit)`,
		couponID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// InsertCouponUsage appends one row to the redemption ledger. The unique
// constraint on order_id keeps a redemption tied 1:1 to its order.
func (q *queries) InsertCouponUsage(ctx context.Context, usage *models.CouponUsage) error {
	query := `
		INSERT INTO coupon_usages (
			coupon_id, order_id, business_id, customer_phone,
			discount_cents, order_subtotal_cents, order_total_cents
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, redeemed_at`

	row := q.ext.QueryRowxContext(ctx, query,
		usage.CouponID, usage.OrderID, usage.BusinessID, usage.CustomerPhone,
		usage.DiscountCents, usage.OrderSubtotalCents, usage.OrderTotalCents)
	return row.Scan(&usage.ID, &usage.RedeemedAt)
}
