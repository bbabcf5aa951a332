package store

import (
	"context"
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/models"
)

// InsertOrder writes a new order row. ID and timestamps come back from
// the database.
func (q *queries) InsertOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (
			reference, business_id, menu_id,
			customer_name, customer_phone, customer_email,
			delivery_type, delivery_address,
			subtotal_cents, discount_cents, delivery_fee_cents, total_cents,
			coupon_code, payment_method, payment_status, order_status,
			idempotency_key
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
		RETURNING id, created_at, updated_at`

	row := q.ext.QueryRowxContext(ctx, query,
		order.Reference, order.BusinessID, order.MenuID,
		order.CustomerName, order.CustomerPhone, order.CustomerEmail,
		order.DeliveryType, order.DeliveryAddress,
		order.SubtotalCents, order.DiscountCents, order.DeliveryFeeCents, order.TotalCents,
		order.CouponCode, order.PaymentMethod, order.PaymentStatus, order.OrderStatus,
		order.IdempotencyKey)
	return row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

// InsertOrderItem writes one frozen-price cart line.
func (q *queries) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, dish_id, dish_name, quantity, price_at_purchase_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	row := q.ext.QueryRowxContext(ctx, query,
		item.OrderID, item.DishID, item.DishName, item.Quantity, item.PriceAtPurchaseCents)
	return row.Scan(&item.ID)
}

// OrderByID retrieves an order by ID, nil if absent.
func (s *Store) OrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if missing, err := noRows(err); missing || err != nil {
		return nil, err
	}
	return &order, nil
}

// OrderByIdempotencyKey retrieves the order committed under an
// idempotency key, nil if the key was never used.
func (s *Store) OrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if missing, err := noRows(err); missing || err != nil {
		return nil, err
	}
	return &order, nil
}

// OrderItemsByOrderID retrieves all items for an order.
func (s *Store) OrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// OrdersByBusiness retrieves orders for a business, newest first,
// optionally filtered by status.
func (s *Store) OrdersByBusiness(ctx context.Context, businessID int64, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	if status == "" {
		err := s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders WHERE business_id = $1 ORDER BY created_at DESC", businessID)
		return orders, err
	}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE business_id = $1 AND order_status = $2 ORDER BY created_at DESC",
		businessID, status)
	return orders, err
}

// TransitionOrderStatus moves an order from one status to another with an
// optimistic guard on the current status. Returns false if the order was
// not in the expected status anymore (lost race or stale read).
func (s *Store) TransitionOrderStatus(ctx context.Context, orderID int64, from, to models.OrderStatus, fulfilledAt *time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET order_status = $1,
		    fulfilled_at = COALESCE($2, fulfilled_at),
		    updated_at = NOW()
		WHERE id = $3 AND order_status = $4`,
		to, fulfilledAt, orderID, from)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// UpdateOrderPaymentStatus records the gateway outcome for an order.
func (s *Store) UpdateOrderPaymentStatus(ctx context.Context, orderID int64, status models.PaymentStatus) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}
