package models

import "time"

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypePaymentRecorded    = "PAYMENT_RECORDED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent is published after an order transaction commits. It
// drives seller notification, analytics, and payment recording; none of
// those can fail the order.
type OrderCreatedEvent struct {
	BaseEvent
	OrderID       int64           `json:"order_id"`
	Reference     string          `json:"reference"`
	BusinessID    int64           `json:"business_id"`
	MenuID        int64           `json:"menu_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	TotalCents    int64           `json:"total_cents"`
	CouponCode    string          `json:"coupon_code,omitempty"`
	PaymentMethod string          `json:"payment_method"`
	Items         []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent is published after a status transition commits.
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID       int64       `json:"order_id"`
	Reference     string      `json:"reference"`
	BusinessID    int64       `json:"business_id"`
	CustomerPhone string      `json:"customer_phone"`
	FromStatus    OrderStatus `json:"from_status"`
	ToStatus      OrderStatus `json:"to_status"`
	Actor         string      `json:"actor"`
}

// PaymentRecordedEvent is published once the gateway outcome for an
// online order is recorded.
type PaymentRecordedEvent struct {
	BaseEvent
	OrderID   int64         `json:"order_id"`
	Status    PaymentStatus `json:"status"`
	Reference string        `json:"reference"`
	TxID      string        `json:"tx_id,omitempty"`
	Amount    int64         `json:"amount"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	DishID     int64  `json:"dish_id"`
	DishName   string `json:"dish_name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}
