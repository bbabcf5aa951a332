package models

import (
	"strings"
	"time"
)

// MenuStatus is the publication state of a menu.
type MenuStatus string

const (
	MenuStatusDraft     MenuStatus = "draft"
	MenuStatusPublished MenuStatus = "published"
	MenuStatusArchived  MenuStatus = "archived"
)

// Menu represents a versioned, time-windowed menu owned by a business.
// Version is bumped on every catalog edit; orders freeze per-item prices
// instead of pinning a menu version.
type Menu struct {
	ID         int64      `db:"id" json:"id"`
	BusinessID int64      `db:"business_id" json:"business_id"`
	Title      string     `db:"title" json:"title"`
	StartDate  time.Time  `db:"start_date" json:"start_date"`
	EndDate    time.Time  `db:"end_date" json:"end_date"`
	Status     MenuStatus `db:"status" json:"status"`
	Version    int        `db:"version" json:"version"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// Dish represents a sellable item in a business catalog.
type Dish struct {
	ID          int64     `db:"id" json:"id"`
	BusinessID  int64     `db:"business_id" json:"business_id"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category,omitempty"`
	PriceCents  int64     `db:"price_cents" json:"price_cents"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DeliveryPolicy is how a business charges for delivery.
type DeliveryPolicy string

const (
	DeliveryPolicyFlat     DeliveryPolicy = "flat"
	DeliveryPolicyFree     DeliveryPolicy = "free"
	DeliveryPolicyPerKm    DeliveryPolicy = "per_km"
	DeliveryPolicyDisabled DeliveryPolicy = "disabled"
)

// DistanceRounding selects how per-km distances round to whole kilometers.
type DistanceRounding string

const (
	DistanceRoundingRound DistanceRounding = "round"
	DistanceRoundingCeil  DistanceRounding = "ceil"
	DistanceRoundingFloor DistanceRounding = "floor"
)

// BusinessSettings carries the per-business ordering policy.
type BusinessSettings struct {
	BusinessID                int64            `db:"business_id" json:"business_id"`
	DeliveryPolicy            DeliveryPolicy   `db:"delivery_policy" json:"delivery_policy"`
	FlatFeeCents              int64            `db:"flat_fee_cents" json:"flat_fee_cents"`
	BaseFeeCents              int64            `db:"base_fee_cents" json:"base_fee_cents"`
	PerKmFeeCents             int64            `db:"per_km_fee_cents" json:"per_km_fee_cents"`
	DistanceRounding          DistanceRounding `db:"distance_rounding" json:"distance_rounding"`
	MinOrderValueCents        int64            `db:"min_order_value_cents" json:"min_order_value_cents"`
	MinOrderFreeDeliveryCents int64            `db:"min_order_free_delivery_cents" json:"min_order_free_delivery_cents"`
	AutoConfirmOrders         bool             `db:"auto_confirm_orders" json:"auto_confirm_orders"`
	PaymentMethod             string           `db:"payment_method" json:"payment_method"`
	Currency                  string           `db:"currency" json:"currency"`
}

// DeliveryType is how the customer receives an order.
type DeliveryType string

const (
	DeliveryTypePickup   DeliveryType = "pickup"
	DeliveryTypeDelivery DeliveryType = "delivery"
)

// OrderStatus is the post-creation lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusFulfilled      OrderStatus = "fulfilled"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// successor maps each status to its single forward successor. Cancellation
// is handled separately since it is reachable from any non-terminal state.
var successor = map[OrderStatus]OrderStatus{
	OrderStatusPending:        OrderStatusConfirmed,
	OrderStatusConfirmed:      OrderStatusPreparing,
	OrderStatusPreparing:      OrderStatusReady,
	OrderStatusReady:          OrderStatusOutForDelivery,
	OrderStatusOutForDelivery: OrderStatusFulfilled,
}

// Terminal reports whether no further transition is permitted from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusFulfilled || s == OrderStatusCancelled
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s OrderStatus) bool {
	if s == OrderStatusFulfilled || s == OrderStatusCancelled {
		return true
	}
	_, ok := successor[s]
	return ok
}

// CanTransition reports whether to is a valid direct transition from s.
// No status may be skipped; cancelled is reachable from every
// non-terminal state.
func CanTransition(from, to OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	return successor[from] == to
}

// PaymentStatus tracks what this core records about payment; gateway
// protocols live outside this service.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Order is a committed customer order. Total arithmetic is fixed at
// creation: TotalCents = subtotal - discount + delivery fee, all integer
// cents, never recomputed.
type Order struct {
	ID               int64         `db:"id" json:"id"`
	Reference        string        `db:"reference" json:"reference"`
	BusinessID       int64         `db:"business_id" json:"business_id"`
	MenuID           int64         `db:"menu_id" json:"menu_id"`
	CustomerName     string        `db:"customer_name" json:"customer_name"`
	CustomerPhone    string        `db:"customer_phone" json:"customer_phone"`
	CustomerEmail    string        `db:"customer_email" json:"customer_email,omitempty"`
	DeliveryType     DeliveryType  `db:"delivery_type" json:"delivery_type"`
	DeliveryAddress  string        `db:"delivery_address" json:"delivery_address,omitempty"`
	SubtotalCents    int64         `db:"subtotal_cents" json:"subtotal_cents"`
	DiscountCents    int64         `db:"discount_cents" json:"discount_cents"`
	DeliveryFeeCents int64         `db:"delivery_fee_cents" json:"delivery_fee_cents"`
	TotalCents       int64         `db:"total_cents" json:"total_cents"`
	CouponCode       string        `db:"coupon_code" json:"coupon_code,omitempty"`
	PaymentMethod    string        `db:"payment_method" json:"payment_method"`
	PaymentStatus    PaymentStatus `db:"payment_status" json:"payment_status"`
	OrderStatus      OrderStatus   `db:"order_status" json:"order_status"`
	IdempotencyKey   string        `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
	FulfilledAt      *time.Time    `db:"fulfilled_at" json:"fulfilled_at,omitempty"`
}

// OrderItem is one cart line of an order. PriceAtPurchaseCents is the
// frozen dish price captured at checkout; it is never recomputed after
// catalog edits.
type OrderItem struct {
	ID                   int64  `db:"id" json:"id"`
	OrderID              int64  `db:"order_id" json:"order_id"`
	DishID               int64  `db:"dish_id" json:"dish_id"`
	DishName             string `db:"dish_name" json:"dish_name"`
	Quantity             int    `db:"quantity" json:"quantity"`
	PriceAtPurchaseCents int64  `db:"price_at_purchase_cents" json:"price_at_purchase_cents"`
}

// DiscountType is how a coupon computes its discount.
type DiscountType string

const (
	DiscountTypeFixed      DiscountType = "fixed"
	DiscountTypePercentage DiscountType = "percentage"
)

// UsageLimitType is the redemption-limit policy of a coupon.
type UsageLimitType string

const (
	UsageLimitUnlimited   UsageLimitType = "unlimited"
	UsageLimitPerCustomer UsageLimitType = "per_customer"
	UsageLimitPerMonth    UsageLimitType = "per_month"
	UsageLimitTotal       UsageLimitType = "total_limit"
)

// CouponApplicability scopes which dishes a coupon applies to.
type CouponApplicability string

const (
	CouponAppliesAllDishes      CouponApplicability = "all_dishes"
	CouponAppliesSpecificDishes CouponApplicability = "specific_dishes"
)

// CouponStatus is the lifecycle state of a coupon.
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusExpired  CouponStatus = "expired"
	CouponStatusArchived CouponStatus = "archived"
)

// Coupon is a business-scoped discount code. Codes are stored upper-cased
// and all lookups normalize input through NormalizeCouponCode.
type Coupon struct {
	ID                 int64               `db:"id" json:"id"`
	BusinessID         int64               `db:"business_id" json:"business_id"`
	Code               string              `db:"code" json:"code"`
	DiscountType       DiscountType        `db:"discount_type" json:"discount_type"`
	DiscountValue      int64               `db:"discount_value" json:"discount_value"`
	MaxDiscountCents   int64               `db:"max_discount_cents" json:"max_discount_cents"`
	MinOrderValueCents int64               `db:"min_order_value_cents" json:"min_order_value_cents"`
	ValidFrom          time.Time           `db:"valid_from" json:"valid_from"`
	ValidUntil         time.Time           `db:"valid_until" json:"valid_until"`
	UsageLimitType     UsageLimitType      `db:"usage_limit_type" json:"usage_limit_type"`
	PerCustomerLimit   int                 `db:"per_customer_limit" json:"per_customer_limit"`
	PerMonthLimit      int                 `db:"per_month_limit" json:"per_month_limit"`
	TotalUsageLimit    int                 `db:"total_usage_limit" json:"total_usage_limit"`
	TotalUsageCount    int                 `db:"total_usage_count" json:"total_usage_count"`
	ApplicableTo       CouponApplicability `db:"applicable_to" json:"applicable_to"`
	ApplicableDishIDs  []int64             `db:"-" json:"applicable_dish_ids,omitempty"`
	Status             CouponStatus        `db:"status" json:"status"`
	CreatedAt          time.Time           `db:"created_at" json:"created_at"`
}

// AppliesToAny reports whether the coupon covers at least one of the
// given dish IDs. Coupons scoped to all dishes always apply.
func (c *Coupon) AppliesToAny(dishIDs []int64) bool {
	if c.ApplicableTo != CouponAppliesSpecificDishes {
		return true
	}
	scoped := make(map[int64]struct{}, len(c.ApplicableDishIDs))
	for _, id := range c.ApplicableDishIDs {
		scoped[id] = struct{}{}
	}
	for _, id := range dishIDs {
		if _, ok := scoped[id]; ok {
			return true
		}
	}
	return false
}

// CouponUsage is one row of the append-only redemption ledger. Rows are
// written in the same transaction as the order they belong to and never
// updated or deleted afterwards.
type CouponUsage struct {
	ID                 int64     `db:"id" json:"id"`
	CouponID           int64     `db:"coupon_id" json:"coupon_id"`
	OrderID            int64     `db:"order_id" json:"order_id"`
	BusinessID         int64     `db:"business_id" json:"business_id"`
	CustomerPhone      string    `db:"customer_phone" json:"customer_phone"`
	DiscountCents      int64     `db:"discount_cents" json:"discount_cents"`
	OrderSubtotalCents int64     `db:"order_subtotal_cents" json:"order_subtotal_cents"`
	OrderTotalCents    int64     `db:"order_total_cents" json:"order_total_cents"`
	RedeemedAt         time.Time `db:"redeemed_at" json:"redeemed_at"`
}

// NormalizeCouponCode upper-cases and trims a coupon code for lookup.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// WindowContains reports whether t falls inside [from, until]. Menu
// validity and coupon validity share this check.
func WindowContains(from, until, t time.Time) bool {
	return !t.Before(from) && !t.After(until)
}
