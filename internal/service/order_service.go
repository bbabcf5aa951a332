package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/fault"
	"github.com/ameedanxari/menumaker-sub002/internal/models"
	"github.com/ameedanxari/menumaker-sub002/internal/store"
	"github.com/ameedanxari/menumaker-sub002/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TxRunner opens the one transaction a checkout commits in. Satisfied by
// *store.Store.
type TxRunner interface {
	WithinCheckoutTx(ctx context.Context, fn func(ctx context.Context, tx store.CheckoutTx) error) error
}

// OrderReader serves the non-transactional order read paths.
type OrderReader interface {
	OrderByID(ctx context.Context, id int64) (*models.Order, error)
	OrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	OrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	OrdersByBusiness(ctx context.Context, businessID int64, status models.OrderStatus) ([]models.Order, error)
}

// IdempotencyStore is the fast-path duplicate-submission guard.
type IdempotencyStore interface {
	ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

// EventSink receives post-commit events. Publishing is best-effort; a
// failed publish is logged and never fails the order.
type EventSink interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderItemInput is one requested cart line. Quantity deliberately has
// no binding rule: zero and negative values must reach validation so
// they fail with the proper code instead of a bare 400.
type OrderItemInput struct {
	DishID   int64 `json:"dish_id" binding:"required"`
	Quantity int   `json:"quantity"`
}

// OrderCreateInput is an order submission.
type OrderCreateInput struct {
	MenuID          int64               `json:"menu_id" binding:"required"`
	Items           []OrderItemInput    `json:"items" binding:"required,min=1"`
	CustomerName    string              `json:"customer_name" binding:"required"`
	CustomerPhone   string              `json:"customer_phone" binding:"required"`
	CustomerEmail   string              `json:"customer_email"`
	DeliveryType    models.DeliveryType `json:"delivery_type" binding:"required"`
	DeliveryAddress string              `json:"delivery_address"`
	DistanceMeters  int64               `json:"distance_meters"`
	PaymentMethod   string              `json:"payment_method" binding:"required"`
	CouponCode      string              `json:"coupon_code"`
	IdempotencyKey  string              `json:"idempotency_key,omitempty"`
}

// OrderService is the only entry point that commits an order. Every
// validation, the pricing computation and all writes of one checkout run
// inside a single transaction; side effects fire only after commit.
type OrderService struct {
	txr          TxRunner
	orders       OrderReader
	idempotency  IdempotencyStore
	couponEngine *CouponEngine
	events       EventSink
	logger       *zap.Logger

	idempotencyTTL time.Duration
	txTimeout      time.Duration
	now            func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	txr TxRunner,
	orders OrderReader,
	idempotency IdempotencyStore,
	couponEngine *CouponEngine,
	events EventSink,
	idempotencyTTL time.Duration,
	txTimeout time.Duration,
) *OrderService {
	return &OrderService{
		txr:            txr,
		orders:         orders,
		idempotency:    idempotency,
		couponEngine:   couponEngine,
		events:         events,
		logger:         util.GetLogger(),
		idempotencyTTL: idempotencyTTL,
		txTimeout:      txTimeout,
		now:            time.Now,
	}
}

// CreateOrder turns a cart into a committed order. On any validation or
// persistence failure the whole transaction rolls back: no partial order,
// no partial usage increment, no frozen prices written.
func (s *OrderService) CreateOrder(ctx context.Context, in *OrderCreateInput) (*models.Order, []models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if in.DeliveryType != models.DeliveryTypePickup && in.DeliveryType != models.DeliveryTypeDelivery {
		return nil, nil, fault.New(fault.CodeDeliveryNotEnabled, "unknown delivery type %q", in.DeliveryType)
	}

	if in.IdempotencyKey == "" {
		in.IdempotencyKey = uuid.New().String()
	} else if existing, items, err := s.replayIdempotent(ctx, in.IdempotencyKey); err != nil {
		return nil, nil, err
	} else if existing != nil {
		return existing, items, nil
	}

	claimed, err := s.idempotency.ClaimIdempotencyKey(ctx, in.IdempotencyKey, s.idempotencyTTL)
	if err != nil {
		// Redis is the fast path only; the unique column on orders
		// stays authoritative.
		s.logger.Warn("Idempotency claim failed, continuing", zap.Error(err))
	} else if !claimed {
		if existing, items, err := s.replayIdempotent(ctx, in.IdempotencyKey); err != nil {
			return nil, nil, err
		} else if existing != nil {
			return existing, items, nil
		}
		return nil, nil, fmt.Errorf("submission with idempotency key %q already in flight", in.IdempotencyKey)
	}

	order, orderItems, err := s.placeOrder(ctx, in)
	if err != nil {
		s.releaseClaim(ctx, in.IdempotencyKey)
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order committed",
		zap.Int64("order_id", order.ID),
		zap.String("reference", order.Reference),
		zap.Int64("total_cents", order.TotalCents))

	s.publishCreated(ctx, order, orderItems)
	return order, orderItems, nil
}

// placeOrder runs the full validation and persistence chain inside one
// transaction.
func (s *OrderService) placeOrder(ctx context.Context, in *OrderCreateInput) (*models.Order, []models.OrderItem, error) {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	var (
		order      *models.Order
		orderItems []models.OrderItem
	)

	err := s.txr.WithinCheckoutTx(ctx, func(ctx context.Context, tx store.CheckoutTx) error {
		now := s.now()

		menu, err := tx.MenuByID(ctx, in.MenuID)
		if err != nil {
			return fmt.Errorf("failed to resolve menu: %w", err)
		}
		if err := CheckMenuAvailability(menu, now); err != nil {
			return err
		}

		settings, err := tx.SettingsByBusinessID(ctx, menu.BusinessID)
		if err != nil {
			return fmt.Errorf("failed to resolve business settings: %w", err)
		}
		if settings == nil {
			return fault.New(fault.CodeSettingsNotFound, "business %d has no settings", menu.BusinessID)
		}

		dishIDs := make([]int64, len(in.Items))
		for i, item := range in.Items {
			dishIDs[i] = item.DishID
		}
		dishes, err := tx.DishesByIDs(ctx, menu.BusinessID, dishIDs)
		if err != nil {
			return fmt.Errorf("failed to resolve dishes: %w", err)
		}
		snapshots, err := ValidateDishes(in.Items, dishes)
		if err != nil {
			return err
		}

		var subtotal int64
		for _, item := range in.Items {
			subtotal += snapshots[item.DishID].PriceCents * int64(item.Quantity)
		}

		var coupon *CouponResult
		if in.CouponCode != "" {
			coupon, err = s.couponEngine.Validate(ctx, tx, CouponRequest{
				Code:               in.CouponCode,
				BusinessID:         menu.BusinessID,
				CustomerPhone:      in.CustomerPhone,
				OrderSubtotalCents: subtotal,
				DishIDs:            dishIDs,
				Now:                now,
			})
			if err != nil {
				return err
			}
			if !coupon.Valid {
				return fault.New(fault.CodeCouponRejected, "%s", coupon.Reason)
			}
		}

		var discount int64
		if coupon != nil {
			discount = coupon.DiscountCents
		}
		pricing, err := ComputePricing(PricingInput{
			Items:          in.Items,
			Snapshots:      snapshots,
			DeliveryType:   in.DeliveryType,
			DistanceMeters: in.DistanceMeters,
			Settings:       settings,
			DiscountCents:  discount,
		})
		if err != nil {
			return err
		}

		status := models.OrderStatusPending
		if settings.AutoConfirmOrders {
			status = models.OrderStatusConfirmed
		}

		order = &models.Order{
			Reference:        uuid.New().String(),
			BusinessID:       menu.BusinessID,
			MenuID:           menu.ID,
			CustomerName:     in.CustomerName,
			CustomerPhone:    in.CustomerPhone,
			CustomerEmail:    in.CustomerEmail,
			DeliveryType:     in.DeliveryType,
			DeliveryAddress:  in.DeliveryAddress,
			SubtotalCents:    pricing.SubtotalCents,
			DiscountCents:    pricing.DiscountCents,
			DeliveryFeeCents: pricing.DeliveryFeeCents,
			TotalCents:       pricing.TotalCents,
			PaymentMethod:    in.PaymentMethod,
			PaymentStatus:    models.PaymentStatusPending,
			OrderStatus:      status,
			IdempotencyKey:   in.IdempotencyKey,
		}
		if coupon != nil {
			order.CouponCode = coupon.Coupon.Code
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		orderItems = orderItems[:0]
		for _, item := range in.Items {
			snapshot := snapshots[item.DishID]
			orderItem := models.OrderItem{
				OrderID:              order.ID,
				DishID:               item.DishID,
				DishName:             snapshot.Name,
				Quantity:             item.Quantity,
				PriceAtPurchaseCents: snapshot.PriceCents,
			}
			if err := tx.InsertOrderItem(ctx, &orderItem); err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
			orderItems = append(orderItems, orderItem)
		}

		if coupon != nil {
			// The conditional increment re-checks the total limit, so
			// even without the row lock two racing checkouts cannot
			// both take the last slot.
			consumed, err := tx.ConsumeCouponSlot(ctx, coupon.Coupon.ID)
			if err != nil {
				return fmt.Errorf("failed to consume coupon slot: %w", err)
			}
			if !consumed {
				return fault.New(fault.CodeCouponRejected, "%s", ReasonCouponLimitReached)
			}

			usage := &models.CouponUsage{
				CouponID:           coupon.Coupon.ID,
				OrderID:            order.ID,
				BusinessID:         menu.BusinessID,
				CustomerPhone:      in.CustomerPhone,
				DiscountCents:      pricing.DiscountCents,
				OrderSubtotalCents: pricing.SubtotalCents,
				OrderTotalCents:    pricing.TotalCents,
			}
			if err := tx.InsertCouponUsage(ctx, usage); err != nil {
				return fmt.Errorf("failed to insert coupon usage: %w", err)
			}
			util.CouponsRedeemedTotal.Inc()
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, orderItems, nil
}

// replayIdempotent returns the committed order for a reused idempotency
// key, nil when the key is fresh.
func (s *OrderService) replayIdempotent(ctx context.Context, key string) (*models.Order, []models.OrderItem, error) {
	existing, err := s.orders.OrderByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing == nil {
		return nil, nil, nil
	}

	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", key),
		zap.Int64("order_id", existing.ID))

	items, err := s.orders.OrderItemsByOrderID(ctx, existing.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return existing, items, nil
}

func (s *OrderService) releaseClaim(ctx context.Context, key string) {
	if err := s.idempotency.ReleaseIdempotencyKey(ctx, key); err != nil {
		s.logger.Warn("Failed to release idempotency claim", zap.Error(err))
	}
}

func (s *OrderService) publishCreated(ctx context.Context, order *models.Order, items []models.OrderItem) {
	eventItems := make([]models.OrderItemData, len(items))
	for i, item := range items {
		eventItems[i] = models.OrderItemData{
			DishID:     item.DishID,
			DishName:   item.DishName,
			Quantity:   item.Quantity,
			PriceCents: item.PriceAtPurchaseCents,
		}
	}

	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: s.now(),
		},
		OrderID:       order.ID,
		Reference:     order.Reference,
		BusinessID:    order.BusinessID,
		MenuID:        order.MenuID,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		TotalCents:    order.TotalCents,
		CouponCode:    order.CouponCode,
		PaymentMethod: order.PaymentMethod,
		Items:         eventItems,
	}

	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

// GetOrder retrieves an order and its items.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.orders.OrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, fault.New(fault.CodeOrderNotFound, "order %d does not exist", orderID)
	}

	items, err := s.orders.OrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

// GetOrdersByBusiness lists a business's orders, optionally filtered by
// status.
func (s *OrderService) GetOrdersByBusiness(ctx context.Context, businessID int64, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !models.ValidStatus(status) {
		return nil, fault.New(fault.CodeInvalidTransition, "unknown order status %q", status)
	}
	return s.orders.OrdersByBusiness(ctx, businessID, status)
}

// failureReason maps a checkout failure onto a bounded metric label.
func failureReason(err error) string {
	var fe *fault.Error
	if errors.As(err, &fe) {
		return string(fe.Code)
	}
	return "internal"
}
