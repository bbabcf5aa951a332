package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/util"

	"go.uber.org/zap"
)

// CouponPreviewInput asks for a dry-run validation of a coupon against a
// cart, so clients can show the discount before checkout.
type CouponPreviewInput struct {
	MenuID        int64            `json:"menu_id" binding:"required"`
	CouponCode    string           `json:"coupon_code" binding:"required"`
	CustomerPhone string           `json:"customer_phone" binding:"required"`
	Items         []OrderItemInput `json:"items" binding:"required,min=1"`
}

// CouponService runs read-only coupon validation. No usage is consumed
// and no rows are locked; the authoritative validation happens again
// inside the checkout transaction.
type CouponService struct {
	catalog CatalogReader
	coupons CouponSource
	engine  *CouponEngine
	logger  *zap.Logger
	now     func() time.Time
}

// NewCouponService creates a new coupon preview service
func NewCouponService(catalog CatalogReader, coupons CouponSource, engine *CouponEngine) *CouponService {
	return &CouponService{
		catalog: catalog,
		coupons: coupons,
		engine:  engine,
		logger:  util.GetLogger(),
		now:     time.Now,
	}
}

// Preview validates a coupon against the current cart without consuming
// a usage slot.
func (s *CouponService) Preview(ctx context.Context, in *CouponPreviewInput) (*CouponResult, error) {
	ctx, span := util.StartSpan(ctx, "CouponService.Preview")
	defer span.End()

	now := s.now()

	menu, err := s.catalog.MenuByID(ctx, in.MenuID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve menu: %w", err)
	}
	if err := CheckMenuAvailability(menu, now); err != nil {
		return nil, err
	}

	dishIDs := make([]int64, len(in.Items))
	for i, item := range in.Items {
		dishIDs[i] = item.DishID
	}
	dishes, err := s.catalog.DishesByIDs(ctx, menu.BusinessID, dishIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dishes: %w", err)
	}
	snapshots, err := ValidateDishes(in.Items, dishes)
	if err != nil {
		return nil, err
	}

	var subtotal int64
	for _, item := range in.Items {
		subtotal += snapshots[item.DishID].PriceCents * int64(item.Quantity)
	}

	return s.engine.Validate(ctx, s.coupons, CouponRequest{
		Code:               in.CouponCode,
		BusinessID:         menu.BusinessID,
		CustomerPhone:      in.CustomerPhone,
		OrderSubtotalCents: subtotal,
		DishIDs:            dishIDs,
		Now:                now,
	})
}
