package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/models"
	"github.com/ameedanxari/menumaker-sub002/internal/util"

	"go.uber.org/zap"
)

// CouponSource is the view of coupon state the engine validates against.
// During checkout this is the open transaction (which locks the coupon
// row); the preview endpoint passes a plain non-locking reader.
type CouponSource interface {
	CouponByCode(ctx context.Context, businessID int64, code string) (*models.Coupon, error)
	CouponUsageCountForCustomer(ctx context.Context, couponID int64, customerPhone string) (int, error)
	CouponUsageCountSince(ctx context.Context, couponID int64, since time.Time) (int, error)
}

// CouponRequest is one validation attempt.
type CouponRequest struct {
	Code               string
	BusinessID         int64
	CustomerPhone      string
	OrderSubtotalCents int64
	DishIDs            []int64
	Now                time.Time
}

// CouponResult is the structured outcome of validation. An invalid coupon
// is an expected, recoverable branch of checkout, so it is a result, not
// an error; errors are reserved for infrastructure failures.
type CouponResult struct {
	Valid         bool          `json:"valid"`
	Reason        string        `json:"reason,omitempty"`
	DiscountCents int64         `json:"discount_cents"`
	Coupon        *models.Coupon `json:"-"`
}

// Rejection reasons, fixed client-facing strings.
const (
	ReasonCouponNotFound      = "Coupon not found"
	ReasonCouponNotActive     = "Coupon is not active"
	ReasonCouponNotYetValid   = "Coupon is not yet valid"
	ReasonCouponExpired       = "Coupon has expired"
	ReasonCouponMinOrder      = "Minimum order value not met"
	ReasonCouponNotApplicable = "Coupon not applicable to items in cart"
	ReasonCouponAlreadyUsed   = "You have already used this coupon"
	ReasonCouponLimitReached  = "Coupon usage limit reached"
)

var reasonSlugs = map[string]string{
	ReasonCouponNotFound:      "not_found",
	ReasonCouponNotActive:     "not_active",
	ReasonCouponNotYetValid:   "not_yet_valid",
	ReasonCouponExpired:       "expired",
	ReasonCouponMinOrder:      "min_order",
	ReasonCouponNotApplicable: "not_applicable",
	ReasonCouponAlreadyUsed:   "already_used",
	ReasonCouponLimitReached:  "limit_reached",
}

// CouponEngine validates coupon codes and computes discounts.
type CouponEngine struct {
	logger *zap.Logger
}

// NewCouponEngine creates a new coupon validation engine
func NewCouponEngine() *CouponEngine {
	return &CouponEngine{logger: util.GetLogger()}
}

// Validate runs the full validation chain, short-circuiting on the first
// failure, in a fixed order: existence, status, time window, minimum
// order, dish applicability, usage limits. Codes match case-insensitively.
func (e *CouponEngine) Validate(ctx context.Context, src CouponSource, req CouponRequest) (*CouponResult, error) {
	coupon, err := src.CouponByCode(ctx, req.BusinessID, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve coupon: %w", err)
	}
	if coupon == nil {
		return e.reject(ReasonCouponNotFound), nil
	}

	if coupon.Status != models.CouponStatusActive {
		return e.reject(ReasonCouponNotActive), nil
	}
	if !models.WindowContains(coupon.ValidFrom, coupon.ValidUntil, req.Now) {
		if req.Now.Before(coupon.ValidFrom) {
			return e.reject(ReasonCouponNotYetValid), nil
		}
		return e.reject(ReasonCouponExpired), nil
	}
	if req.OrderSubtotalCents < coupon.MinOrderValueCents {
		return e.reject(ReasonCouponMinOrder), nil
	}
	if !coupon.AppliesToAny(req.DishIDs) {
		return e.reject(ReasonCouponNotApplicable), nil
	}

	if reason, err := e.checkUsageLimit(ctx, src, coupon, req); err != nil {
		return nil, err
	} else if reason != "" {
		return e.reject(reason), nil
	}

	return &CouponResult{
		Valid:         true,
		DiscountCents: computeDiscount(coupon, req.OrderSubtotalCents),
		Coupon:        coupon,
	}, nil
}

func (e *CouponEngine) checkUsageLimit(ctx context.Context, src CouponSource, coupon *models.Coupon, req CouponRequest) (string, error) {
	switch coupon.UsageLimitType {
	case models.UsageLimitPerCustomer:
		used, err := src.CouponUsageCountForCustomer(ctx, coupon.ID, req.CustomerPhone)
		if err != nil {
			return "", fmt.Errorf("failed to count customer usage: %w", err)
		}
		if used >= coupon.PerCustomerLimit {
			return ReasonCouponAlreadyUsed, nil
		}

	case models.UsageLimitPerMonth:
		// UTC calendar months; see DESIGN.md.
		monthStart := time.Date(req.Now.UTC().Year(), req.Now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
		used, err := src.CouponUsageCountSince(ctx, coupon.ID, monthStart)
		if err != nil {
			return "", fmt.Errorf("failed to count monthly usage: %w", err)
		}
		if used >= coupon.PerMonthLimit {
			return ReasonCouponLimitReached, nil
		}

	case models.UsageLimitTotal:
		if coupon.TotalUsageCount >= coupon.TotalUsageLimit {
			return ReasonCouponLimitReached, nil
		}
	}
	return "", nil
}

func (e *CouponEngine) reject(reason string) *CouponResult {
	util.CouponValidationFailedTotal.WithLabelValues(reasonSlugs[reason]).Inc()
	e.logger.Debug("Coupon rejected", zap.String("reason", reason))
	return &CouponResult{Valid: false, Reason: reason}
}

// computeDiscount returns the discount in cents: fixed coupons discount a
// flat amount, percentage coupons a share of the subtotal capped at
// MaxDiscountCents when set. Integer arithmetic throughout.
func computeDiscount(coupon *models.Coupon, subtotalCents int64) int64 {
	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		discount := subtotalCents * coupon.DiscountValue / 100
		if coupon.MaxDiscountCents > 0 && discount > coupon.MaxDiscountCents {
			discount = coupon.MaxDiscountCents
		}
		return discount
	default:
		return coupon.DiscountValue
	}
}
