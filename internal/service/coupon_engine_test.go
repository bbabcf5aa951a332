package service

import (
	"context"
	"testing"
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCouponSource struct {
	coupon        *models.Coupon
	customerUsage int
	monthlyUsage  int
	gotSince      time.Time
}

func (f *fakeCouponSource) CouponByCode(ctx context.Context, businessID int64, code string) (*models.Coupon, error) {
	if f.coupon == nil || f.coupon.Code != models.NormalizeCouponCode(code) || f.coupon.BusinessID != businessID {
		return nil, nil
	}
	return f.coupon, nil
}

func (f *fakeCouponSource) CouponUsageCountForCustomer(ctx context.Context, couponID int64, customerPhone string) (int, error) {
	return f.customerUsage, nil
}

func (f *fakeCouponSource) CouponUsageCountSince(ctx context.Context, couponID int64, since time.Time) (int, error) {
	f.gotSince = since
	return f.monthlyUsage, nil
}

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func activeCoupon() *models.Coupon {
	return &models.Coupon{
		ID:            10,
		BusinessID:    1,
		Code:          "SAVE20",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 20,
		ValidFrom:     testNow.Add(-time.Hour),
		ValidUntil:    testNow.Add(time.Hour),
		UsageLimitType: models.UsageLimitUnlimited,
		ApplicableTo:   models.CouponAppliesAllDishes,
		Status:         models.CouponStatusActive,
	}
}

func baseRequest() CouponRequest {
	return CouponRequest{
		Code:               "save20",
		BusinessID:         1,
		CustomerPhone:      "+15550001",
		OrderSubtotalCents: 2000,
		DishIDs:            []int64{1, 2},
		Now:                testNow,
	}
}

func TestCouponEngineValidates(t *testing.T) {
	engine := NewCouponEngine()
	src := &fakeCouponSource{coupon: activeCoupon()}

	result, err := engine.Validate(context.Background(), src, baseRequest())
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, int64(400), result.DiscountCents, "20%% of 2000 cents")
	assert.Equal(t, "SAVE20", result.Coupon.Code, "lookup is case-insensitive")
}

func TestCouponEngineRejections(t *testing.T) {
	engine := NewCouponEngine()

	cases := []struct {
		name       string
		mutate     func(*fakeCouponSource)
		mutateReq  func(*CouponRequest)
		wantReason string
	}{
		{
			name:       "unknown code",
			mutateReq:  func(r *CouponRequest) { r.Code = "NOPE" },
			wantReason: ReasonCouponNotFound,
		},
		{
			name:       "wrong business",
			mutateReq:  func(r *CouponRequest) { r.BusinessID = 2 },
			wantReason: ReasonCouponNotFound,
		},
		{
			name:       "archived",
			mutate:     func(f *fakeCouponSource) { f.coupon.Status = models.CouponStatusArchived },
			wantReason: ReasonCouponNotActive,
		},
		{
			name:       "not yet valid",
			mutate:     func(f *fakeCouponSource) { f.coupon.ValidFrom = testNow.Add(time.Minute) },
			wantReason: ReasonCouponNotYetValid,
		},
		{
			name:       "expired",
			mutate:     func(f *fakeCouponSource) { f.coupon.ValidUntil = testNow.Add(-time.Minute) },
			wantReason: ReasonCouponExpired,
		},
		{
			name:       "below minimum order",
			mutate:     func(f *fakeCouponSource) { f.coupon.MinOrderValueCents = 5000 },
			wantReason: ReasonCouponMinOrder,
		},
		{
			name: "not applicable to cart",
			mutate: func(f *fakeCouponSource) {
				f.coupon.ApplicableTo = models.CouponAppliesSpecificDishes
				f.coupon.ApplicableDishIDs = []int64{8, 9}
			},
			wantReason: ReasonCouponNotApplicable,
		},
		{
			name: "per-customer limit hit",
			mutate: func(f *fakeCouponSource) {
				f.coupon.UsageLimitType = models.UsageLimitPerCustomer
				f.coupon.PerCustomerLimit = 1
				f.customerUsage = 1
			},
			wantReason: ReasonCouponAlreadyUsed,
		},
		{
			name: "monthly limit hit",
			mutate: func(f *fakeCouponSource) {
				f.coupon.UsageLimitType = models.UsageLimitPerMonth
				f.coupon.PerMonthLimit = 50
				f.monthlyUsage = 50
			},
			wantReason: ReasonCouponLimitReached,
		},
		{
			name: "total limit hit",
			mutate: func(f *fakeCouponSource) {
				f.coupon.UsageLimitType = models.UsageLimitTotal
				f.coupon.TotalUsageLimit = 100
				f.coupon.TotalUsageCount = 100
			},
			wantReason: ReasonCouponLimitReached,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeCouponSource{coupon: activeCoupon()}
			if tc.mutate != nil {
				tc.mutate(src)
			}
			req := baseRequest()
			if tc.mutateReq != nil {
				tc.mutateReq(&req)
			}

			result, err := engine.Validate(context.Background(), src, req)
			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.Equal(t, tc.wantReason, result.Reason)
			assert.Zero(t, result.DiscountCents)
		})
	}
}

func TestCouponEngineWindowBoundariesInclusive(t *testing.T) {
	engine := NewCouponEngine()

	t.Run("valid at valid_from", func(t *testing.T) {
		src := &fakeCouponSource{coupon: activeCoupon()}
		src.coupon.ValidFrom = testNow
		result, err := engine.Validate(context.Background(), src, baseRequest())
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("valid at valid_until", func(t *testing.T) {
		src := &fakeCouponSource{coupon: activeCoupon()}
		src.coupon.ValidUntil = testNow
		result, err := engine.Validate(context.Background(), src, baseRequest())
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})
}

func TestCouponEngineSpecificDishesIntersect(t *testing.T) {
	engine := NewCouponEngine()
	src := &fakeCouponSource{coupon: activeCoupon()}
	src.coupon.ApplicableTo = models.CouponAppliesSpecificDishes
	src.coupon.ApplicableDishIDs = []int64{1, 5}

	req := baseRequest() // cart has dishes 1 and 2
	result, err := engine.Validate(context.Background(), src, req)
	require.NoError(t, err)
	assert.True(t, result.Valid, "one overlapping dish is enough")
}

func TestCouponEngineDiscountMath(t *testing.T) {
	engine := NewCouponEngine()

	t.Run("percentage uncapped", func(t *testing.T) {
		src := &fakeCouponSource{coupon: activeCoupon()}
		result, err := engine.Validate(context.Background(), src, baseRequest())
		require.NoError(t, err)
		assert.Equal(t, int64(400), result.DiscountCents)
	})

	t.Run("percentage capped", func(t *testing.T) {
		src := &fakeCouponSource{coupon: activeCoupon()}
		src.coupon.MaxDiscountCents = 300
		result, err := engine.Validate(context.Background(), src, baseRequest())
		require.NoError(t, err)
		assert.Equal(t, int64(300), result.DiscountCents)
	})

	t.Run("fixed", func(t *testing.T) {
		src := &fakeCouponSource{coupon: activeCoupon()}
		src.coupon.DiscountType = models.DiscountTypeFixed
		src.coupon.DiscountValue = 250
		result, err := engine.Validate(context.Background(), src, baseRequest())
		require.NoError(t, err)
		assert.Equal(t, int64(250), result.DiscountCents)
	})
}

func TestCouponEngineMonthlyWindowIsUTCCalendarMonth(t *testing.T) {
	engine := NewCouponEngine()
	src := &fakeCouponSource{coupon: activeCoupon()}
	src.coupon.UsageLimitType = models.UsageLimitPerMonth
	src.coupon.PerMonthLimit = 100

	_, err := engine.Validate(context.Background(), src, baseRequest())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), src.gotSince)
}
