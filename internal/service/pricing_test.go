package service

import (
	"testing"

	"github.com/ameedanxari/menumaker-sub002/internal/fault"
	"github.com/ameedanxari/menumaker-sub002/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pickupSettings() *models.BusinessSettings {
	return &models.BusinessSettings{
		BusinessID:     1,
		DeliveryPolicy: models.DeliveryPolicyFlat,
		FlatFeeCents:   500,
	}
}

func TestComputePricingPickup(t *testing.T) {
	pricing, err := ComputePricing(PricingInput{
		Items: []OrderItemInput{
			{DishID: 1, Quantity: 2},
			{DishID: 2, Quantity: 1},
		},
		Snapshots: map[int64]DishSnapshot{
			1: {Name: "Biryani", PriceCents: 1500},
			2: {Name: "Raita", PriceCents: 300},
		},
		DeliveryType: models.DeliveryTypePickup,
		Settings:     pickupSettings(),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3300), pricing.SubtotalCents)
	assert.Equal(t, int64(0), pricing.DeliveryFeeCents)
	assert.Equal(t, int64(0), pricing.DiscountCents)
	assert.Equal(t, int64(3300), pricing.TotalCents)
}

func TestComputePricingTotalIdentity(t *testing.T) {
	// total == subtotal - discount + fee across quantity/price combos,
	// all in integer cents.
	cases := []struct {
		price    int64
		quantity int
		discount int64
	}{
		{1, 1, 0},
		{99, 7, 50},
		{1500, 2, 400},
		{333, 3, 999},
		{123456, 11, 100000},
	}

	for _, tc := range cases {
		settings := &models.BusinessSettings{
			BusinessID:     1,
			DeliveryPolicy: models.DeliveryPolicyFlat,
			FlatFeeCents:   700,
		}
		pricing, err := ComputePricing(PricingInput{
			Items:         []OrderItemInput{{DishID: 1, Quantity: tc.quantity}},
			Snapshots:     map[int64]DishSnapshot{1: {PriceCents: tc.price}},
			DeliveryType:  models.DeliveryTypeDelivery,
			Settings:      settings,
			DiscountCents: tc.discount,
		})
		require.NoError(t, err)

		subtotal := tc.price * int64(tc.quantity)
		discount := tc.discount
		if discount > subtotal {
			discount = subtotal
		}
		assert.Equal(t, subtotal, pricing.SubtotalCents)
		assert.Equal(t, subtotal-discount+700, pricing.TotalCents)
	}
}

func TestComputePricingDeliveryFees(t *testing.T) {
	items := []OrderItemInput{{DishID: 1, Quantity: 1}}
	snapshots := map[int64]DishSnapshot{1: {PriceCents: 2000}}

	t.Run("flat", func(t *testing.T) {
		pricing, err := ComputePricing(PricingInput{
			Items: items, Snapshots: snapshots,
			DeliveryType: models.DeliveryTypeDelivery,
			Settings: &models.BusinessSettings{
				DeliveryPolicy: models.DeliveryPolicyFlat,
				FlatFeeCents:   450,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(450), pricing.DeliveryFeeCents)
		assert.Equal(t, int64(2450), pricing.TotalCents)
	})

	t.Run("free", func(t *testing.T) {
		pricing, err := ComputePricing(PricingInput{
			Items: items, Snapshots: snapshots,
			DeliveryType: models.DeliveryTypeDelivery,
			Settings: &models.BusinessSettings{
				DeliveryPolicy: models.DeliveryPolicyFree,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), pricing.DeliveryFeeCents)
	})

	t.Run("disabled", func(t *testing.T) {
		_, err := ComputePricing(PricingInput{
			Items: items, Snapshots: snapshots,
			DeliveryType: models.DeliveryTypeDelivery,
			Settings: &models.BusinessSettings{
				DeliveryPolicy: models.DeliveryPolicyDisabled,
			},
		})
		assert.True(t, fault.IsCode(err, fault.CodeDeliveryNotEnabled))
	})

	t.Run("waived above threshold", func(t *testing.T) {
		pricing, err := ComputePricing(PricingInput{
			Items: items, Snapshots: snapshots,
			DeliveryType: models.DeliveryTypeDelivery,
			Settings: &models.BusinessSettings{
				DeliveryPolicy:            models.DeliveryPolicyFlat,
				FlatFeeCents:              450,
				MinOrderFreeDeliveryCents: 2000,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), pricing.DeliveryFeeCents)
	})
}

func TestComputePricingPerKmRounding(t *testing.T) {
	settings := func(rounding models.DistanceRounding) *models.BusinessSettings {
		return &models.BusinessSettings{
			DeliveryPolicy:   models.DeliveryPolicyPerKm,
			BaseFeeCents:     200,
			PerKmFeeCents:    100,
			DistanceRounding: rounding,
		}
	}

	cases := []struct {
		rounding models.DistanceRounding
		meters   int64
		wantFee  int64
	}{
		{models.DistanceRoundingRound, 2400, 200 + 2*100},
		{models.DistanceRoundingRound, 2500, 200 + 3*100},
		{models.DistanceRoundingCeil, 2001, 200 + 3*100},
		{models.DistanceRoundingCeil, 2000, 200 + 2*100},
		{models.DistanceRoundingFloor, 2999, 200 + 2*100},
		{models.DistanceRoundingFloor, 0, 200},
	}

	for _, tc := range cases {
		pricing, err := ComputePricing(PricingInput{
			Items:          []OrderItemInput{{DishID: 1, Quantity: 1}},
			Snapshots:      map[int64]DishSnapshot{1: {PriceCents: 1000}},
			DeliveryType:   models.DeliveryTypeDelivery,
			DistanceMeters: tc.meters,
			Settings:       settings(tc.rounding),
		})
		require.NoError(t, err)
		assert.Equal(t, tc.wantFee, pricing.DeliveryFeeCents,
			"rounding=%s meters=%d", tc.rounding, tc.meters)
	}
}

func TestComputePricingMinOrder(t *testing.T) {
	// The minimum applies to the pre-discount subtotal: a coupon cannot
	// buy an order under the minimum.
	_, err := ComputePricing(PricingInput{
		Items:         []OrderItemInput{{DishID: 1, Quantity: 2}},
		Snapshots:     map[int64]DishSnapshot{1: {PriceCents: 1500}},
		DeliveryType:  models.DeliveryTypePickup,
		Settings:      &models.BusinessSettings{MinOrderValueCents: 5000},
		DiscountCents: 1000,
	})
	assert.True(t, fault.IsCode(err, fault.CodeMinOrderNotMet))
}

func TestComputePricingDiscountClamped(t *testing.T) {
	pricing, err := ComputePricing(PricingInput{
		Items:         []OrderItemInput{{DishID: 1, Quantity: 1}},
		Snapshots:     map[int64]DishSnapshot{1: {PriceCents: 800}},
		DeliveryType:  models.DeliveryTypeDelivery,
		Settings:      &models.BusinessSettings{DeliveryPolicy: models.DeliveryPolicyFlat, FlatFeeCents: 300},
		DiscountCents: 5000,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(800), pricing.DiscountCents)
	assert.Equal(t, int64(300), pricing.TotalCents, "fee is still charged after a full discount")
}
