package service

import (
	"github.com/ameedanxari/menumaker-sub002/internal/fault"
	"github.com/ameedanxari/menumaker-sub002/internal/models"
)

// Pricing is the cent-exact price breakdown of a checkout. All arithmetic
// here is integer cents; floating point is a correctness bug in this
// pipeline, not a tolerance.
type Pricing struct {
	SubtotalCents    int64
	DiscountCents    int64
	DeliveryFeeCents int64
	TotalCents       int64
}

// PricingInput carries everything ComputePricing needs. DiscountCents is
// the amount already computed by coupon validation, zero when no coupon
// was applied.
type PricingInput struct {
	Items          []OrderItemInput
	Snapshots      map[int64]DishSnapshot
	DeliveryType   models.DeliveryType
	DistanceMeters int64
	Settings       *models.BusinessSettings
	DiscountCents  int64
}

// ComputePricing combines subtotal, delivery fee and discount into the
// final total. Deterministic and side-effect free.
//
// The minimum-order policy is evaluated on the pre-discount subtotal so
// discounts cannot be used to dodge it.
func ComputePricing(in PricingInput) (*Pricing, error) {
	var subtotal int64
	for _, item := range in.Items {
		subtotal += in.Snapshots[item.DishID].PriceCents * int64(item.Quantity)
	}

	if subtotal < in.Settings.MinOrderValueCents {
		return nil, fault.New(fault.CodeMinOrderNotMet,
			"order subtotal %d below business minimum %d", subtotal, in.Settings.MinOrderValueCents)
	}

	fee, err := deliveryFee(subtotal, in.DeliveryType, in.DistanceMeters, in.Settings)
	if err != nil {
		return nil, err
	}

	discount := in.DiscountCents
	if discount > subtotal {
		discount = subtotal
	}

	return &Pricing{
		SubtotalCents:    subtotal,
		DiscountCents:    discount,
		DeliveryFeeCents: fee,
		TotalCents:       subtotal - discount + fee,
	}, nil
}

func deliveryFee(subtotal int64, deliveryType models.DeliveryType, distanceMeters int64, settings *models.BusinessSettings) (int64, error) {
	if deliveryType != models.DeliveryTypeDelivery {
		return 0, nil
	}

	if settings.DeliveryPolicy == models.DeliveryPolicyDisabled {
		return 0, fault.New(fault.CodeDeliveryNotEnabled, "business %d does not deliver", settings.BusinessID)
	}

	if settings.MinOrderFreeDeliveryCents > 0 && subtotal >= settings.MinOrderFreeDeliveryCents {
		return 0, nil
	}

	switch settings.DeliveryPolicy {
	case models.DeliveryPolicyFree:
		return 0, nil
	case models.DeliveryPolicyFlat:
		return settings.FlatFeeCents, nil
	case models.DeliveryPolicyPerKm:
		return settings.BaseFeeCents + settings.PerKmFeeCents*roundKilometers(distanceMeters, settings.DistanceRounding), nil
	default:
		return 0, fault.New(fault.CodeDeliveryNotEnabled,
			"business %d has unknown delivery policy %q", settings.BusinessID, settings.DeliveryPolicy)
	}
}

// roundKilometers converts meters to whole kilometers under the
// configured rounding policy. The policy affects cents charged, so it
// must match the configuration exactly.
func roundKilometers(meters int64, rounding models.DistanceRounding) int64 {
	if meters <= 0 {
		return 0
	}
	switch rounding {
	case models.DistanceRoundingCeil:
		return (meters + 999) / 1000
	case models.DistanceRoundingFloor:
		return meters / 1000
	default: // round
		return (meters + 500) / 1000
	}
}
