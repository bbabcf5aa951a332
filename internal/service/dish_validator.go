package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ameedanxari/menumaker-sub002/internal/fault"
	"github.com/ameedanxari/menumaker-sub002/internal/models"
)

// DishSnapshot is the per-dish view frozen into the order. Pricing and
// price_at_purchase both read from it, never from the live catalog row.
type DishSnapshot struct {
	Name       string
	PriceCents int64
}

// ValidateDishes resolves the requested cart lines against the dishes
// loaded for the business. Partial resolution is total failure; there are
// no partial orders.
func ValidateDishes(items []OrderItemInput, dishes []models.Dish) (map[int64]DishSnapshot, error) {
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fault.New(fault.CodeInvalidQuantity,
				"quantity for dish %d must be a positive integer", item.DishID)
		}
	}

	resolved := make(map[int64]models.Dish, len(dishes))
	for _, dish := range dishes {
		resolved[dish.ID] = dish
	}

	var missing, unavailable []int64
	for _, item := range items {
		dish, ok := resolved[item.DishID]
		if !ok {
			missing = append(missing, item.DishID)
			continue
		}
		if !dish.IsAvailable {
			unavailable = append(unavailable, item.DishID)
		}
	}

	if len(missing) > 0 {
		return nil, fault.New(fault.CodeDishNotFound, "dishes not found: %s", joinIDs(missing))
	}
	if len(unavailable) > 0 {
		return nil, fault.New(fault.CodeDishesUnavailable, "dishes unavailable: %s", joinIDs(unavailable))
	}

	snapshots := make(map[int64]DishSnapshot, len(items))
	for _, item := range items {
		dish := resolved[item.DishID]
		snapshots[item.DishID] = DishSnapshot{Name: dish.Name, PriceCents: dish.PriceCents}
	}
	return snapshots, nil
}

func joinIDs(ids []int64) string {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
