package service

import (
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/fault"
	"github.com/ameedanxari/menumaker-sub002/internal/models"
)

// CheckMenuAvailability decides whether a menu is orderable at the given
// instant. The coordinator calls this inside the checkout transaction so
// a menu unpublished mid-checkout cannot slip through.
func CheckMenuAvailability(menu *models.Menu, now time.Time) error {
	if menu == nil {
		return fault.New(fault.CodeMenuNotFound, "menu does not exist")
	}
	if menu.Status != models.MenuStatusPublished {
		return fault.New(fault.CodeMenuNotAvailable, "menu %d is not published", menu.ID)
	}
	if !models.WindowContains(menu.StartDate, menu.EndDate, now) {
		if now.Before(menu.StartDate) {
			return fault.New(fault.CodeMenuNotYetAvailable, "menu %d opens at %s", menu.ID, menu.StartDate.Format(time.RFC3339))
		}
		return fault.New(fault.CodeMenuExpired, "menu %d closed at %s", menu.ID, menu.EndDate.Format(time.RFC3339))
	}
	return nil
}
