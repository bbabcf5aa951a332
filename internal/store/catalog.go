package store

import (
	"context"

	"github.com/ameedanxari/menumaker-sub002/internal/models"

	"github.com/jmoiron/sqlx"
)

// MenuByID retrieves a menu by ID, nil if it does not exist.
func (q *queries) MenuByID(ctx context.Context, id int64) (*models.Menu, error) {
	var menu models.Menu
	err := sqlx.GetContext(ctx, q.ext, &menu, "SELECT * FROM menus WHERE id = $1", id)
	if missing, err := noRows(err); missing || err != nil {
		return nil, err
	}
	return &menu, nil
}

// SettingsByBusinessID retrieves the ordering policy for a business,
// nil if the business was never configured.
func (q *queries) SettingsByBusinessID(ctx context.Context, businessID int64) (*models.BusinessSettings, error) {
	var settings models.BusinessSettings
	err := sqlx.GetContext(ctx, q.ext, &settings,
		"SELECT * FROM business_settings WHERE business_id = $1", businessID)
	if missing, err := noRows(err); missing || err != nil {
		return nil, err
	}
	return &settings, nil
}

// DishesByIDs bulk-resolves dishes by ID, scoped to one business. IDs
// that do not resolve are simply absent from the result; the caller
// decides whether partial resolution is a failure.
func (q *queries) DishesByIDs(ctx context.Context, businessID int64, ids []int64) ([]models.Dish, error) {
	if len(ids) == 0 {
		return []models.Dish{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT * FROM dishes WHERE business_id = ? AND id IN (?)", businessID, ids)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var dishes []models.Dish
	err = sqlx.SelectContext(ctx, q.ext, &dishes, query, args...)
	return dishes, err
}

// AvailableDishesByBusiness retrieves the orderable dishes of a business,
// used by the menu read path.
func (q *queries) AvailableDishesByBusiness(ctx context.Context, businessID int64) ([]models.Dish, error) {
	var dishes []models.Dish
	err := sqlx.SelectContext(ctx, q.ext, &dishes,
		"SELECT * FROM dishes WHERE business_id = $1 AND is_available = true ORDER BY category, name", businessID)
	return dishes, err
}
