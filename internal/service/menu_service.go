package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/models"
	"github.com/ameedanxari/menumaker-sub002/internal/util"

	"go.uber.org/zap"
)

// CatalogReader serves non-transactional catalog reads.
type CatalogReader interface {
	MenuByID(ctx context.Context, id int64) (*models.Menu, error)
	DishesByIDs(ctx context.Context, businessID int64, ids []int64) ([]models.Dish, error)
	AvailableDishesByBusiness(ctx context.Context, businessID int64) ([]models.Dish, error)
}

// MenuCache caches menu snapshots for the read path.
type MenuCache interface {
	GetMenuSnapshot(ctx context.Context, menuID int64, dest interface{}) (bool, error)
	CacheMenuSnapshot(ctx context.Context, menuID int64, snapshot interface{}, ttl time.Duration) error
}

// MenuSnapshot is the customer-facing read model of a live menu.
type MenuSnapshot struct {
	Menu   models.Menu   `json:"menu"`
	Dishes []models.Dish `json:"dishes"`
}

// MenuService serves the published-menu read path, cache-first with
// Postgres fallthrough. Cache failures are logged, never surfaced.
type MenuService struct {
	catalog  CatalogReader
	cache    MenuCache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewMenuService creates a new menu service
func NewMenuService(catalog CatalogReader, cache MenuCache, cacheTTL time.Duration) *MenuService {
	return &MenuService{
		catalog:  catalog,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
		now:      time.Now,
	}
}

// GetMenu returns the orderable snapshot of a menu. The same
// availability gate as checkout applies, so clients cannot browse a menu
// they could not order from.
func (s *MenuService) GetMenu(ctx context.Context, menuID int64) (*MenuSnapshot, error) {
	ctx, span := util.StartSpan(ctx, "MenuService.GetMenu")
	defer span.End()

	if s.cache != nil {
		var snapshot MenuSnapshot
		hit, err := s.cache.GetMenuSnapshot(ctx, menuID, &snapshot)
		if err != nil {
			s.logger.Warn("Menu cache read failed", zap.Int64("menu_id", menuID), zap.Error(err))
		} else if hit {
			util.MenuCacheHitsTotal.WithLabelValues("hit").Inc()
			return &snapshot, nil
		}
		util.MenuCacheHitsTotal.WithLabelValues("miss").Inc()
	}

	menu, err := s.catalog.MenuByID(ctx, menuID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve menu: %w", err)
	}
	if err := CheckMenuAvailability(menu, s.now()); err != nil {
		return nil, err
	}

	dishes, err := s.catalog.AvailableDishesByBusiness(ctx, menu.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dishes: %w", err)
	}

	snapshot := &MenuSnapshot{Menu: *menu, Dishes: dishes}
	if s.cache != nil {
		if err := s.cache.CacheMenuSnapshot(ctx, menuID, snapshot, s.cacheTTL); err != nil {
			s.logger.Warn("Menu cache write failed", zap.Int64("menu_id", menuID), zap.Error(err))
		}
	}
	return snapshot, nil
}
