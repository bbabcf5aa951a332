package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/fault"
	"github.com/ameedanxari/menumaker-sub002/internal/models"
	"github.com/ameedanxari/menumaker-sub002/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatusStore persists status transitions with an optimistic guard on the
// current status.
type StatusStore interface {
	OrderByID(ctx context.Context, id int64) (*models.Order, error)
	TransitionOrderStatus(ctx context.Context, orderID int64, from, to models.OrderStatus, fulfilledAt *time.Time) (bool, error)
}

// StatusService drives the post-creation order lifecycle:
// pending -> confirmed -> preparing -> ready -> out_for_delivery -> fulfilled,
// with cancelled reachable from any non-terminal state. Transitions are
// monotonic; nothing moves backward.
type StatusService struct {
	orders StatusStore
	events EventSink
	logger *zap.Logger
	now    func() time.Time
}

// NewStatusService creates a new status service
func NewStatusService(orders StatusStore, events EventSink) *StatusService {
	return &StatusService{
		orders: orders,
		events: events,
		logger: util.GetLogger(),
		now:    time.Now,
	}
}

// Transition moves an order to target if target is a direct successor of
// its current status (or cancelled). Entering fulfilled stamps
// fulfilled_at. The state write commits independently of notification
// delivery.
func (s *StatusService) Transition(ctx context.Context, orderID int64, target models.OrderStatus, actor string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "StatusService.Transition")
	defer span.End()

	if !models.ValidStatus(target) {
		return nil, fault.New(fault.CodeInvalidTransition, "unknown order status %q", target)
	}

	order, err := s.orders.OrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, fault.New(fault.CodeOrderNotFound, "order %d does not exist", orderID)
	}

	if order.OrderStatus.Terminal() {
		return nil, fault.New(fault.CodeOrderTerminal,
			"order %d is already %s", orderID, order.OrderStatus)
	}
	if !models.CanTransition(order.OrderStatus, target) {
		return nil, fault.New(fault.CodeInvalidTransition,
			"cannot move order %d from %s to %s", orderID, order.OrderStatus, target)
	}

	var fulfilledAt *time.Time
	if target == models.OrderStatusFulfilled {
		t := s.now()
		fulfilledAt = &t
	}

	moved, err := s.orders.TransitionOrderStatus(ctx, orderID, order.OrderStatus, target, fulfilledAt)
	if err != nil {
		return nil, fmt.Errorf("failed to persist transition: %w", err)
	}
	if !moved {
		// Someone else transitioned the order between our read and
		// write; the guard kept us from jumping states.
		return nil, fault.New(fault.CodeInvalidTransition,
			"order %d status changed concurrently", orderID)
	}

	util.OrderStatusTransitionsTotal.WithLabelValues(string(target)).Inc()
	s.logger.Info("Order status transitioned",
		zap.Int64("order_id", orderID),
		zap.String("from", string(order.OrderStatus)),
		zap.String("to", string(target)),
		zap.String("actor", actor))

	from := order.OrderStatus
	order.OrderStatus = target
	order.FulfilledAt = fulfilledAt

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: s.now(),
		},
		OrderID:       order.ID,
		Reference:     order.Reference,
		BusinessID:    order.BusinessID,
		CustomerPhone: order.CustomerPhone,
		FromStatus:    from,
		ToStatus:      target,
		Actor:         actor,
	}
	if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}

	return order, nil
}
