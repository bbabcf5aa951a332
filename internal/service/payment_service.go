package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/models"
	"github.com/ameedanxari/menumaker-sub002/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChargeResult is the opaque gateway outcome this core records.
type ChargeResult struct {
	Status    models.PaymentStatus
	Reference string
}

// PaymentGateway is the opaque charge capability. This core records
// payment status only; gateway protocols (Stripe, Razorpay) live behind
// this boundary.
type PaymentGateway interface {
	Charge(ctx context.Context, amountCents int64, method string) (*ChargeResult, error)
}

// MockGateway simulates a gateway with a configurable success rate.
type MockGateway struct {
	SuccessRate float64
}

// NewMockGateway creates a mock payment gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{SuccessRate: 0.9}
}

func (g *MockGateway) Charge(ctx context.Context, amountCents int64, method string) (*ChargeResult, error) {
	time.Sleep(time.Duration(100+rand.Intn(400)) * time.Millisecond)

	if rand.Float64() < g.SuccessRate {
		return &ChargeResult{
			Status:    models.PaymentStatusPaid,
			Reference: fmt.Sprintf("TXN-%s", uuid.New().String()[:8]),
		}, nil
	}
	return &ChargeResult{Status: models.PaymentStatusFailed}, nil
}

// PaymentStore records gateway outcomes on orders.
type PaymentStore interface {
	OrderByID(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, orderID int64, status models.PaymentStatus) error
}

// PaymentPublisher publishes payment outcomes.
type PaymentPublisher interface {
	PublishPaymentRecorded(ctx context.Context, event *models.PaymentRecordedEvent) error
}

// PaymentService charges committed online orders and records the
// outcome. It runs after commit, driven by OrderCreated events; a failed
// charge marks the order's payment failed but never unwinds the order.
type PaymentService struct {
	store   PaymentStore
	gateway PaymentGateway
	events  PaymentPublisher
	logger  *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store PaymentStore, gateway PaymentGateway, events PaymentPublisher) *PaymentService {
	return &PaymentService{
		store:   store,
		gateway: gateway,
		events:  events,
		logger:  util.GetLogger(),
	}
}

// RecordPayment charges the order amount and records the result.
func (ps *PaymentService) RecordPayment(ctx context.Context, orderID int64) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.RecordPayment")
	defer span.End()

	order, err := ps.store.OrderByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order %d does not exist", orderID)
	}
	if order.PaymentStatus != models.PaymentStatusPending {
		ps.logger.Info("Payment already recorded",
			zap.Int64("order_id", orderID),
			zap.String("status", string(order.PaymentStatus)))
		return nil
	}

	util.PaymentAttemptsTotal.Inc()

	result, err := ps.gateway.Charge(ctx, order.TotalCents, order.PaymentMethod)
	if err != nil {
		util.PaymentFailedTotal.Inc()
		return fmt.Errorf("gateway charge failed: %w", err)
	}

	if err := ps.store.UpdateOrderPaymentStatus(ctx, orderID, result.Status); err != nil {
		return fmt.Errorf("failed to record payment status: %w", err)
	}

	if result.Status == models.PaymentStatusPaid {
		util.PaymentSuccessTotal.Inc()
		ps.logger.Info("Payment recorded",
			zap.Int64("order_id", orderID),
			zap.String("tx_id", result.Reference))
	} else {
		util.PaymentFailedTotal.Inc()
		ps.logger.Warn("Payment declined", zap.Int64("order_id", orderID))
	}

	event := &models.PaymentRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentRecorded,
			Timestamp: time.Now(),
		},
		OrderID:   orderID,
		Status:    result.Status,
		Reference: order.Reference,
		TxID:      result.Reference,
		Amount:    order.TotalCents,
	}
	if err := ps.events.PublishPaymentRecorded(ctx, event); err != nil {
		ps.logger.Error("Failed to publish PaymentRecorded event", zap.Error(err))
	}

	return nil
}
