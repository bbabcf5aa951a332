package service

import (
	"context"

	"github.com/ameedanxari/menumaker-sub002/internal/models"
	"github.com/ameedanxari/menumaker-sub002/internal/util"

	"go.uber.org/zap"
)

// NotificationService is the collaborator boundary for seller/customer
// messaging (WhatsApp, email). Delivery is fire-and-forget from the
// order pipeline's point of view: it runs post-commit and can never fail
// or roll back an order.
type NotificationService interface {
	NotifySellerNewOrder(ctx context.Context, event *models.OrderCreatedEvent) error
	NotifyCustomerOrderStatus(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// LogNotifier is the development implementation: it records what would
// have been sent. Real channel integrations plug in behind the same
// interface.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a logging notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: util.GetLogger()}
}

func (n *LogNotifier) NotifySellerNewOrder(ctx context.Context, event *models.OrderCreatedEvent) error {
	n.logger.Info("Seller notification: new order",
		zap.Int64("business_id", event.BusinessID),
		zap.Int64("order_id", event.OrderID),
		zap.String("reference", event.Reference),
		zap.Int64("total_cents", event.TotalCents))
	return nil
}

func (n *LogNotifier) NotifyCustomerOrderStatus(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	n.logger.Info("Customer notification: order status",
		zap.String("customer_phone", event.CustomerPhone),
		zap.Int64("order_id", event.OrderID),
		zap.String("status", string(event.ToStatus)))
	return nil
}
