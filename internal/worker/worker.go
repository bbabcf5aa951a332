package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/broker"
	"github.com/ameedanxari/menumaker-sub002/internal/models"
	"github.com/ameedanxari/menumaker-sub002/internal/service"
	"github.com/ameedanxari/menumaker-sub002/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NotificationWorker delivers seller/customer notifications for
// committed orders. Delivery is retried with capped backoff; exhausting
// retries drops the notification with a log line, never affecting the
// order itself.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(
	consumer *broker.Consumer,
	notifier service.NotificationService,
	maxAttempts int,
	baseBackoff time.Duration,
) *NotificationWorker {
	logger := util.GetLogger()
	eventHandler := broker.NewEventHandler()

	eventHandler.OnOrderCreated(func(ctx context.Context, event *models.OrderCreatedEvent) error {
		return deliverWithRetry(ctx, logger, maxAttempts, baseBackoff, func() error {
			return notifier.NotifySellerNewOrder(ctx, event)
		})
	})
	eventHandler.OnOrderStatusChanged(func(ctx context.Context, event *models.OrderStatusChangedEvent) error {
		return deliverWithRetry(ctx, logger, maxAttempts, baseBackoff, func() error {
			return notifier.NotifyCustomerOrderStatus(ctx, event)
		})
	})

	return &NotificationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       logger,
	}
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

// maxNotifyBackoff bounds the retry sleep regardless of how many
// attempts are configured.
const maxNotifyBackoff = 30 * time.Second

// deliverWithRetry attempts delivery with capped exponential backoff. It
// always returns nil so the message commits: a notification that
// exhausted its retries is logged and dropped, not redelivered forever.
func deliverWithRetry(ctx context.Context, logger *zap.Logger, maxAttempts int, baseBackoff time.Duration, deliver func() error) error {
	backoff := baseBackoff
	for attempt := 1; ; attempt++ {
		util.NotificationAttemptsTotal.Inc()
		err := deliver()
		if err == nil {
			return nil
		}
		if attempt >= maxAttempts {
			util.NotificationFailedTotal.Inc()
			logger.Error("Notification delivery exhausted retries",
				zap.Int("attempts", attempt), zap.Error(err))
			return nil
		}
		logger.Warn("Notification delivery failed, retrying",
			zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxNotifyBackoff {
		return maxNotifyBackoff
	}
	return d
}

// PaymentWorker charges committed online orders.
type PaymentWorker struct {
	consumer       *broker.Consumer
	paymentService *service.PaymentService
}

// NewPaymentWorker creates a new payment worker
func NewPaymentWorker(consumer *broker.Consumer, paymentService *service.PaymentService) *PaymentWorker {
	return &PaymentWorker{
		consumer:       consumer,
		paymentService: paymentService,
	}
}

// Start starts the payment worker
func (pw *PaymentWorker) Start(ctx context.Context) error {
	log.Println("Starting payment worker...")

	return pw.consumer.StartConsuming(ctx, func(ctx context.Context, msg kafka.Message) error {
		var baseEvent models.BaseEvent
		if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
			log.Printf("Failed to unmarshal event: %v", err)
			return err
		}

		if baseEvent.EventType != models.EventTypeOrderCreated {
			return nil
		}

		var event models.OrderCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("Failed to unmarshal OrderCreated event: %v", err)
			return err
		}

		// Cash settles at handover; only online payments go through
		// the gateway.
		if event.PaymentMethod != "online" {
			return nil
		}

		log.Printf("Recording payment for order: %d", event.OrderID)
		return pw.paymentService.RecordPayment(ctx, event.OrderID)
	})
}

// Stop stops the payment worker
func (pw *PaymentWorker) Stop() error {
	log.Println("Stopping payment worker...")
	return pw.consumer.Close()
}
