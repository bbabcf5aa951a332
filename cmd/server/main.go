package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ameedanxari/menumaker-sub002/config"
	"github.com/ameedanxari/menumaker-sub002/internal/api"
	"github.com/ameedanxari/menumaker-sub002/internal/broker"
	"github.com/ameedanxari/menumaker-sub002/internal/redisclient"
	"github.com/ameedanxari/menumaker-sub002/internal/service"
	"github.com/ameedanxari/menumaker-sub002/internal/store"
	"github.com/ameedanxari/menumaker-sub002/internal/util"
	"github.com/ameedanxari/menumaker-sub002/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting order core")

	tp, err := util.InitTracer("menumaker-order-core", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrderEvents)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	couponEngine := service.NewCouponEngine()
	orderService := service.NewOrderService(
		db, db, redisClient, couponEngine, eventPublisher,
		cfg.Checkout.IdempotencyTTL, cfg.Checkout.TransactionTimeout)
	statusService := service.NewStatusService(db, eventPublisher)
	couponService := service.NewCouponService(db, db, couponEngine)
	menuService := service.NewMenuService(db, redisClient, cfg.Checkout.MenuCacheTTL)
	paymentService := service.NewPaymentService(db, service.NewMockGateway(), eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	notificationConsumer := broker.NewConsumer(
		cfg.Kafka.Brokers, cfg.Kafka.TopicOrderEvents, cfg.Kafka.NotificationGroup)
	notificationWorker := worker.NewNotificationWorker(
		notificationConsumer, service.NewLogNotifier(),
		cfg.Checkout.NotifyMaxAttempts, cfg.Checkout.NotifyBaseBackoff)
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil {
			log.Printf("Notification worker error: %v", err)
		}
	}()

	paymentConsumer := broker.NewConsumer(
		cfg.Kafka.Brokers, cfg.Kafka.TopicOrderEvents, cfg.Kafka.PaymentGroup)
	paymentWorker := worker.NewPaymentWorker(paymentConsumer, paymentService)
	go func() {
		if err := paymentWorker.Start(workerCtx); err != nil {
			log.Printf("Payment worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService, statusService, couponService, menuService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	notificationWorker.Stop()
	paymentWorker.Stop()

	log.Println("Server exited")
}
