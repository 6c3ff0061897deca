package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foodops/localfood/internal/adapter/logger"
	"github.com/foodops/localfood/internal/adapter/postgres"
	"github.com/foodops/localfood/internal/adapter/rabbitmq"
	"github.com/foodops/localfood/internal/app/kitchen"
	"github.com/foodops/localfood/internal/app/menu"
	"github.com/foodops/localfood/internal/app/scheduling"
	"github.com/foodops/localfood/internal/app/stock"
	"github.com/foodops/localfood/internal/config"
	"github.com/foodops/localfood/internal/interfaces"
	"github.com/foodops/localfood/internal/scheduler"

	amqpAdapter "github.com/foodops/localfood/internal/adapter/amqp"
	httpAdapter "github.com/foodops/localfood/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "", "Service mode: api-service, scheduler, notification-subscriber")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	ctx := context.Background()

	// Initialize logger
	lgr := logger.New(*mode)

	// Connect to PostgreSQL
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	// Connect to RabbitMQ
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	switch *mode {
	case "api-service":
		runAPIService(db, mqConn, lgr, cfg)

	case "scheduler":
		runScheduler(db, mqConn, lgr, cfg)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, mqConn, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runAPIService(db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger, cfg *config.Config) {
	// Initialize repositories
	batchRepo := postgres.NewBatchRepository(db)
	kitchenRepo := postgres.NewKitchenRepository(db)
	kitchenOrderRepo := postgres.NewKitchenOrderRepository(db)
	scheduledRepo := postgres.NewScheduledOrderRepository(db)
	slotRepo := postgres.NewMenuTimeSlotRepository(db)
	zoneRepo := postgres.NewDeliveryZoneRepository(db)
	orderGateway := postgres.NewOrderGateway(db)

	// Initialize messaging
	publisher := rabbitmq.NewPublisher(mqConn)

	// Initialize services
	stockService := stock.NewService(batchRepo, publisher, lgr)
	kitchenService := kitchen.NewService(kitchenRepo, kitchenOrderRepo, scheduledRepo, orderGateway, lgr).
		WithDispatchLead(cfg.Scheduler.DispatchLead())
	schedulingService := scheduling.NewService(scheduledRepo, zoneRepo, orderGateway, lgr)
	menuService := menu.NewService(slotRepo, lgr)

	// Initialize HTTP handlers
	stockHandler := httpAdapter.NewStockHandler(stockService, lgr)
	kitchenHandler := httpAdapter.NewKitchenHandler(kitchenService, lgr)
	schedulingHandler := httpAdapter.NewSchedulingHandler(schedulingService, lgr)
	menuHandler := httpAdapter.NewMenuHandler(menuService, lgr)

	// Setup HTTP server
	mux := http.NewServeMux()
	mux.HandleFunc("/stock/batches", stockHandler.HandleBatches)
	mux.HandleFunc("/stock/batches/", stockHandler.HandleBatches)
	mux.HandleFunc("/stock/expiring", stockHandler.GetExpiring)
	mux.HandleFunc("/stock/fifo-recommendations", stockHandler.GetFIFORecommendations)
	mux.HandleFunc("/kitchens", kitchenHandler.HandleKitchens)
	mux.HandleFunc("/kitchens/", kitchenHandler.HandleKitchens)
	mux.HandleFunc("/kitchen-orders", kitchenHandler.HandleKitchenOrders)
	mux.HandleFunc("/kitchen-orders/", kitchenHandler.HandleKitchenOrders)
	mux.HandleFunc("/scheduled-orders", schedulingHandler.HandleScheduledOrders)
	mux.HandleFunc("/scheduled-orders/", schedulingHandler.HandleScheduledOrders)
	mux.HandleFunc("/delivery-zones", schedulingHandler.HandleDeliveryZones)
	mux.HandleFunc("/delivery-zones/", schedulingHandler.HandleDeliveryZones)
	mux.HandleFunc("/menu/time-slots", menuHandler.HandleTimeSlots)
	mux.HandleFunc("/menu/time-slots/", menuHandler.HandleTimeSlots)
	mux.HandleFunc("/menu/availability", menuHandler.GetAvailability)

	// Apply middleware
	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("API Service started on port %d", cfg.HTTP.Port), "startup", map[string]interface{}{
		"port": cfg.HTTP.Port,
	})

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down API Service", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runScheduler(db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger, cfg *config.Config) {
	// Initialize repositories
	batchRepo := postgres.NewBatchRepository(db)
	kitchenRepo := postgres.NewKitchenRepository(db)
	kitchenOrderRepo := postgres.NewKitchenOrderRepository(db)
	scheduledRepo := postgres.NewScheduledOrderRepository(db)
	orderGateway := postgres.NewOrderGateway(db)

	// Initialize messaging
	publisher := rabbitmq.NewPublisher(mqConn)

	// Initialize services
	stockService := stock.NewService(batchRepo, publisher, lgr)
	kitchenService := kitchen.NewService(kitchenRepo, kitchenOrderRepo, scheduledRepo, orderGateway, lgr).
		WithDispatchLead(cfg.Scheduler.DispatchLead()).
		WithCleanupAge(time.Duration(cfg.Scheduler.CleanupAgeDays) * 24 * time.Hour)

	sched := scheduler.New(lgr, cfg.Scheduler.RetryDelay())

	sched.Register(scheduler.Job{
		Name:     "expired_stock_sweep",
		Interval: cfg.Scheduler.SweepInterval(),
		Retries:  cfg.Scheduler.JobRetries,
		Run: func(ctx context.Context, now time.Time) error {
			_, err := stockService.SweepExpired(ctx, now)
			return err
		},
	})
	sched.Register(scheduler.Job{
		Name:     "expiring_stock_check",
		Interval: cfg.Scheduler.ExpiryCheckInterval(),
		Retries:  cfg.Scheduler.JobRetries,
		Run: func(ctx context.Context, now time.Time) error {
			_, err := stockService.CheckExpiringStock(ctx, now, cfg.Scheduler.ExpiryDaysAhead)
			return err
		},
	})
	sched.Register(scheduler.Job{
		Name:     "estimate_recompute",
		Interval: cfg.Scheduler.RecomputeInterval(),
		Retries:  cfg.Scheduler.JobRetries,
		Run: func(ctx context.Context, now time.Time) error {
			_, err := kitchenService.RecomputeEstimates(ctx, now)
			return err
		},
	})
	sched.Register(scheduler.Job{
		Name:     "scheduled_order_dispatch",
		Interval: cfg.Scheduler.DispatchInterval(),
		Retries:  cfg.Scheduler.JobRetries,
		Run: func(ctx context.Context, now time.Time) error {
			_, err := kitchenService.DispatchScheduledOrders(ctx, now)
			return err
		},
	})
	sched.Register(scheduler.Job{
		Name:     "old_order_cleanup",
		Interval: cfg.Scheduler.CleanupInterval(),
		Run: func(ctx context.Context, now time.Time) error {
			_, err := kitchenService.CleanupOldOrders(ctx, now)
			return err
		},
	})
	sched.Register(scheduler.Job{
		Name:     "kitchen_performance_report",
		Interval: cfg.Scheduler.ReportInterval(),
		Run: func(ctx context.Context, now time.Time) error {
			return reportKitchenPerformance(ctx, kitchenRepo, kitchenService, lgr, now)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down Scheduler", "shutdown", nil)
		cancel()
	}()

	lgr.Info("service_started", "Scheduler started", "startup", nil)
	sched.Start(ctx)
}

// reportKitchenPerformance logs a trailing-24h report for every kitchen.
func reportKitchenPerformance(ctx context.Context, kitchens interfaces.KitchenRepository, service *kitchen.Service, lgr logger.Logger, now time.Time) error {
	all, err := kitchens.ListAll(ctx)
	if err != nil {
		return err
	}

	for _, k := range all {
		report, err := service.PerformanceReport(ctx, k.ID, now.Add(-24*time.Hour), now)
		if err != nil {
			return err
		}

		lgr.Info("kitchen_performance", fmt.Sprintf("Daily report for kitchen %s", report.KitchenName),
			"", map[string]interface{}{
				"kitchen_id":                  report.KitchenID.String(),
				"total_orders":                report.TotalOrders,
				"delivered_orders":            report.DeliveredOrders,
				"completion_rate":             report.CompletionRate,
				"avg_completion_time_minutes": report.AvgCompletionTimeMinutes,
			})
	}
	return nil
}

func runNotificationSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger) {
	// Initialize consumer
	consumer := rabbitmq.NewConsumer(mqConn)

	// Initialize handler
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	// Start consuming expiry alerts
	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		if err := consumer.ConsumeExpiryAlerts(runCtx, notificationHandler.HandleExpiryAlert); err != nil {
			lgr.Error("consumer_error", "Error consuming expiry alerts", "runtime", nil, err)
		}
	}()

	// Wait for shutdown signal
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
	cancel()
}
