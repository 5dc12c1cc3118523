package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/IlliaFransua/burger-order-api/internal/config"
	"github.com/IlliaFransua/burger-order-api/internal/database"
	"github.com/IlliaFransua/burger-order-api/internal/handler"
	"github.com/IlliaFransua/burger-order-api/internal/logger"
	"github.com/IlliaFransua/burger-order-api/internal/mail"
	"github.com/IlliaFransua/burger-order-api/internal/queue"
	"github.com/IlliaFransua/burger-order-api/internal/service"
	firestorestore "github.com/IlliaFransua/burger-order-api/internal/store/firestore"
	"github.com/IlliaFransua/burger-order-api/internal/store/memory"
	"github.com/IlliaFransua/burger-order-api/internal/store/postgres"
	"github.com/IlliaFransua/burger-order-api/internal/worker"
)

type eventQueue interface {
	service.EventPublisher
	worker.EventSource
}

func main() {
	cfg := config.New()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logger.Set(log)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("service failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn("failed to close resource", zap.Error(err))
			}
		}
	}()

	// Catalog and orders
	var (
		burgers service.BurgerStore
		orders  service.OrderStore
	)
	if cfg.DatabaseURI != "" {
		db, err := database.NewDB(ctx, cfg.DatabaseURI)
		if err != nil {
			return fmt.Errorf("connect to db: %w", err)
		}
		defer database.CloseDB(db, log)

		if err := database.InitSchema(ctx, db); err != nil {
			return fmt.Errorf("init db schema: %w", err)
		}
		burgers, orders = postgres.NewBurgerStore(db), postgres.NewOrderStore(db)
	} else {
		log.Warn("DATABASE_URI is empty, keeping catalog and orders in memory")
		s := memory.NewStore()
		burgers, orders = memory.NewBurgers(s), memory.NewOrders(s)
	}

	// Notification records
	var notifications service.NotificationStore
	switch cfg.NotificationStore {
	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return fmt.Errorf("create firestore client: %w", err)
		}
		closers = append(closers, client)
		notifications = firestorestore.NewNotificationStore(client)
	default:
		notifications = memory.NewNotifications()
	}

	// Order events
	var events eventQueue
	switch cfg.QueueBackend {
	case config.BackendPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return fmt.Errorf("create pubsub client: %w", err)
		}
		closers = append(closers, client)

		topic := client.Topic(cfg.PubSubTopic)
		defer topic.Stop()
		publisher, err := queue.NewPubSubPublisher(topic)
		if err != nil {
			return err
		}
		consumer, err := queue.NewPubSubConsumer(client.Subscription(cfg.PubSubSubscription), log.Named("queue"))
		if err != nil {
			return err
		}
		events = struct {
			*queue.PubSubPublisher
			*queue.PubSubConsumer
		}{publisher, consumer}
	default:
		q := queue.NewMemory(0, log.Named("queue"))
		closers = append(closers, q)
		events = q
	}

	// Services
	burgerSvc := service.NewBurgerService(burgers, log.Named("burgers"))
	orderSvc := service.NewOrderService(orders, burgers, events, cfg.NotifyRecipient, log.Named("orders"))
	reportSvc := service.NewReportService(orders, log.Named("reports"))
	importer := service.NewImporter(orderSvc, log.Named("import"))
	dispatcher := service.NewDispatcher(notifications, mail.NewSMTPSender(cfg.SMTP), log.Named("notifications"))
	orderSvc.WithFallback(dispatcher)

	var authSvc *service.AuthService
	if cfg.AuthEnabled() {
		authSvc = service.NewAuthService(cfg.OperatorLogin, cfg.OperatorPasswordHash, cfg.JWTSecret)
	} else {
		log.Warn("operator auth is disabled")
	}

	// Workers
	retryWorker := worker.NewRetryWorker(dispatcher, cfg.RetryInterval, log.Named("retry"))
	consumer := worker.NewNotificationConsumer(events, dispatcher, log.Named("consumer"))

	srv := &http.Server{
		Addr: cfg.RunAddress,
		Handler: handler.NewRouter(handler.Services{
			Burgers:   burgerSvc,
			Orders:    orderSvc,
			Reports:   reportSvc,
			Importer:  importer,
			Auth:      authSvc,
			JWTSecret: cfg.JWTSecret,
		}, log.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
	}

	workersDone := make(chan struct{}, 2)
	go func() { retryWorker.Start(ctx); workersDone <- struct{}{} }()
	go func() { consumer.Start(ctx); workersDone <- struct{}{} }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	log.Info("starting server", zap.String("addr", cfg.RunAddress))

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-quit:
		log.Info("shutting down...")
	case err := <-serveErr:
		runErr = fmt.Errorf("serve http: %w", err)
	}

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	cancel() // stop workers
	for pending := 2; pending > 0; pending-- {
		select {
		case <-workersDone:
		case <-ctxShut.Done():
			log.Warn("workers did not stop in time", zap.Int("pending", pending))
			pending = 0
		}
	}

	log.Info("server stopped")
	return runErr
}
