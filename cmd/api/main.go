package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bookstore/internal/config"
	"bookstore/internal/events"
	"bookstore/internal/handler"
	"bookstore/internal/infra/db"
	"bookstore/internal/infra/invoice"
	"bookstore/internal/infra/kafka"
	"bookstore/internal/infra/mail"
	"bookstore/internal/infra/redishub"
	infraRepo "bookstore/internal/infra/repository"
	"bookstore/internal/infra/stripepay"
	"bookstore/internal/notification"
	"bookstore/internal/observability"
	"bookstore/internal/server"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	app := &cli.App{
		Name:  "bookstore",
		Usage: "bookstore order fulfilment service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the outbox relay",
				Action: serve,
			},
			{
				Name:   "notifier",
				Usage:  "consume notifications.events and fan out to push and email",
				Action: runNotifier,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back database migrations",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Action: migrateUp,
					},
					{
						Name: "down",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
						},
						Action: migrateDown,
					},
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config and builds the process logger.
func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// infra holds the connections shared by serve and notifier.
type infra struct {
	db        *gorm.DB
	redis     *redis.Client
	hub       *redishub.Hub
	publisher events.Publisher
	producer  *kafka.Producer
	relay     *events.OutboxRelay
}

func (i *infra) close(logger *zap.Logger) {
	if i.producer != nil {
		if err := i.producer.Close(); err != nil {
			logger.Warn("close Kafka producer", zap.Error(err))
		}
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		if sqlDB, err := i.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func connect(ctx context.Context, cfg config.Config, logger *zap.Logger) (*infra, error) {
	out := &infra{}

	gormDB, err := db.Connect(cfg.Postgres)
	if err != nil {
		return nil, err
	}
	out.db = gormDB

	rdb, err := redishub.Connect(ctx, cfg.Redis, logger)
	if err != nil {
		out.close(logger)
		return nil, err
	}
	out.redis = rdb
	out.hub = redishub.NewHub(rdb, logger)

	if !cfg.Kafka.Enabled {
		logger.Warn("Kafka disabled; events are logged and notifications delivered directly")
		out.publisher = events.NewLogPublisher(logger)
		return out, nil
	}

	if cfg.Kafka.ProvisionTopics {
		if err := kafka.EnsureTopics(cfg.Kafka, logger); err != nil {
			logger.Warn("provision Kafka topics", zap.Error(err))
		}
	}

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		out.close(logger)
		return nil, err
	}
	relay := events.NewOutboxRelay(
		infraRepo.NewOutboxGormRepository(gormDB),
		producer,
		events.OutboxOptions{
			Interval:    cfg.Outbox.Interval,
			BatchSize:   cfg.Outbox.BatchSize,
			MaxAttempts: cfg.Outbox.MaxAttempts,
		},
		logger,
	)
	producer.SetFailureRecorder(relay)

	out.producer = producer
	out.publisher = producer
	out.relay = relay
	return out, nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signalContext(c.Context)
	defer stop()

	shutdownTracing := observability.InitTracing(cfg.ServiceName)
	defer shutdownTracing(context.Background()) //nolint:errcheck

	deps, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	// repositories
	userRepo := infraRepo.NewUserGormRepository(deps.db)
	bookRepo := infraRepo.NewBookGormRepository(deps.db)
	cartRepo := infraRepo.NewCartGormRepository(deps.db)
	cartItemRepo := infraRepo.NewCartItemGormRepository(deps.db)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(deps.db)
	promoRepo := infraRepo.NewPromoGormRepository(deps.db)
	paymentRepo := infraRepo.NewPaymentGormRepository(deps.db)
	settingRepo := infraRepo.NewSettingGormRepository(deps.db)
	auditRepo := infraRepo.NewAuditLogGormRepository(deps.db)
	txm := infraRepo.NewTxManagerGorm(deps.db)

	var processor usecase.PaymentProcessor = stripepay.Disabled{}
	if cfg.Stripe.SecretKey != "" {
		p, err := stripepay.NewProcessor(cfg.Stripe.SecretKey, logger)
		if err != nil {
			return err
		}
		processor = p
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set; card payments disabled")
	}

	// usecases
	settingsUC := usecase.NewSettingsUsecase(settingRepo, auditRepo, logger)
	notifier := notification.NewNotifier(
		deps.publisher,
		deps.hub,
		mail.New(cfg.Notification, logger),
		userRepo,
		orderItemRepo,
		settingsUC,
		notification.Options{KafkaEnabled: cfg.Kafka.Enabled, EmailEnabled: cfg.Notification.EmailEnabled},
		logger,
	)
	bookUC := usecase.NewBookUsecase(bookRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, bookRepo)
	promoUC := usecase.NewPromoUsecase(promoRepo, logger)
	orderUC := usecase.NewOrderUsecase(
		txm,
		userRepo,
		promoUC,
		deps.publisher,
		notifier,
		invoice.NewTextRenderer(cfg.ShopName),
		logger,
		usecase.OrderOptions{StrictTransitions: cfg.StrictStatusTransitions},
	)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, orderUC)
	paymentUC := usecase.NewPaymentUsecase(processor, paymentRepo, cartUC, promoUC, orderUC, notifier, cfg.Stripe.Currency, logger)

	e := server.New(cfg, logger)
	server.RegisterRoutes(e, cfg, userRepo, server.Handlers{
		Books:         handler.NewBookHandler(bookUC),
		Cart:          handler.NewCartHandler(cartUC),
		Orders:        handler.NewOrderHandler(orderUC, paymentUC),
		AdminOrders:   handler.NewAdminOrderHandler(adminOrderUC),
		Payment:       handler.NewPaymentHandler(paymentUC),
		Promos:        handler.NewPromoHandler(promoUC),
		AdminSettings: handler.NewAdminSettingsHandler(settingsUC),
		Notifications: handler.NewNotificationHandler(deps.hub, notifier, logger),
	}, healthCheck(deps))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx, e, server.Addr(cfg.Port), logger)
	})
	if deps.relay != nil {
		g.Go(func() error {
			return deps.relay.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func healthCheck(deps *infra) server.HealthCheck {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		sqlDB, err := deps.db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}
		return deps.redis.Ping(ctx).Err()
	}
}

func runNotifier(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if !cfg.Kafka.Enabled {
		return errors.New("notifier requires KAFKA_ENABLED=true")
	}

	ctx, stop := signalContext(c.Context)
	defer stop()

	shutdownTracing := observability.InitTracing(cfg.ServiceName + "-notifier")
	defer shutdownTracing(context.Background()) //nolint:errcheck

	deps, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	fanout := notification.NewFanout(
		deps.hub,
		mail.New(cfg.Notification, logger),
		infraRepo.NewUserGormRepository(deps.db),
		infraRepo.NewOrderGormRepository(deps.db),
		infraRepo.NewOrderItemGormRepository(deps.db),
		cfg.Notification.EmailEnabled,
		logger,
	)
	consumer := kafka.NewConsumerGroup(cfg.Kafka, []string{events.TopicNotifications}, fanout, deps.producer, logger)

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("notifier stopped")
	return nil
}

func migrateUp(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	return db.MigrateUp(cfg.Postgres.DSN(), logger)
}

func migrateDown(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	return db.MigrateDown(cfg.Postgres.DSN(), c.Int("steps"), logger)
}
