package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eventdesk/backend/internal/config"
	"github.com/eventdesk/backend/internal/db"
	"github.com/eventdesk/backend/internal/events"
	"github.com/eventdesk/backend/internal/fields"
	apphttp "github.com/eventdesk/backend/internal/http"
	"github.com/eventdesk/backend/internal/http/handlers"
	"github.com/eventdesk/backend/internal/logging"
	"github.com/eventdesk/backend/internal/repositories"
	"github.com/eventdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, db.PoolOptions{Name: "app"}, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	stores := services.Stores{
		Events:    repositories.NewEventRepo(pool),
		Versions:  repositories.NewVersionRepo(pool),
		Approvals: repositories.NewApprovalRepo(pool),
		Audit:     repositories.NewAuditRepo(pool),
		Debriefs:  repositories.NewDebriefRepo(pool),
		Users:     userRepo,
		Venues:    repositories.NewVenueRepo(pool),
		Tx:        repositories.NewTxManager(pool),
	}

	if cfg.ServicePostgresDSN != "" {
		servicePool, err := db.NewPostgresPool(ctx, cfg.ServicePostgresDSN, db.PoolOptions{Name: "service", MaxConns: 4}, log)
		if err != nil {
			log.Fatal("failed to connect service pool", zap.Error(err))
		}
		defer servicePool.Close()
		stores.Elevated = repositories.NewEventRepo(servicePool)
	}

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	mailer := services.NewMailerClient(cfg.MailerURL, log)
	eventService := services.NewEventService(stores, mailer, publisher, log)
	assignmentService := services.NewAssignmentService(stores, mailer, publisher, log)
	timelineService := services.NewTimelineService(stores, log)
	reviewService := services.NewReviewService(stores, mailer, log)

	// Handlers
	wsHub := handlers.NewWSHub(cfg, subscriber, log)
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to subscribe to event bus", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, apphttp.Handlers{
		Auth:   handlers.NewAuthHandler(userRepo, cfg, log),
		User:   handlers.NewUserHandler(userRepo, log),
		Event:  handlers.NewEventHandler(eventService, assignmentService, timelineService, log),
		Review: handlers.NewReviewHandler(reviewService, log),
		Meta:   handlers.NewMetaHandler(fields.Default()),
		WS:     wsHub,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
