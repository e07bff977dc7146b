package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventdesk/backend/internal/config"
	"github.com/eventdesk/backend/internal/db"
	"github.com/eventdesk/backend/internal/logging"
	"github.com/eventdesk/backend/internal/repositories"
	"github.com/eventdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, db.PoolOptions{Name: "worker", MaxConns: 4}, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// The sweep reads events, venues and users only.
	stores := services.Stores{
		Events:    repositories.NewEventRepo(pool),
		Versions:  repositories.NewVersionRepo(pool),
		Approvals: repositories.NewApprovalRepo(pool),
		Audit:     repositories.NewAuditRepo(pool),
		Debriefs:  repositories.NewDebriefRepo(pool),
		Users:     repositories.NewUserRepo(pool),
		Venues:    repositories.NewVenueRepo(pool),
		Tx:        repositories.NewTxManager(pool),
	}
	reviewService := services.NewReviewService(stores, services.NewMailerClient(cfg.MailerURL, log), log)

	// Metrics for the sweep counters
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	go func() {
		if err := app.Listen(fmt.Sprintf(":%s", cfg.WorkerPort)); err != nil {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	defer app.Shutdown()

	log.Info("worker started", zap.Duration("reminder_interval", cfg.ReminderInterval))

	reminderTicker := time.NewTicker(cfg.ReminderInterval)
	defer reminderTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runReminders(ctx, reviewService, log)
	for {
		select {
		case <-reminderTicker.C:
			runReminders(ctx, reviewService, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runReminders(ctx context.Context, reviewService *services.ReviewService, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if _, err := reviewService.SweepReminders(ctx); err != nil {
		log.Error("reminder sweep failed", zap.Error(err))
	}
}
