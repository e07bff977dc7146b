package http

import (
	"time"

	"github.com/eventdesk/backend/internal/config"
	"github.com/eventdesk/backend/internal/http/handlers"
	"github.com/eventdesk/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth   *handlers.AuthHandler
	User   *handlers.UserHandler
	Event  *handlers.EventHandler
	Review *handlers.ReviewHandler
	Meta   *handlers.MetaHandler
	WS     *handlers.WSHub
}

func SetupRouter(app *fiber.App, cfg *config.Config, log *zap.Logger, rdb *redis.Client, h Handlers) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Service-to-service
	internal := app.Group("/internal", middleware.InternalKeyMiddleware(cfg.InternalAPIKey))
	internal.Post("/auth/token", h.Auth.IssueToken)

	api := app.Group("/api/v1")

	api.Get("/meta/fields", h.Meta.GetFields)
	api.Get("/meta/event-types", h.Meta.GetEventTypes)

	protected := api.Group("",
		middleware.AuthMiddleware(cfg, log),
		middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute, log),
	)

	protected.Get("/me", h.User.GetMe)

	// Events
	protected.Post("/events", h.Event.CreateEvent)
	protected.Get("/events", h.Event.ListEvents)
	protected.Get("/events/:id", h.Event.GetEvent)
	protected.Put("/events/:id", h.Event.UpdateEvent)
	protected.Post("/events/:id/submit", h.Event.SubmitEvent)
	protected.Post("/events/:id/decision", h.Event.RecordDecision)
	protected.Post("/events/:id/assignee", h.Event.Reassign)
	protected.Put("/events/:id/debrief", h.Event.SubmitDebrief)
	protected.Get("/events/:id/timeline", h.Event.GetTimeline)
	protected.Post("/events/:id/ai-metadata", h.Event.RecordAIMetadata)
	protected.Get("/events/:id/history", h.Event.History)

	// Planning
	protected.Get("/conflicts", h.Review.Conflicts)
	protected.Get("/review-queue", h.Review.ReviewQueue)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(h.WS.HandleWS))
}
