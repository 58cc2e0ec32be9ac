package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/api/http/handlers"
	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/guard"
	"github.com/spec-kit/support-chat/internal/storage"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Chat            *handlers.ChatHandler
	Files           *handlers.FilesHandler
	Admin           *handlers.AdminHandler
	Stream          *handlers.StreamHandler
	AdminMiddleware *auth.AdminMiddleware
	Limiter         *guard.Limiter
	UploadDir       string
	Logger          *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	limit := func(group string) fiber.Handler {
		return RateLimit(cfg.Limiter, group, cfg.Logger)
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.UploadDir != "" {
		app.Static(storage.PublicPrefix, cfg.UploadDir)
	}

	api := app.Group("/api", cfg.AdminMiddleware.Identify)
	api.Post("/users", limit(guard.GroupRegister), cfg.Chat.Register)
	api.Post("/messages", limit(guard.GroupMessage), cfg.Chat.SendMessage)
	api.Get("/messages/:user_id", limit(guard.GroupDefault), cfg.Chat.ListMessages)
	api.Get("/stream/:user_id", limit(guard.GroupDefault), cfg.Stream.Stream)

	files := api.Group("/files")
	files.Post("/upload/image", limit(guard.GroupUpload), cfg.Files.UploadImage)
	files.Post("/upload/voice", limit(guard.GroupUpload), cfg.Files.UploadVoice)

	admin := api.Group("/admin")
	admin.Post("/request-otp", limit(guard.GroupOTP), cfg.Admin.RequestOTP)
	admin.Post("/verify-otp", limit(guard.GroupOTP), cfg.Admin.VerifyOTP)
	admin.Post("/logout", cfg.Admin.Logout)

	protected := admin.Group("", cfg.AdminMiddleware.Require, limit(guard.GroupDefault))
	protected.Get("/users", cfg.Admin.ListUsers)
	protected.Delete("/users/:user_id", cfg.Admin.DeleteUser)
	protected.Get("/stats", cfg.Admin.Stats)
}
