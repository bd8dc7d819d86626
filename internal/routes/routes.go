package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/vibelabs/vibephoto-backend/internal/apps"
	"github.com/vibelabs/vibephoto-backend/internal/config"
	"github.com/vibelabs/vibephoto-backend/internal/handlers"
	"github.com/vibelabs/vibephoto-backend/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	webhookHandler *handlers.WebhookHandler,
	creditsHandler *handlers.CreditsHandler,
	adminHandler *handlers.AdminHandler,
	plugins []apps.Plugin,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health (no tenant required)
	api.Get("/health", healthHandler.Check)

	// Auth — public (tenant middleware already applied globally)
	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Protected auth routes
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Credit ledger — caller-scoped reads and package checkout
	creditsGroup := api.Group("/credits", middleware.JWTProtected(cfg))
	creditsGroup.Get("/balance", creditsHandler.GetBalance)
	creditsGroup.Get("/transactions", creditsHandler.ListTransactions)
	creditsGroup.Get("/packages", creditsHandler.ListPackages)
	creditsGroup.Post("/packages/checkout", creditsHandler.CheckoutPackage)

	// Admin back-office (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Post("/credits/renewals/run", adminHandler.RunRenewals)
	admin.Post("/credits/adjust", adminHandler.AdjustCredits)
	admin.Get("/credits/users/:user_id/balance", adminHandler.GetUserBalance)
	admin.Get("/credits/users/:user_id/transactions", adminHandler.ListUserTransactions)
	admin.Post("/credits/packages", adminHandler.CreatePackage)
	admin.Put("/credits/packages/:id", adminHandler.UpdatePackage)

	// Webhooks — per-app auth via :app_id path param (no JWT)
	webhooks := api.Group("/webhooks")
	webhooks.Post("/asaas/:app_id", webhookHandler.HandleGateway)

	// Plugin routes - create a protected group for plugins only
	protected := api.Group("/p", middleware.JWTProtected(cfg))
	for _, p := range plugins {
		p.RegisterRoutes(protected, db, cfg)
		if ap, ok := p.(apps.AdminPlugin); ok {
			ap.RegisterAdminRoutes(admin, db, cfg)
		}
	}
}
