package apps

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vibelabs/vibephoto-backend/internal/config"
	"gorm.io/gorm"
)

// Plugin defines the interface every white-label app module must implement.
type Plugin interface {
	// ID returns the unique app identifier (must match apps.json app_id).
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts app-specific routes on the given Fiber group.
	// The group is already prefixed with /api and has JWT middleware applied.
	RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}

// AdminPlugin extends Plugin with admin-only route registration.
type AdminPlugin interface {
	Plugin

	// RegisterAdminRoutes mounts admin-only routes on the given Fiber group.
	// The group has both JWT and Admin middleware applied.
	RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}
