package studio

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vibelabs/vibephoto-backend/internal/config"
	"github.com/vibelabs/vibephoto-backend/internal/services"
	"gorm.io/gorm"
)

type StudioPlugin struct {
	creditsSvc *services.CreditsService
}

func New(creditsSvc *services.CreditsService) *StudioPlugin {
	return &StudioPlugin{creditsSvc: creditsSvc}
}

func (p *StudioPlugin) ID() string { return "studio" }

func (p *StudioPlugin) Models() []interface{} {
	return []interface{}{
		&Generation{},
	}
}

func (p *StudioPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewStudioService(db, p.creditsSvc)
	handler := NewStudioHandler(svc)

	router.Post("/generations", handler.CreateGeneration)
	router.Get("/generations", handler.ListGenerations)
	router.Get("/generations/:id", handler.GetGeneration)
	router.Delete("/generations/:id", handler.DeleteGeneration)
}

func (p *StudioPlugin) RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewStudioService(db, p.creditsSvc)
	handler := NewStudioHandler(svc)

	router.Post("/studio/generations/:id/complete", handler.CompleteGeneration)
	router.Post("/studio/generations/:id/fail", handler.FailGeneration)
}
