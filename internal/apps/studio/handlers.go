package studio

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/vibelabs/vibephoto-backend/internal/dto"
	"github.com/vibelabs/vibephoto-backend/internal/services"
	"github.com/vibelabs/vibephoto-backend/internal/tenant"
)

type StudioHandler struct {
	service *StudioService
}

func NewStudioHandler(service *StudioService) *StudioHandler {
	return &StudioHandler{service: service}
}

func (h *StudioHandler) CreateGeneration(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req CreateGenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	gen, err := h.service.CreateGeneration(appID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrPromptRequired):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrInsufficientCredits):
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
				Error: true, Message: "Insufficient credits",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create generation",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(gen)
}

func (h *StudioHandler) ListGenerations(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	resp, err := h.service.ListGenerations(appID, userID, c.QueryInt("page", 1), c.QueryInt("limit", 0))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list generations",
		})
	}

	return c.JSON(resp)
}

func (h *StudioHandler) GetGeneration(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	genID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid generation ID",
		})
	}

	gen, err := h.service.GetGeneration(appID, userID, genID)
	if err != nil {
		if errors.Is(err, ErrGenerationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Generation not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load generation",
		})
	}

	return c.JSON(gen)
}

func (h *StudioHandler) DeleteGeneration(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	genID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid generation ID",
		})
	}

	if err := h.service.DeleteGeneration(appID, userID, genID); err != nil {
		if errors.Is(err, ErrGenerationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Generation not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete generation",
		})
	}

	return c.JSON(fiber.Map{"message": "Generation deleted"})
}

// CompleteGeneration is called by the back-office (or the worker callback)
// when the provider finishes a job.
func (h *StudioHandler) CompleteGeneration(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	genID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid generation ID",
		})
	}

	var req CompleteGenerationRequest
	if err := c.BodyParser(&req); err != nil || req.OutputURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "output_url is required",
		})
	}

	gen, err := h.service.MarkCompleted(appID, genID, req.OutputURL)
	if err != nil {
		if errors.Is(err, ErrGenerationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Generation not found or already finished",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to complete generation",
		})
	}

	return c.JSON(gen)
}

// FailGeneration marks a job failed and refunds its credits.
func (h *StudioHandler) FailGeneration(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	genID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid generation ID",
		})
	}

	var req FailGenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	gen, err := h.service.MarkFailed(appID, genID, req.Reason)
	if err != nil {
		if errors.Is(err, ErrGenerationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Generation not found or already finished",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to mark generation failed",
		})
	}

	return c.JSON(gen)
}
