package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/vibelabs/vibephoto-backend/internal/dto"
	"github.com/vibelabs/vibephoto-backend/internal/services"
	"github.com/vibelabs/vibephoto-backend/internal/tenant"
)

// AdminHandler is the credit back-office: manual renewal runs, balance
// corrections and cross-user reads. Routes are mounted behind JWT + admin
// middleware.
type AdminHandler struct {
	creditsService *services.CreditsService
	renewalService *services.RenewalService
	packageService *services.PackageService
}

func NewAdminHandler(creditsService *services.CreditsService, renewalService *services.RenewalService, packageService *services.PackageService) *AdminHandler {
	return &AdminHandler{
		creditsService: creditsService,
		renewalService: renewalService,
		packageService: packageService,
	}
}

// RunRenewals triggers the monthly renewal sweep and returns the same summary
// the scheduled run produces. Safe to call even if the cron job already ran
// today; eligible users renew at most once per cycle.
func (h *AdminHandler) RunRenewals(c *fiber.Ctx) error {
	summary, err := h.renewalService.Run(c.Context())
	if err != nil {
		slog.Error("manual renewal sweep failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Renewal sweep failed",
		})
	}

	return c.JSON(summary)
}

func (h *AdminHandler) AdjustCredits(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)

	var req dto.AdjustCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.UserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "user_id is required",
		})
	}

	entry, err := h.creditsService.AdminAdjust(appID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAmount):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		case errors.Is(err, services.ErrInsufficientCredits):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Cannot remove more credits than the user holds",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to adjust credits",
		})
	}

	return c.JSON(entry)
}

// GetUserBalance reads any user's counters (support tooling).
func (h *AdminHandler) GetUserBalance(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user ID",
		})
	}

	balance, err := h.creditsService.GetBalance(appID, userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load balance",
		})
	}

	return c.JSON(balance)
}

func (h *AdminHandler) ListUserTransactions(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user ID",
		})
	}

	history, err := h.creditsService.ListTransactions(appID, userID, c.QueryInt("page", 1), c.QueryInt("limit", 0))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load transaction history",
		})
	}

	return c.JSON(history)
}

func (h *AdminHandler) CreatePackage(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)

	var req dto.UpsertPackageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	pkg, err := h.packageService.Create(appID, &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(pkg)
}

func (h *AdminHandler) UpdatePackage(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	packageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid package ID",
		})
	}

	var req dto.UpsertPackageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	pkg, err := h.packageService.Update(appID, packageID, &req)
	if err != nil {
		if errors.Is(err, services.ErrPackageNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Credit package not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update credit package",
		})
	}

	return c.JSON(pkg)
}
