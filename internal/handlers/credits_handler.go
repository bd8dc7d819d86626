package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vibelabs/vibephoto-backend/internal/dto"
	"github.com/vibelabs/vibephoto-backend/internal/services"
	"github.com/vibelabs/vibephoto-backend/internal/tenant"
)

type CreditsHandler struct {
	creditsService *services.CreditsService
	packageService *services.PackageService
}

func NewCreditsHandler(creditsService *services.CreditsService, packageService *services.PackageService) *CreditsHandler {
	return &CreditsHandler{creditsService: creditsService, packageService: packageService}
}

// GetBalance returns the calling user's counters and availability. There is
// no cross-user variant on this route.
func (h *CreditsHandler) GetBalance(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
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

// ListTransactions pages through the calling user's credit history.
func (h *CreditsHandler) ListTransactions(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 0)

	history, err := h.creditsService.ListTransactions(appID, userID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load transaction history",
		})
	}

	return c.JSON(history)
}

func (h *CreditsHandler) ListPackages(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)

	packages, err := h.packageService.ListActive(appID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load credit packages",
		})
	}

	return c.JSON(fiber.Map{"packages": packages})
}

func (h *CreditsHandler) CheckoutPackage(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CheckoutPackageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	purchase, err := h.packageService.Checkout(appID, userID, req.PackageID)
	if err != nil {
		if errors.Is(err, services.ErrPackageNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Credit package not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to start checkout",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(purchase)
}
