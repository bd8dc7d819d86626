package handlers

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/vibelabs/vibephoto-backend/internal/dto"
	"github.com/vibelabs/vibephoto-backend/internal/services"
	"github.com/vibelabs/vibephoto-backend/internal/tenant"
)

type WebhookHandler struct {
	subscriptionService *services.SubscriptionService
	registry            *tenant.Registry
}

func NewWebhookHandler(subscriptionService *services.SubscriptionService, registry *tenant.Registry) *WebhookHandler {
	return &WebhookHandler{
		subscriptionService: subscriptionService,
		registry:            registry,
	}
}

// HandleGateway receives payment gateway webhooks, routed by :app_id path
// param with per-app token auth.
func (h *WebhookHandler) HandleGateway(c *fiber.Ctx) error {
	appID := c.Params("app_id")
	if appID == "" || !h.registry.Exists(appID) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Unknown app",
		})
	}

	expectedAuth := h.registry.GetWebhookAuth(appID)
	if expectedAuth == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Webhooks not configured for this app",
		})
	}

	authHeader := c.Get("asaas-access-token")
	if authHeader == "" {
		authHeader = c.Get("Authorization")
	}
	if subtle.ConstantTimeCompare([]byte(authHeader), []byte(expectedAuth)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var hook dto.GatewayWebhook
	if err := c.BodyParser(&hook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	if err := h.subscriptionService.HandleWebhookEvent(appID, &hook); err != nil {
		slog.Error("webhook processing failed", "app_id", appID, "event", hook.Event, "payment_id", hook.Payment.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "app_id", appID, "event", hook.Event, "payment_id", hook.Payment.ID)
	return c.JSON(fiber.Map{"received": true})
}
