package handlers

import (
	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// RegisterDeviceToken saves the FCM token for push notifications
func (h *Handler) RegisterDeviceToken(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return h.respondError(c, apperror.InvalidArgument("Token is required"))
	}

	if err := h.users.SetFCMToken(c.UserContext(), actor.UserID, req.Token); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
