package handlers

import (
	"time"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/middleware"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/arnold/kpitrack-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateActivityLog(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	var req models.CreateActivityLogRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}

	loggedAt := time.Now().In(h.loc)
	if req.LoggedAt != nil {
		loggedAt = *req.LoggedAt
	}

	entry := models.ActivityLog{
		UserID:   actor.UserID,
		Title:    req.Title,
		Content:  req.Content,
		LoggedAt: loggedAt,
	}
	if err := h.activityLogs.Create(c.UserContext(), &entry); err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *Handler) GetActivityLogs(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	userID, err := targetUser(c, actor.UserID)
	if err != nil {
		return h.respondError(c, err)
	}
	if !actor.CanAccess(userID) {
		return h.respondError(c, apperror.Forbidden("You don't have access to this user's activity logs"))
	}

	month, err := services.ParseMonth(c.Query("month"), h.loc)
	if err != nil {
		return h.respondError(c, err)
	}

	logs, err := h.activityLogs.FindInWindow(c.UserContext(), userID, month)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(logs)
}
