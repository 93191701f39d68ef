package handlers

import (
	"context"
	"fmt"

	"github.com/arnold/kpitrack-api/internal/middleware"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CreateSummary generates and stores the report for a user and month.
func (h *Handler) CreateSummary(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	var req models.CreateSummaryRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}

	userID := actor.UserID
	if req.UserID != nil {
		userID = *req.UserID
	}

	summary, err := h.summaries.Store(c.UserContext(), actor, userID, req.Month)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(summary)
}

func (h *Handler) GetSummaries(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	userID, err := targetUser(c, actor.UserID)
	if err != nil {
		return h.respondError(c, err)
	}

	summaries, err := h.summaries.List(c.UserContext(), actor, userID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(summaries)
}

func (h *Handler) GetSummary(c *fiber.Ctx) error {
	return h.withSummary(c, h.summaries.Get)
}

func (h *Handler) RegenerateSummary(c *fiber.Ctx) error {
	return h.withSummary(c, h.summaries.Regenerate)
}

func (h *Handler) LockSummary(c *fiber.Ctx) error {
	return h.withSummary(c, h.summaries.Lock)
}

func (h *Handler) UnlockSummary(c *fiber.Ctx) error {
	return h.withSummary(c, h.summaries.Unlock)
}

func (h *Handler) GetSummaryRows(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	id, err := parseID(c, "id", "summary")
	if err != nil {
		return h.respondError(c, err)
	}

	rows, err := h.summaries.Rows(c.UserContext(), actor, id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(rows)
}

// ExportSummary streams the summary as an xlsx workbook.
func (h *Handler) ExportSummary(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	id, err := parseID(c, "id", "summary")
	if err != nil {
		return h.respondError(c, err)
	}

	data, filename, err := h.summaries.ExportByID(c.UserContext(), actor, id)
	if err != nil {
		return h.respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}

type summaryAction func(ctx context.Context, actor models.Identity, id uuid.UUID) (*models.MonthlySummary, error)

func (h *Handler) withSummary(c *fiber.Ctx, action summaryAction) error {
	actor := middleware.GetIdentity(c)

	id, err := parseID(c, "id", "summary")
	if err != nil {
		return h.respondError(c, err)
	}

	summary, err := action(c.UserContext(), actor, id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(summary)
}
