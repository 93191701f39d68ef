package handlers

import (
	"time"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/middleware"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/arnold/kpitrack-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateKPI(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	var req models.CreateKPIRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}

	owner := actor.UserID
	if req.UserID != nil {
		owner = *req.UserID
	}
	if !actor.CanAccess(owner) {
		return h.respondError(c, apperror.Forbidden("You can't create KPIs for this user"))
	}

	start, end, err := h.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return h.respondError(c, err)
	}

	kpi := models.KPI{
		UserID:     owner,
		Name:       req.Name,
		StartDate:  start,
		EndDate:    end,
		TaskTitles: req.TaskTitles,
	}
	for _, t := range req.Tasks {
		kpi.Tasks = append(kpi.Tasks, models.KPITask{
			TaskTitle:      t.TaskTitle,
			TargetProgress: t.TargetProgress,
			CompletedUnit:  t.CompletedUnit,
		})
	}

	if err := h.kpis.Create(c.UserContext(), &kpi); err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(kpi)
}

// GetKPI returns the KPI with live totals, its per-task detail rows and the
// per-title breakdown. Stored totals are not touched.
func (h *Handler) GetKPI(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	kpi, err := h.loadKPI(c)
	if err != nil {
		return h.respondError(c, err)
	}
	ctx := c.UserContext()

	live, err := h.aggregator.Recalculate(ctx, actor, kpi, false)
	if err != nil {
		return h.respondError(c, err)
	}

	tasks, err := h.aggregator.FetchWindowTasks(ctx, kpi)
	if err != nil {
		return h.respondError(c, err)
	}
	rows, err := h.formatter.BuildTaskRows(ctx, actor, kpi, services.BuildTaskCache(tasks, h.loc))
	if err != nil {
		return h.respondError(c, err)
	}

	breakdown, err := h.aggregator.Breakdown(ctx, actor, kpi)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"kpi":       live,
		"rows":      rows,
		"breakdown": breakdown,
	})
}

func (h *Handler) UpdateKPI(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	kpi, err := h.loadKPI(c)
	if err != nil {
		return h.respondError(c, err)
	}
	if !actor.CanAccess(kpi.UserID) {
		return h.respondError(c, apperror.Forbidden("You don't have access to this KPI"))
	}

	var req models.UpdateKPIRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}

	if req.Name != nil {
		kpi.Name = *req.Name
	}
	if req.TaskTitles != nil {
		kpi.TaskTitles = *req.TaskTitles
	}
	start, end := kpi.StartDate.Format(dateLayout), kpi.EndDate.Format(dateLayout)
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if req.EndDate != nil {
		end = *req.EndDate
	}
	if kpi.StartDate, kpi.EndDate, err = h.parseRange(start, end); err != nil {
		return h.respondError(c, err)
	}

	if err := h.kpis.UpdateDetails(c.UserContext(), kpi); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(kpi)
}

// RecalculateKPI writes fresh totals back to the KPI row.
func (h *Handler) RecalculateKPI(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	kpi, err := h.loadKPI(c)
	if err != nil {
		return h.respondError(c, err)
	}

	updated, err := h.aggregator.Recalculate(c.UserContext(), actor, kpi, true)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) GetKPIProgress(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	kpi, err := h.loadKPI(c)
	if err != nil {
		return h.respondError(c, err)
	}
	ctx := c.UserContext()

	curve, err := h.aggregator.ProgressCurve(ctx, actor, kpi)
	if err != nil {
		return h.respondError(c, err)
	}
	daily, err := h.aggregator.DailyActualMap(ctx, actor, kpi)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"curve": curve,
		"daily": daily,
	})
}

func (h *Handler) loadKPI(c *fiber.Ctx) (*models.KPI, error) {
	id, err := parseID(c, "id", "KPI")
	if err != nil {
		return nil, err
	}
	return h.kpis.GetByID(c.UserContext(), id)
}

func (h *Handler) parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := h.parseDate(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := h.parseDate(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperror.InvalidArgument("End date must not be before start date")
	}
	return start, end, nil
}
