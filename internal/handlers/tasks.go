package handlers

import (
	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/middleware"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/arnold/kpitrack-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateTask(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	var req models.CreateTaskRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}

	owner := actor.UserID
	if req.UserID != nil {
		owner = *req.UserID
	}
	if !actor.CanAccess(owner) {
		return h.respondError(c, apperror.Forbidden("You can't create tasks for this user"))
	}

	taskDate, err := h.parseDate(req.TaskDate)
	if err != nil {
		return h.respondError(c, err)
	}

	status := req.Status
	if status == "" {
		status = "pending"
	}

	task := models.Task{
		UserID:     owner,
		Title:      req.Title,
		TaskDate:   taskDate,
		DeadlineAt: req.DeadlineAt,
		Progress:   req.Progress,
		Status:     status,
		Priority:   req.Priority,
		FileLink:   req.FileLink,
	}
	seen := map[string]bool{}
	for _, assignee := range req.Assignees {
		if assignee == owner || seen[assignee.String()] {
			continue
		}
		seen[assignee.String()] = true
		task.Assignments = append(task.Assignments, models.TaskAssignment{
			UserID: assignee,
			Status: "pending",
		})
	}

	if err := h.tasks.Create(c.UserContext(), &task); err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// GetTasks lists the tasks dated inside ?month=YYYY-MM that the user owns
// or was assigned.
func (h *Handler) GetTasks(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	userID, err := targetUser(c, actor.UserID)
	if err != nil {
		return h.respondError(c, err)
	}
	if !actor.CanAccess(userID) {
		return h.respondError(c, apperror.Forbidden("You don't have access to this user's tasks"))
	}

	month, err := services.ParseMonth(c.Query("month"), h.loc)
	if err != nil {
		return h.respondError(c, err)
	}

	tasks, err := h.tasks.FindDatedInWindow(c.UserContext(), userID, month)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(tasks)
}

// UpdateAssignment records an assignee's own status and progress on a task.
func (h *Handler) UpdateAssignment(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	taskID, err := parseID(c, "id", "task")
	if err != nil {
		return h.respondError(c, err)
	}
	userID, err := parseID(c, "userId", "user")
	if err != nil {
		return h.respondError(c, err)
	}

	task, err := h.tasks.GetByID(c.UserContext(), taskID)
	if err != nil {
		return h.respondError(c, err)
	}
	if !actor.CanAccess(userID) && !actor.CanAccess(task.UserID) {
		return h.respondError(c, apperror.Forbidden("You can't update this assignment"))
	}

	var req models.UpdateAssignmentRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}

	assignment, err := h.tasks.SaveAssignment(c.UserContext(), taskID, userID, req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(assignment)
}
