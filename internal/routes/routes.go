package routes

import (
	"github.com/arnold/kpitrack-api/internal/handlers"
	"github.com/arnold/kpitrack-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func Setup(app *fiber.App, h *handlers.Handler, jwtSecret, uploadsDir string) {
	app.Use(recover.New())
	app.Use(logger.New())

	app.Static("/uploads", uploadsDir)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)

	protected := api.Group("/", middleware.Protected(jwtSecret))

	protected.Get("/me", h.GetMe)

	// Device token for push notifications
	protected.Post("/device-token", h.RegisterDeviceToken)

	// Proof file upload
	protected.Post("/upload", h.UploadProof)

	tasks := protected.Group("/tasks")
	tasks.Post("/", h.CreateTask)
	tasks.Get("/", h.GetTasks)
	tasks.Put("/:id/assignments/:userId", h.UpdateAssignment)

	kpis := protected.Group("/kpis")
	kpis.Post("/", h.CreateKPI)
	kpis.Get("/:id", h.GetKPI)
	kpis.Put("/:id", h.UpdateKPI)
	kpis.Post("/:id/recalculate", h.RecalculateKPI)
	kpis.Get("/:id/progress", h.GetKPIProgress)

	logs := protected.Group("/activity-logs")
	logs.Post("/", h.CreateActivityLog)
	logs.Get("/", h.GetActivityLogs)

	// Monthly summaries
	summaries := protected.Group("/summaries")
	summaries.Post("/", h.CreateSummary)
	summaries.Get("/", h.GetSummaries)
	summaries.Get("/:id", h.GetSummary)
	summaries.Post("/:id/regenerate", h.RegenerateSummary)
	summaries.Post("/:id/lock", h.LockSummary)
	summaries.Post("/:id/unlock", h.UnlockSummary)
	summaries.Get("/:id/export", h.ExportSummary)
	summaries.Get("/:id/rows", h.GetSummaryRows)
}
