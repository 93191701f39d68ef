package handlers

import (
	"time"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/config"
	"github.com/arnold/kpitrack-api/internal/repositories"
	"github.com/arnold/kpitrack-api/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type Deps struct {
	Config       *config.Config
	Users        repositories.UserRepository
	Tasks        repositories.TaskRepository
	KPIs         repositories.KPIRepository
	ActivityLogs repositories.ActivityLogRepository
	Aggregator   *services.Aggregator
	Formatter    *services.Formatter
	Summaries    *services.SummaryService
	Logger       *logrus.Logger
}

type Handler struct {
	cfg          *config.Config
	users        repositories.UserRepository
	tasks        repositories.TaskRepository
	kpis         repositories.KPIRepository
	activityLogs repositories.ActivityLogRepository
	aggregator   *services.Aggregator
	formatter    *services.Formatter
	summaries    *services.SummaryService
	validate     *validator.Validate
	logger       *logrus.Logger
	loc          *time.Location
}

func New(d Deps) *Handler {
	return &Handler{
		cfg:          d.Config,
		users:        d.Users,
		tasks:        d.Tasks,
		kpis:         d.KPIs,
		activityLogs: d.ActivityLogs,
		aggregator:   d.Aggregator,
		formatter:    d.Formatter,
		summaries:    d.Summaries,
		validate:     NewValidator(),
		logger:       d.Logger,
		loc:          d.Config.Location(),
	}
}

// NewValidator returns a validator that also knows the "yearmonth" tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		t, err := time.Parse("2006-01", s)
		return err == nil && t.Format("2006-01") == s
	})
	return v
}

// bind parses and validates the request body into req.
func (h *Handler) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperror.InvalidArgument("Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return apperror.InvalidArgument("Invalid request: %v", err)
	}
	return nil
}

func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		status = fiber.StatusNotFound
	case apperror.KindInvalidArgument:
		status = fiber.StatusBadRequest
	case apperror.KindLocked, apperror.KindConflict:
		status = fiber.StatusConflict
	case apperror.KindForbidden:
		status = fiber.StatusForbidden
	default:
		config.LogError(h.logger, "handlers", c.Route().Path, c.Method(), nil, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": apperror.MessageOf(err),
	})
}

func parseID(c *fiber.Ctx, param, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, apperror.InvalidArgument("Invalid %s ID", what)
	}
	return id, nil
}

// targetUser is the user a request acts on: the given one, or the caller.
func targetUser(c *fiber.Ctx, fallback uuid.UUID) (uuid.UUID, error) {
	raw := c.Query("userId")
	if raw == "" {
		return fallback, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.InvalidArgument("Invalid user ID")
	}
	return id, nil
}

func (h *Handler) parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, h.loc)
	if err != nil {
		return time.Time{}, apperror.InvalidArgument("Invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}
