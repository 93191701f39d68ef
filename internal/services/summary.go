package services

import (
	"context"
	"fmt"
	"time"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/config"
	"github.com/arnold/kpitrack-api/internal/export"
	"github.com/arnold/kpitrack-api/internal/lock"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/arnold/kpitrack-api/internal/repositories"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Renderer produces the downloadable file for a summary.
type Renderer interface {
	Render(doc *export.SummaryDocument) ([]byte, error)
}

// SummaryService stores monthly reports and enforces the lock lifecycle:
// unlocked summaries may be rebuilt, locked ones are frozen until a
// manager unlocks them.
type SummaryService struct {
	summaries repositories.SummaryRepository
	users     repositories.UserRepository
	kpis      repositories.KPIRepository
	builder   *ReportBuilder
	formatter *Formatter
	renderer  Renderer
	locker    lock.Locker
	notifier  Notifier
	logger    *logrus.Logger
	loc       *time.Location
	now       func() time.Time
}

type SummaryDeps struct {
	Summaries repositories.SummaryRepository
	Users     repositories.UserRepository
	KPIs      repositories.KPIRepository
	Builder   *ReportBuilder
	Formatter *Formatter
	Renderer  Renderer
	Locker    lock.Locker
	Notifier  Notifier
	Logger    *logrus.Logger
	Location  *time.Location
}

func NewSummaryService(d SummaryDeps) *SummaryService {
	return &SummaryService{
		summaries: d.Summaries,
		users:     d.Users,
		kpis:      d.KPIs,
		builder:   d.Builder,
		formatter: d.Formatter,
		renderer:  d.Renderer,
		locker:    d.Locker,
		notifier:  d.Notifier,
		logger:    d.Logger,
		loc:       d.Location,
		now:       time.Now,
	}
}

func (s *SummaryService) Get(ctx context.Context, actor models.Identity, id uuid.UUID) (*models.MonthlySummary, error) {
	summary, err := s.summaries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(summary.UserID) {
		return nil, apperror.NotFound("summary not found")
	}
	return summary, nil
}

func (s *SummaryService) List(ctx context.Context, actor models.Identity, userID uuid.UUID) ([]models.MonthlySummary, error) {
	if !actor.CanAccess(userID) {
		return nil, apperror.Forbidden("You don't have access to this user's reports")
	}
	return s.summaries.ListByUser(ctx, userID)
}

// Store builds userID's report for month and saves it, creating the row or
// overwriting an unlocked one.
func (s *SummaryService) Store(ctx context.Context, actor models.Identity, userID uuid.UUID, month string) (*models.MonthlySummary, error) {
	if _, err := ParseMonth(month, s.loc); err != nil {
		return nil, err
	}
	if !actor.CanAccess(userID) {
		return nil, apperror.Forbidden("You don't have access to this user's reports")
	}

	release, err := s.acquire(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.summaries.GetByUserMonth(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsLocked() {
		return nil, apperror.Locked("Summary %s is locked, unlock it before regenerating", month)
	}

	report, err := s.builder.Generate(ctx, actor, userID, month)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		summary := &models.MonthlySummary{UserID: userID, Month: month}
		summary.Apply(report)
		if err := s.summaries.Create(ctx, summary); err != nil {
			return nil, err
		}
		s.logEvent(summary, actor, "Monthly summary created")
		return summary, nil
	}

	existing.Apply(report)
	if err := s.summaries.SaveSnapshot(ctx, existing); err != nil {
		return nil, err
	}
	s.logEvent(existing, actor, "Monthly summary overwritten")
	return existing, nil
}

// Regenerate rebuilds a stored summary in place. Locked summaries are
// rejected and left untouched.
func (s *SummaryService) Regenerate(ctx context.Context, actor models.Identity, id uuid.UUID) (*models.MonthlySummary, error) {
	summary, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if summary.IsLocked() {
		return nil, apperror.Locked("Summary %s is locked, unlock it before regenerating", summary.Month)
	}

	release, err := s.acquire(ctx, summary.UserID, summary.Month)
	if err != nil {
		return nil, err
	}
	defer release()

	// Reload under the lock; another request may have locked or rewritten it.
	if summary, err = s.summaries.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if summary.IsLocked() {
		return nil, apperror.Locked("Summary %s is locked, unlock it before regenerating", summary.Month)
	}

	report, err := s.builder.Generate(ctx, actor, summary.UserID, summary.Month)
	if err != nil {
		return nil, err
	}
	summary.Apply(report)
	if err := s.summaries.SaveSnapshot(ctx, summary); err != nil {
		return nil, err
	}
	s.logEvent(summary, actor, "Monthly summary regenerated")
	return summary, nil
}

// Lock freezes a summary. Locking an already locked summary keeps the
// original timestamp.
func (s *SummaryService) Lock(ctx context.Context, actor models.Identity, id uuid.UUID) (*models.MonthlySummary, error) {
	return s.setLock(ctx, actor, id, true)
}

// Unlock reopens a summary for regeneration; only managers may do it.
func (s *SummaryService) Unlock(ctx context.Context, actor models.Identity, id uuid.UUID) (*models.MonthlySummary, error) {
	if !actor.IsManager() {
		return nil, apperror.Forbidden("Only administrators and supervisors can unlock summaries")
	}
	return s.setLock(ctx, actor, id, false)
}

func (s *SummaryService) setLock(ctx context.Context, actor models.Identity, id uuid.UUID, locked bool) (*models.MonthlySummary, error) {
	summary, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, summary.UserID, summary.Month)
	if err != nil {
		return nil, err
	}
	defer release()

	if summary, err = s.summaries.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if summary.IsLocked() == locked {
		return summary, nil
	}

	var (
		lockedAt *time.Time
		lockedBy *uuid.UUID
		rows     []models.KPITaskRow
		title    = "Báo cáo tháng đã được mở khóa"
		event    = "Monthly summary unlocked"
	)
	if locked {
		now := s.now()
		by := actor.UserID
		lockedAt, lockedBy = &now, &by
		title, event = "Báo cáo tháng đã được khóa", "Monthly summary locked"
		if rows, err = s.rows(ctx, actor, summary); err != nil {
			return nil, err
		}
	}
	if err := s.summaries.SetLock(ctx, summary, lockedAt, lockedBy, rows); err != nil {
		return nil, err
	}
	s.logEvent(summary, actor, event)

	if s.notifier != nil && summary.UserID != actor.UserID {
		ownerID, body := summary.UserID, summary.Title
		data := map[string]string{"summaryId": summary.ID.String(), "month": summary.Month}
		go s.notifier.Notify(context.Background(), ownerID, title, body, data)
	}
	return summary, nil
}

// Rows formats the KPI table of a summary against its frozen task cache. A
// locked summary returns the rows stored when it was locked.
func (s *SummaryService) Rows(ctx context.Context, actor models.Identity, id uuid.UUID) ([]models.KPITaskRow, error) {
	summary, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.rows(ctx, actor, summary)
}

func (s *SummaryService) rows(ctx context.Context, actor models.Identity, summary *models.MonthlySummary) ([]models.KPITaskRow, error) {
	if summary.IsLocked() {
		if frozen := summary.LockedRows.Data(); frozen != nil {
			return frozen, nil
		}
	}
	month, err := ParseMonth(summary.Month, s.loc)
	if err != nil {
		return nil, err
	}
	kpis, err := s.kpis.FindOverlapping(ctx, summary.UserID, month)
	if err != nil {
		return nil, err
	}

	cache := summary.TasksCache.Data()
	rows := []models.KPITaskRow{}
	for i := range kpis {
		kpiRows, err := s.formatter.BuildTaskRows(ctx, actor, &kpis[i], cache)
		if err != nil {
			return nil, err
		}
		rows = append(rows, kpiRows...)
	}
	return rows, nil
}

// ExportByID renders a summary as a spreadsheet and names the file.
func (s *SummaryService) ExportByID(ctx context.Context, actor models.Identity, id uuid.UUID) ([]byte, string, error) {
	summary, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	user, err := s.users.GetByID(ctx, summary.UserID)
	if err != nil {
		return nil, "", err
	}
	rows, err := s.rows(ctx, actor, summary)
	if err != nil {
		return nil, "", err
	}
	month, _ := ParseMonth(summary.Month, s.loc)

	var lockedAt *time.Time
	if summary.LockedAt != nil {
		t := summary.LockedAt.In(s.loc)
		lockedAt = &t
	}
	data, err := s.renderer.Render(&export.SummaryDocument{
		EmployeeName: user.DisplayName(),
		Month:        month.From,
		Title:        summary.Title,
		LockedAt:     lockedAt,
		Content:      summary.Content,
		Stats:        summary.Stats.Data(),
		Rows:         rows,
	})
	if err != nil {
		config.LogError(s.logger, "services", "ExportByID", "render workbook", summary.ID, err)
		return nil, "", apperror.Internal(err, "failed to render export")
	}
	return data, fmt.Sprintf("bao-cao-kpi-%s.xlsx", summary.Month), nil
}

func (s *SummaryService) acquire(ctx context.Context, userID uuid.UUID, month string) (func(), error) {
	release, err := s.locker.Acquire(ctx, lock.SummaryKey(userID, month))
	if err != nil {
		config.LogError(s.logger, "services", "acquire", "summary lock", lock.SummaryKey(userID, month), err)
		return nil, apperror.Conflict("Summary %s is being updated, try again", month)
	}
	return release, nil
}

func (s *SummaryService) logEvent(summary *models.MonthlySummary, actor models.Identity, msg string) {
	s.logger.WithFields(logrus.Fields{
		"summaryId": summary.ID,
		"userId":    summary.UserID,
		"month":     summary.Month,
		"actorId":   actor.UserID,
		"version":   summary.Version,
	}).Info(msg)
}
