package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/arnold/kpitrack-api/internal/database"
	"github.com/arnold/kpitrack-api/internal/export"
	"github.com/arnold/kpitrack-api/internal/lock"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/arnold/kpitrack-api/internal/repositories"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fixedNow is the clock every fixture service reads.
var fixedNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

type fixture struct {
	ctx        context.Context
	loc        *time.Location
	users      repositories.UserRepository
	tasks      repositories.TaskRepository
	kpis       repositories.KPIRepository
	logs       repositories.ActivityLogRepository
	summaries  repositories.SummaryRepository
	aggregator *Aggregator
	formatter  *Formatter
	builder    *ReportBuilder
	service    *SummaryService
	notifier   *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureIn(t, time.UTC)
}

// newFixtureIn builds the services with loc as the configured timezone.
func newFixtureIn(t *testing.T, loc *time.Location) *fixture {
	t.Helper()

	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		ctx:       context.Background(),
		loc:       loc,
		users:     repositories.NewUserRepository(db),
		tasks:     repositories.NewTaskRepository(db),
		kpis:      repositories.NewKPIRepository(db),
		logs:      repositories.NewActivityLogRepository(db),
		summaries: repositories.NewSummaryRepository(db),
		notifier:  &recordingNotifier{},
	}
	locker := lock.NewMemoryLocker()
	f.aggregator = NewAggregator(f.tasks, f.kpis, locker, logger, loc)
	f.formatter = NewFormatter(f.aggregator)
	f.builder = NewReportBuilder(f.users, f.tasks, f.kpis, f.logs, f.aggregator, loc)
	f.builder.now = func() time.Time { return fixedNow }
	f.service = NewSummaryService(SummaryDeps{
		Summaries: f.summaries,
		Users:     f.users,
		KPIs:      f.kpis,
		Builder:   f.builder,
		Formatter: f.formatter,
		Renderer:  export.ExcelRenderer{},
		Locker:    locker,
		Notifier:  f.notifier,
		Logger:    logger,
		Location:  loc,
	})
	f.service.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) user(t *testing.T, name string, role models.Role) models.Identity {
	t.Helper()
	u := &models.User{Email: name + "@example.com", Password: "x", Name: name, Role: role}
	require.NoError(t, f.users.Create(f.ctx, u))
	return models.Identity{UserID: u.ID, Role: u.Role}
}

func (f *fixture) task(t *testing.T, task models.Task) models.Task {
	t.Helper()
	if task.Status == "" {
		task.Status = "pending"
	}
	require.NoError(t, f.tasks.Create(f.ctx, &task))
	return task
}

func (f *fixture) kpi(t *testing.T, owner uuid.UUID, start, end time.Time, lines ...models.KPITask) *models.KPI {
	t.Helper()
	k := &models.KPI{UserID: owner, Name: "Doanh số", StartDate: start, EndDate: end, Tasks: lines}
	require.NoError(t, f.kpis.Create(f.ctx, k))
	loaded, err := f.kpis.GetByID(f.ctx, k.ID)
	require.NoError(t, err)
	return loaded
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type notification struct {
	UserID uuid.UUID
	Title  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
	done chan struct{}
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) {
	n.mu.Lock()
	n.sent = append(n.sent, notification{UserID: userID, Title: title})
	done := n.done
	n.mu.Unlock()
	if done != nil {
		done <- struct{}{}
	}
}
