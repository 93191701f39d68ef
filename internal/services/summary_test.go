package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/export"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestStoreCreatesThenOverwrites(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)

	first, err := f.service.Store(f.ctx, owner, owner.UserID, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 0, first.Stats.Data().Total)

	f.task(t, models.Task{UserID: owner.UserID, Title: "Mới", TaskDate: day(2024, 5, 9), Progress: 2, Status: models.StatusCompleted})

	second, err := f.service.Store(f.ctx, owner, owner.UserID, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, 1, second.Stats.Data().Total)

	list, err := f.service.List(f.ctx, owner, owner.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStoreValidatesInput(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)
	other := f.user(t, "minh", models.RoleEmployee)

	_, err := f.service.Store(f.ctx, owner, owner.UserID, "May 2024")
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	_, err = f.service.Store(f.ctx, other, owner.UserID, "2024-05")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestRegenerateLockedSummaryFails(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)
	f.task(t, models.Task{UserID: owner.UserID, Title: "Cũ", TaskDate: day(2024, 5, 3), Progress: 1, Status: models.StatusCompleted})

	summary, err := f.service.Store(f.ctx, owner, owner.UserID, "2024-05")
	require.NoError(t, err)

	locked, err := f.service.Lock(f.ctx, owner, summary.ID)
	require.NoError(t, err)
	require.NotNil(t, locked.LockedAt)
	assert.True(t, fixedNow.Equal(*locked.LockedAt))

	f.task(t, models.Task{UserID: owner.UserID, Title: "Mới", TaskDate: day(2024, 5, 4), Progress: 1})

	_, err = f.service.Regenerate(f.ctx, owner, summary.ID)
	assert.ErrorIs(t, err, apperror.ErrLocked)
	_, err = f.service.Store(f.ctx, owner, owner.UserID, "2024-05")
	assert.ErrorIs(t, err, apperror.ErrLocked)

	after, err := f.summaries.GetByID(f.ctx, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, summary.Content, after.Content)
	assert.Equal(t, summary.Stats.Data(), after.Stats.Data())
	assert.Equal(t, summary.TasksCache.Data(), after.TasksCache.Data())
}

func TestLockIsIdempotent(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)
	summary, err := f.service.Store(f.ctx, owner, owner.UserID, "2024-05")
	require.NoError(t, err)

	first, err := f.service.Lock(f.ctx, owner, summary.ID)
	require.NoError(t, err)

	f.service.now = func() time.Time { return fixedNow.Add(time.Hour) }
	second, err := f.service.Lock(f.ctx, owner, summary.ID)
	require.NoError(t, err)
	assert.True(t, first.LockedAt.Equal(*second.LockedAt))
	assert.Equal(t, first.Version, second.Version)
}

func TestUnlock(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)
	boss := f.user(t, "hoa", models.RoleSupervisor)
	f.notifier.done = make(chan struct{}, 1)

	summary, err := f.service.Store(f.ctx, owner, owner.UserID, "2024-05")
	require.NoError(t, err)
	_, err = f.service.Lock(f.ctx, owner, summary.ID)
	require.NoError(t, err)

	_, err = f.service.Unlock(f.ctx, owner, summary.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	unlocked, err := f.service.Unlock(f.ctx, boss, summary.ID)
	require.NoError(t, err)
	assert.Nil(t, unlocked.LockedAt)
	assert.Nil(t, unlocked.LockedBy)

	select {
	case <-f.notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("owner was not notified")
	}
	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, owner.UserID, f.notifier.sent[0].UserID)

	_, err = f.service.Regenerate(f.ctx, owner, summary.ID)
	assert.NoError(t, err)
}

func TestGetHidesOtherUsersSummaries(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)
	other := f.user(t, "minh", models.RoleEmployee)
	admin := f.user(t, "an", models.RoleAdmin)

	summary, err := f.service.Store(f.ctx, owner, owner.UserID, "2024-05")
	require.NoError(t, err)

	_, err = f.service.Get(f.ctx, other, summary.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	got, err := f.service.Get(f.ctx, admin, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, summary.ID, got.ID)
}

func TestSaveSnapshotRejectsStaleVersion(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)
	summary, err := f.service.Store(f.ctx, owner, owner.UserID, "2024-05")
	require.NoError(t, err)

	stale := *summary
	_, err = f.service.Regenerate(f.ctx, owner, summary.ID)
	require.NoError(t, err)

	stale.Content = "ghi đè"
	err = f.summaries.SaveSnapshot(f.ctx, &stale)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestLockedSummaryKeepsRowsFromLockTime(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)
	boss := f.user(t, "hoa", models.RoleSupervisor)
	f.task(t, models.Task{UserID: owner.UserID, Title: "Khảo sát", TaskDate: day(2024, 5, 2), Progress: 8,
		Status: models.StatusCompleted})
	f.kpi(t, owner.UserID, day(2024, 5, 1), day(2024, 5, 31),
		models.KPITask{TaskTitle: "Khảo sát", TargetProgress: 10})

	summary, err := f.service.Store(f.ctx, owner, owner.UserID, "2024-05")
	require.NoError(t, err)
	_, err = f.service.Lock(f.ctx, owner, summary.ID)
	require.NoError(t, err)

	f.kpi(t, owner.UserID, day(2024, 5, 10), day(2024, 5, 20),
		models.KPITask{TaskTitle: "Khảo sát", TargetProgress: 4})

	frozen, err := f.service.Rows(f.ctx, owner, summary.ID)
	require.NoError(t, err)
	require.Len(t, frozen, 1)
	assert.Equal(t, 80.0, frozen[0].Percent)

	_, err = f.service.Unlock(f.ctx, boss, summary.ID)
	require.NoError(t, err)

	live, err := f.service.Rows(f.ctx, owner, summary.ID)
	require.NoError(t, err)
	assert.Len(t, live, 2)
}

func TestExportByID(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)
	f.task(t, models.Task{UserID: owner.UserID, Title: "Khảo sát", TaskDate: day(2024, 5, 2), Progress: 8,
		Status: models.StatusCompleted, FileLink: "https://files.example.com/ks.pdf"})
	f.kpi(t, owner.UserID, day(2024, 5, 1), day(2024, 5, 31),
		models.KPITask{TaskTitle: "Khảo sát", TargetProgress: 10})

	summary, err := f.service.Store(f.ctx, owner, owner.UserID, "2024-05")
	require.NoError(t, err)

	rows, err := f.service.Rows(f.ctx, owner, summary.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 80.0, rows[0].Percent)

	data, filename, err := f.service.ExportByID(f.ctx, owner, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, "bao-cao-kpi-2024-05.xlsx", filename)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	title, err := book.GetCellValue(export.SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "BÁO CÁO KPI THÁNG 05/2024", title)

	employee, err := book.GetCellValue(export.SheetName, "C2")
	require.NoError(t, err)
	assert.Equal(t, "lan", employee)

	// Header block (rows 2-5), stats block (7-13), table header on 15.
	head, err := book.GetCellValue(export.SheetName, "A15")
	require.NoError(t, err)
	assert.Equal(t, "STT", head)

	evaluation, err := book.GetCellValue(export.SheetName, "H16")
	require.NoError(t, err)
	assert.Equal(t, models.EvaluationPass, evaluation)

	ok, link, err := book.GetCellHyperLink(export.SheetName, "I16")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://files.example.com/ks.pdf", link)

	appendix, err := book.GetCellValue(export.SheetName, "A18")
	require.NoError(t, err)
	assert.Equal(t, "Phụ lục: Minh chứng", appendix)
}
