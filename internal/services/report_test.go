package services

import (
	"strings"
	"testing"
	"time"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	w, err := ParseMonth("2024-02", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 2, 1), w.From)
	assert.Equal(t, day(2024, 3, 1), w.To)

	for _, bad := range []string{"", "2024-13", "2024-2", "05-2024", "2024/05", "2024-05-01"} {
		_, err := ParseMonth(bad, time.UTC)
		assert.ErrorIs(t, err, apperror.ErrInvalidArgument, bad)
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)

	f.task(t, models.Task{
		UserID:   owner.UserID,
		Title:    "Ký hợp đồng",
		TaskDate: day(2024, 5, 10),
		Progress: 50,
		Status:   models.StatusCompleted,
		Priority: models.PriorityHigh,
		FileLink: "https://files.example.com/hd.pdf",
	})
	kpi := f.kpi(t, owner.UserID, day(2024, 5, 1), day(2024, 5, 31),
		models.KPITask{TaskTitle: "Ký hợp đồng", TargetProgress: 50})

	recalculated, err := f.aggregator.Recalculate(f.ctx, owner, kpi, true)
	require.NoError(t, err)
	assert.Equal(t, 50, recalculated.ActualProgress)
	assert.Equal(t, 100.0, recalculated.Percent)

	report, err := f.builder.Generate(f.ctx, owner, owner.UserID, "2024-05")
	require.NoError(t, err)

	assert.Equal(t, "Báo cáo tháng 05/2024 - lan", report.Title)
	assert.Equal(t, models.ReportStats{Total: 1, Done: 1, Overdue: 0, Pending: 0, AvgPerDay: 0, OnTimeRate: 100}, report.Stats)
	assert.Equal(t, []string{"- Ký hợp đồng – completed (50%)"}, report.Sections.Highlights)
	assert.Equal(t, []string{NoIssuesLine}, report.Sections.Issues)
	assert.Equal(t, []string{MaintainPerfLine}, report.Sections.Recommendations)

	require.Len(t, report.Sections.KPIs, 1)
	assert.Equal(t, 100.0, report.Sections.KPIs[0].Percent)

	assert.Equal(t, []models.CachedTask{{
		Title:    "Ký hợp đồng",
		Progress: 50,
		Dates:    []string{"10/05/2024"},
		Status:   models.StatusCompleted,
		Link:     "https://files.example.com/hd.pdf",
		Links:    []string{"https://files.example.com/hd.pdf"},
	}}, report.TasksCache)

	blocks := strings.Split(report.Content, "\n\n")
	require.Len(t, blocks, 6)
	assert.True(t, strings.HasPrefix(blocks[0], "1. Tổng quan công việc"))
	assert.Contains(t, blocks[1], "- Doanh số: 100%")
}

func TestGenerateWithoutTasks(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)

	report, err := f.builder.Generate(f.ctx, owner, owner.UserID, "2024-05")
	require.NoError(t, err)

	assert.Equal(t, models.ReportStats{}, report.Stats)
	assert.Equal(t, []string{NoTasksLine}, report.Sections.Highlights)
	assert.Equal(t, []string{NoIssuesLine}, report.Sections.Issues)
	assert.Equal(t, []string{MaintainPerfLine}, report.Sections.Recommendations)
	assert.Empty(t, report.TasksCache)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)
	other := f.user(t, "minh", models.RoleEmployee)

	_, err := f.builder.Generate(f.ctx, owner, owner.UserID, "2024-5")
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	_, err = f.builder.Generate(f.ctx, other, owner.UserID, "2024-05")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestGenerateIssuesAndRecommendations(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "lan", models.RoleEmployee)

	f.task(t, models.Task{UserID: owner.UserID, Title: "Đối soát", TaskDate: day(2024, 5, 2), Progress: 10, Status: models.StatusCompleted})
	f.task(t, models.Task{UserID: owner.UserID, Title: "Báo cáo thuế", TaskDate: day(2024, 5, 20), Progress: 10})
	f.kpi(t, owner.UserID, day(2024, 5, 1), day(2024, 5, 31))

	report, err := f.builder.Generate(f.ctx, owner, owner.UserID, "2024-05")
	require.NoError(t, err)

	// fixedNow is in June, so the open task is overdue.
	assert.Equal(t, models.ReportStats{Total: 2, Done: 1, Overdue: 1, Pending: 1, AvgPerDay: 0.1, OnTimeRate: 50}, report.Stats)
	assert.Equal(t, []string{
		"- Có 1 công việc quá hạn.",
		"- Còn 1 công việc chưa hoàn thành.",
		"- KPI \"Doanh số\" mới đạt 50%.",
	}, report.Sections.Issues)
	assert.Equal(t, []string{
		"- Ưu tiên xử lý dứt điểm các công việc quá hạn.",
		"- Cải thiện tỷ lệ hoàn thành công việc đúng hạn.",
		"- Lên kế hoạch hoàn thành các công việc còn tồn đọng.",
	}, report.Sections.Recommendations)
}

func TestHighlightLinesRanking(t *testing.T) {
	tasks := []models.Task{
		{Title: "thấp", Status: "pending", Priority: models.PriorityLow, Progress: 90},
		{Title: "xong", Status: models.StatusCompleted, Priority: models.PriorityLow, Progress: 1},
		{Title: "khẩn", Status: "pending", Priority: models.PriorityUrgent, Progress: 0},
		{Title: "cao", Status: "pending", Priority: models.PriorityHigh, Progress: 50},
	}

	assert.Equal(t, []string{
		"- xong – completed (1%)",
		"- khẩn – pending (0%)",
		"- cao – pending (50%)",
	}, highlightLines(tasks))
}

func TestBuildTaskCacheMergesTitles(t *testing.T) {
	tasks := []models.Task{
		{Title: "Gọi điện", TaskDate: day(2024, 5, 1), Progress: 3, Status: models.StatusCompleted, FileLink: "https://a"},
		{Title: "Gọi điện ", TaskDate: day(2024, 5, 1), Progress: 4, Status: "pending", FileLink: "https://a"},
		{Title: "Gọi điện", TaskDate: day(2024, 5, 2), Progress: 5, Status: models.StatusCompleted, FileLink: "https://b"},
	}

	cache := BuildTaskCache(tasks, time.UTC)
	require.Len(t, cache, 1)
	assert.Equal(t, 8, cache[0].Progress)
	assert.Equal(t, []string{"01/05/2024", "02/05/2024"}, cache[0].Dates)
	assert.Equal(t, models.StatusCompleted, cache[0].Status)
	assert.Equal(t, "https://a", cache[0].Link)
	assert.Equal(t, []string{"https://a", "https://b"}, cache[0].Links)
}

func TestRecommendationOverrideWhenNoIssues(t *testing.T) {
	stats := models.ReportStats{Total: 3, Done: 3, OnTimeRate: 80}
	assert.Equal(t, []string{MaintainPerfLine}, recommendationLines(stats, []string{NoIssuesLine}))
}
