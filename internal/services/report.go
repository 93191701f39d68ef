package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/arnold/kpitrack-api/internal/repositories"
	"github.com/google/uuid"
)

const (
	monthLayout     = "2006-01"
	cacheDateLayout = "02/01/2006"
)

// Placeholder lines used when a section has nothing to say.
const (
	NoTasksLine         = "- Không có công việc nào được ghi nhận trong tháng."
	NoIssuesLine        = "- Không có vấn đề đáng kể."
	MaintainProcessLine = "- Tiếp tục duy trì quy trình làm việc hiện tại."
	MaintainPerfLine    = "- Tiếp tục duy trì hiệu suất làm việc."
	noKPILine           = "- Không có KPI trong tháng."
	noActivityLine      = "- Không có nhật ký hoạt động."
)

var priorityRank = map[string]int{
	models.PriorityUrgent: 4,
	models.PriorityHigh:   3,
	models.PriorityMedium: 2,
	models.PriorityLow:    1,
}

// ParseMonth turns "YYYY-MM" into the month's window in loc.
func ParseMonth(yearMonth string, loc *time.Location) (repositories.Window, error) {
	start, err := time.ParseInLocation(monthLayout, yearMonth, loc)
	if err != nil || start.Format(monthLayout) != yearMonth {
		return repositories.Window{}, apperror.InvalidArgument("Invalid month %q, expected YYYY-MM", yearMonth)
	}
	return repositories.Window{From: start, To: start.AddDate(0, 1, 0)}, nil
}

type ReportBuilder struct {
	users      repositories.UserRepository
	tasks      repositories.TaskRepository
	kpis       repositories.KPIRepository
	logs       repositories.ActivityLogRepository
	aggregator *Aggregator
	loc        *time.Location
	now        func() time.Time
}

func NewReportBuilder(
	users repositories.UserRepository,
	tasks repositories.TaskRepository,
	kpis repositories.KPIRepository,
	logs repositories.ActivityLogRepository,
	aggregator *Aggregator,
	loc *time.Location,
) *ReportBuilder {
	return &ReportBuilder{
		users:      users,
		tasks:      tasks,
		kpis:       kpis,
		logs:       logs,
		aggregator: aggregator,
		loc:        loc,
		now:        time.Now,
	}
}

// Generate builds userID's report for yearMonth. It reads only; KPI rows
// are recalculated without being persisted.
func (b *ReportBuilder) Generate(ctx context.Context, actor models.Identity, userID uuid.UUID, yearMonth string) (*models.Report, error) {
	month, err := ParseMonth(yearMonth, b.loc)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(userID) {
		return nil, apperror.Forbidden("You don't have access to this user's reports")
	}

	user, err := b.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := b.tasks.FindDatedInWindow(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	stats := b.computeStats(tasks, month)

	kpis, err := b.kpis.FindOverlapping(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	summaryKPIs := make([]models.SummaryKPI, 0, len(kpis))
	for i := range kpis {
		k, err := b.aggregator.Recalculate(ctx, actor, &kpis[i], false)
		if err != nil {
			return nil, err
		}
		summaryKPIs = append(summaryKPIs, models.SummaryKPI{
			ID:             k.ID,
			Name:           k.Name,
			TargetProgress: k.TargetProgress,
			ActualProgress: k.ActualProgress,
			Percent:        k.Percent,
		})
	}

	logs, err := b.logs.FindInWindow(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	entries := make([]models.ActivityLogEntry, len(logs))
	logLines := make([]string, len(logs))
	for i, l := range logs {
		entries[i] = models.ActivityLogEntry{ID: l.ID, Title: l.Title, Content: l.Content, LoggedAt: l.LoggedAt}
		logLines[i] = fmt.Sprintf("- [%s] %s: %s", l.LoggedAt.In(b.loc).Format("02/01"), l.Title, l.Content)
	}

	issues := issueLines(stats, summaryKPIs)
	sections := models.ReportSections{
		Highlights:      highlightLines(tasks),
		Issues:          issues,
		Recommendations: recommendationLines(stats, issues),
		KPIs:            summaryKPIs,
		ActivityLogs:    logLines,
	}

	return &models.Report{
		Title:        fmt.Sprintf("Báo cáo tháng %s - %s", month.From.Format("01/2006"), user.DisplayName()),
		Content:      renderContent(stats, sections),
		Stats:        stats,
		TasksCache:   BuildTaskCache(tasks, b.loc),
		Sections:     sections,
		ActivityLogs: entries,
	}, nil
}

func (b *ReportBuilder) computeStats(tasks []models.Task, month repositories.Window) models.ReportStats {
	today := dayStart(b.now().In(b.loc))

	var s models.ReportStats
	s.Total = len(tasks)
	for i := range tasks {
		if tasks[i].IsCompleted() {
			s.Done++
		} else if tasks[i].DueAt().Before(today) {
			s.Overdue++
		}
	}
	s.Pending = s.Total - s.Done

	daysInMonth := month.From.AddDate(0, 1, -1).Day()
	s.AvgPerDay = ratio(float64(s.Total), float64(daysInMonth), 1)
	if s.Total > 0 {
		s.OnTimeRate = percentOf(float64(s.Total-s.Overdue), float64(s.Total))
	}
	return s
}

// BuildTaskCache folds tasks into one entry per title, in first-seen order.
// Dates are the task days in loc.
func BuildTaskCache(tasks []models.Task, loc *time.Location) []models.CachedTask {
	var order []string
	byTitle := make(map[string]*models.CachedTask)

	for i := range tasks {
		t := &tasks[i]
		title := strings.TrimSpace(t.Title)
		entry, ok := byTitle[title]
		if !ok {
			entry = &models.CachedTask{Title: title, Dates: []string{}, Links: []string{}}
			byTitle[title] = entry
			order = append(order, title)
		}

		if t.IsCompleted() {
			entry.Progress += t.Progress
		}
		date := t.TaskDate.In(loc).Format(cacheDateLayout)
		if len(entry.Dates) == 0 || entry.Dates[len(entry.Dates)-1] != date {
			entry.Dates = append(entry.Dates, date)
		}
		entry.Status = t.Status
		entry.Links = appendLink(entry.Links, t.FileLink)
		if entry.Link == "" && len(entry.Links) > 0 {
			entry.Link = entry.Links[0]
		}
	}

	out := make([]models.CachedTask, 0, len(order))
	for _, title := range order {
		out = append(out, *byTitle[title])
	}
	return out
}

func appendLink(links []string, link string) []string {
	link = strings.TrimSpace(link)
	if link == "" {
		return links
	}
	for _, l := range links {
		if l == link {
			return links
		}
	}
	return append(links, link)
}

func highlightScore(t *models.Task) int {
	weight := 1
	if t.IsCompleted() {
		weight = 2
	}
	return weight*1000 + priorityRank[t.Priority]*100 + t.Progress
}

func highlightLines(tasks []models.Task) []string {
	if len(tasks) == 0 {
		return []string{NoTasksLine}
	}

	ranked := make([]*models.Task, len(tasks))
	for i := range tasks {
		ranked[i] = &tasks[i]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return highlightScore(ranked[i]) > highlightScore(ranked[j])
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	lines := make([]string, len(ranked))
	for i, t := range ranked {
		lines[i] = fmt.Sprintf("- %s – %s (%d%%)", t.Title, t.Status, t.Progress)
	}
	return lines
}

func issueLines(s models.ReportStats, kpis []models.SummaryKPI) []string {
	var lines []string
	if s.Overdue > 0 {
		lines = append(lines, fmt.Sprintf("- Có %d công việc quá hạn.", s.Overdue))
	}
	if s.Done < s.Total {
		lines = append(lines, fmt.Sprintf("- Còn %d công việc chưa hoàn thành.", s.Total-s.Done))
	}
	for _, k := range kpis {
		if k.Percent < 100 && k.TargetProgress > 0 {
			lines = append(lines, fmt.Sprintf("- KPI \"%s\" mới đạt %s%%.", k.Name, formatNumber(k.Percent)))
			break
		}
	}
	if len(lines) == 0 {
		return []string{NoIssuesLine}
	}
	return lines
}

// recommendationLines collapses to a single line whenever there are no
// issues, whatever the stats say.
func recommendationLines(s models.ReportStats, issues []string) []string {
	if len(issues) == 1 && issues[0] == NoIssuesLine {
		return []string{MaintainPerfLine}
	}

	var lines []string
	if s.Overdue > 0 {
		lines = append(lines, "- Ưu tiên xử lý dứt điểm các công việc quá hạn.")
	}
	if s.OnTimeRate < 90 {
		lines = append(lines, "- Cải thiện tỷ lệ hoàn thành công việc đúng hạn.")
	}
	if s.Pending > 0 {
		lines = append(lines, "- Lên kế hoạch hoàn thành các công việc còn tồn đọng.")
	}
	if len(lines) == 0 {
		return []string{MaintainProcessLine}
	}
	return lines
}

func renderContent(s models.ReportStats, sec models.ReportSections) string {
	kpiLines := make([]string, 0, len(sec.KPIs))
	for _, k := range sec.KPIs {
		kpiLines = append(kpiLines, fmt.Sprintf("- %s: %s%%", k.Name, formatNumber(k.Percent)))
	}
	if len(kpiLines) == 0 {
		kpiLines = []string{noKPILine}
	}
	logLines := sec.ActivityLogs
	if len(logLines) == 0 {
		logLines = []string{noActivityLine}
	}

	blocks := []string{
		section("1. Tổng quan công việc", []string{
			fmt.Sprintf("- Tổng số công việc: %d", s.Total),
			fmt.Sprintf("- Đã hoàn thành: %d", s.Done),
			fmt.Sprintf("- Chưa hoàn thành: %d", s.Pending),
			fmt.Sprintf("- Quá hạn: %d", s.Overdue),
			fmt.Sprintf("- Trung bình mỗi ngày: %s", formatNumber(s.AvgPerDay)),
			fmt.Sprintf("- Tỷ lệ đúng hạn: %s%%", formatNumber(s.OnTimeRate)),
		}),
		section("2. Kết quả KPI", kpiLines),
		section("3. Điểm nổi bật", sec.Highlights),
		section("4. Vấn đề tồn đọng", sec.Issues),
		section("5. Đề xuất", sec.Recommendations),
		section("6. Nhật ký hoạt động", logLines),
	}
	return strings.Join(blocks, "\n\n")
}

func section(heading string, lines []string) string {
	return heading + "\n" + strings.Join(lines, "\n")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
