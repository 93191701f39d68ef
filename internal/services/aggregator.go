package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/lock"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/arnold/kpitrack-api/internal/repositories"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// UntitledTask labels contributions from tasks without a title.
const UntitledTask = "Không có tiêu đề"

const dayKeyLayout = "2006-01-02"

// TitleContribution is the summed contribution of every task sharing a title.
type TitleContribution struct {
	Title   string  `json:"title"`
	Goal    int     `json:"goal"`
	Actual  int     `json:"actual"`
	Percent float64 `json:"percent"`
}

// DailyContribution is the summed contribution of tasks dated on one day.
type DailyContribution struct {
	Date   string `json:"date"`
	Goal   int    `json:"goal"`
	Actual int    `json:"actual"`
}

// ProgressPoint compares expected and cumulative actual progress on a KPI day.
type ProgressPoint struct {
	Date     string  `json:"date"`
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
}

type Aggregator struct {
	tasks  repositories.TaskRepository
	kpis   repositories.KPIRepository
	locker lock.Locker
	logger *logrus.Logger
	loc    *time.Location
}

// NewAggregator builds an aggregator whose calendar days are those of loc.
func NewAggregator(tasks repositories.TaskRepository, kpis repositories.KPIRepository, locker lock.Locker, logger *logrus.Logger, loc *time.Location) *Aggregator {
	return &Aggregator{tasks: tasks, kpis: kpis, locker: locker, logger: logger, loc: loc}
}

// FetchWindowTasks loads the tasks dated or due inside the KPI window that
// the KPI's owner owns or was assigned, with only the owner's pivots.
func (a *Aggregator) FetchWindowTasks(ctx context.Context, kpi *models.KPI) ([]models.Task, error) {
	return a.tasks.FindTouchingWindow(ctx, kpi.UserID, a.window(kpi))
}

func (a *Aggregator) contributions(ctx context.Context, actor models.Identity, kpi *models.KPI) ([]models.Task, []Contribution, error) {
	if !actor.CanAccess(kpi.UserID) {
		return nil, nil, apperror.Forbidden("You don't have access to this KPI")
	}
	tasks, err := a.FetchWindowTasks(ctx, kpi)
	if err != nil {
		return nil, nil, err
	}
	contribs := make([]Contribution, len(tasks))
	for i := range tasks {
		contribs[i] = ResolveFor(&tasks[i], kpi.UserID)
	}
	return tasks, contribs, nil
}

// Recalculate sums the window contributions into the KPI totals. With
// persist the totals are written back under a per-KPI lock; without it the
// stored row is left alone and only the returned copy carries them.
func (a *Aggregator) Recalculate(ctx context.Context, actor models.Identity, kpi *models.KPI, persist bool) (*models.KPI, error) {
	if persist {
		release, err := a.locker.Acquire(ctx, lock.KPIKey(kpi.ID))
		if err != nil {
			return nil, apperror.Internal(err, "failed to lock KPI")
		}
		defer release()
	}

	_, contribs, err := a.contributions(ctx, actor, kpi)
	if err != nil {
		return nil, err
	}

	var total Contribution
	for _, c := range contribs {
		total = total.Add(c)
	}

	result := *kpi
	result.TargetProgress = total.Goal
	result.ActualProgress = total.Actual
	result.Percent = attainment(float64(total.Actual), float64(total.Goal))

	if persist {
		if err := a.kpis.SaveTotals(ctx, kpi.ID, result.TargetProgress, result.ActualProgress, result.Percent); err != nil {
			return nil, err
		}
		a.logger.WithFields(logrus.Fields{
			"kpiId":   kpi.ID,
			"target":  result.TargetProgress,
			"actual":  result.ActualProgress,
			"percent": result.Percent,
		}).Info("KPI totals recalculated")
	}
	return &result, nil
}

// Breakdown groups window contributions by task title in first-seen order,
// leaving out titles that contributed nothing.
func (a *Aggregator) Breakdown(ctx context.Context, actor models.Identity, kpi *models.KPI) ([]TitleContribution, error) {
	tasks, contribs, err := a.contributions(ctx, actor, kpi)
	if err != nil {
		return nil, err
	}

	var order []string
	sums := make(map[string]Contribution)
	for i := range tasks {
		title := strings.TrimSpace(tasks[i].Title)
		if title == "" {
			title = UntitledTask
		}
		if _, seen := sums[title]; !seen {
			order = append(order, title)
		}
		sums[title] = sums[title].Add(contribs[i])
	}

	out := make([]TitleContribution, 0, len(order))
	for _, title := range order {
		c := sums[title]
		if c.IsZero() {
			continue
		}
		out = append(out, TitleContribution{
			Title:   title,
			Goal:    c.Goal,
			Actual:  c.Actual,
			Percent: attainment(float64(c.Actual), float64(c.Goal)),
		})
	}
	return out, nil
}

// DailyActualMap buckets window contributions by task date, ascending.
func (a *Aggregator) DailyActualMap(ctx context.Context, actor models.Identity, kpi *models.KPI) ([]DailyContribution, error) {
	tasks, contribs, err := a.contributions(ctx, actor, kpi)
	if err != nil {
		return nil, err
	}

	days := make(map[string]Contribution)
	for i := range tasks {
		key := tasks[i].TaskDate.In(a.loc).Format(dayKeyLayout)
		days[key] = days[key].Add(contribs[i])
	}

	out := make([]DailyContribution, 0, len(days))
	for key, c := range days {
		out = append(out, DailyContribution{Date: key, Goal: c.Goal, Actual: c.Actual})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ProgressCurve yields one point per KPI day. Expected grows linearly from
// day 1 to 100 on the last day; actual is the cumulative daily actual over
// the sum of the KPI's target lines, capped at 100.
func (a *Aggregator) ProgressCurve(ctx context.Context, actor models.Identity, kpi *models.KPI) ([]ProgressPoint, error) {
	daily, err := a.DailyActualMap(ctx, actor, kpi)
	if err != nil {
		return nil, err
	}

	var target float64
	for _, t := range kpi.Tasks {
		target += t.TargetProgress
	}

	w := a.window(kpi)
	totalDays := int(w.To.Sub(w.From).Hours()/24 + 0.5)
	if totalDays <= 0 {
		return []ProgressPoint{}, nil
	}

	points := make([]ProgressPoint, 0, totalDays)
	cumulative, next := 0, 0
	for day := 1; day <= totalDays; day++ {
		date := w.From.AddDate(0, 0, day-1)
		key := date.Format(dayKeyLayout)
		for next < len(daily) && daily[next].Date <= key {
			cumulative += daily[next].Actual
			next++
		}

		expected := decimal.NewFromInt(int64(day)).Mul(hundred).Div(decimal.NewFromInt(int64(totalDays))).Round(0).InexactFloat64()
		points = append(points, ProgressPoint{
			Date:     key,
			Expected: capAt(expected, 100),
			Actual:   capAt(percentOf(float64(cumulative), target), 100),
		})
	}
	return points, nil
}

func (a *Aggregator) window(kpi *models.KPI) repositories.Window {
	return repositories.DayWindow(kpi.StartDate, kpi.EndDate, a.loc)
}

// dayStart truncates t to midnight in its own location.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
