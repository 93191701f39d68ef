package services

import (
	"context"
	"strings"

	"github.com/arnold/kpitrack-api/internal/models"
)

// Formatter turns KPI target lines into presentation rows. The detail view
// and the spreadsheet export both go through BuildTaskRows.
type Formatter struct {
	aggregator *Aggregator
}

func NewFormatter(aggregator *Aggregator) *Formatter {
	return &Formatter{aggregator: aggregator}
}

func (f *Formatter) BuildTaskRows(ctx context.Context, actor models.Identity, kpi *models.KPI, cache []models.CachedTask) ([]models.KPITaskRow, error) {
	var actuals map[string]int
	rows := make([]models.KPITaskRow, 0, len(kpi.Tasks))

	for _, line := range kpi.Tasks {
		// Breakdown and the cache both key on trimmed titles.
		title := strings.TrimSpace(line.TaskTitle)
		dates, links := matchCache(cache, title)

		var actual float64
		if line.CompletedUnit != nil {
			actual = *line.CompletedUnit
		} else {
			if actuals == nil {
				breakdown, err := f.aggregator.Breakdown(ctx, actor, kpi)
				if err != nil {
					return nil, err
				}
				actuals = make(map[string]int, len(breakdown))
				for _, b := range breakdown {
					actuals[b.Title] = b.Actual
				}
			}
			actual = float64(actuals[title])
		}

		target := line.TargetProgress
		percent := percentOf(actual, target)
		rows = append(rows, models.KPITaskRow{
			KPIID:      kpi.ID,
			KPIName:    kpi.Name,
			TaskTitle:  title,
			TimeRange:  timeRange(dates),
			Target:     target,
			Actual:     actual,
			Percent:    percent,
			Evaluation: Evaluate(percent),
			ProofLinks: links,
			ProofCount: len(links),
		})
	}
	return rows, nil
}

// Evaluate classifies an attainment percent: 80 and above passes, 30 and
// below fails, anything between is not yet reached.
func Evaluate(percent float64) string {
	switch {
	case percent >= 80:
		return models.EvaluationPass
	case percent <= 30:
		return models.EvaluationFail
	default:
		return models.EvaluationPending
	}
}

func matchCache(cache []models.CachedTask, title string) ([]string, []string) {
	dates := []string{}
	links := []string{}
	for _, c := range cache {
		if c.Title != title {
			continue
		}
		dates = append(dates, c.Dates...)
		links = appendLink(links, c.Link)
		for _, l := range c.Links {
			links = appendLink(links, l)
		}
	}
	return dates, links
}

func timeRange(dates []string) string {
	switch len(dates) {
	case 0:
		return models.NoTimeRange
	case 1:
		return dates[0]
	default:
		return dates[0] + " - " + dates[len(dates)-1]
	}
}
