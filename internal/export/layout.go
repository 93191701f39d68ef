// Package export lays out monthly summaries as spreadsheets.
package export

import (
	"fmt"
	"time"

	"github.com/arnold/kpitrack-api/internal/models"
)

const SheetName = "Báo cáo KPI"

const (
	colorHeaderFill = "#DDEBF7"
	colorPass       = "#1E7B34"
	colorFail       = "#C0392B"
	colorPending    = "#B9770E"
	colorLink       = "#0563C1"
)

var tableHeader = []string{
	"STT", "KPI", "Công việc", "Thời gian", "Mục tiêu", "Kết quả", "Tỷ lệ (%)", "Đánh giá", "Minh chứng",
}

// SummaryDocument is everything the export needs from a stored summary.
type SummaryDocument struct {
	EmployeeName string
	Month        time.Time
	Title        string
	LockedAt     *time.Time
	Content      string
	Stats        models.ReportStats
	Rows         []models.KPITaskRow
}

// Style is a cell-level style intent, independent of the file format.
type Style struct {
	Bold      bool
	Fill      string
	FontColor string
	Underline bool
	Wrap      bool
	NumFmt    int
}

type Cell struct {
	Col     int
	Row     int
	Value   any
	Style   Style
	Link    string
	MergeTo int // last column of a horizontal merge, 0 for none
}

// Layout places the header block, the KPI table and the proof appendix.
func Layout(doc *SummaryDocument) []Cell {
	var cells []Cell
	lastCol := len(tableHeader)
	label := Style{Bold: true}

	cells = append(cells, Cell{
		Col: 1, Row: 1, MergeTo: lastCol,
		Value: fmt.Sprintf("BÁO CÁO KPI THÁNG %s", doc.Month.Format("01/2006")),
		Style: Style{Bold: true, Fill: colorHeaderFill},
	})

	lockedAt := "Chưa khóa"
	if doc.LockedAt != nil {
		lockedAt = doc.LockedAt.Format("02/01/2006 15:04")
	}
	header := [][2]any{
		{"Nhân viên", doc.EmployeeName},
		{"Tiêu đề", doc.Title},
		{"Khóa lúc", lockedAt},
		{"Nội dung", doc.Content},
	}
	row := 2
	for _, h := range header {
		cells = append(cells,
			Cell{Col: 1, Row: row, Value: h[0], Style: label, MergeTo: 2},
			Cell{Col: 3, Row: row, Value: h[1], Style: Style{Wrap: true}, MergeTo: lastCol},
		)
		row++
	}

	row++
	cells = append(cells, Cell{Col: 1, Row: row, Value: "Thống kê", Style: label, MergeTo: 2})
	row++
	stats := [][2]any{
		{"Tổng số công việc", doc.Stats.Total},
		{"Đã hoàn thành", doc.Stats.Done},
		{"Chưa hoàn thành", doc.Stats.Pending},
		{"Quá hạn", doc.Stats.Overdue},
		{"Trung bình mỗi ngày", doc.Stats.AvgPerDay},
		{"Tỷ lệ đúng hạn (%)", doc.Stats.OnTimeRate},
	}
	for _, s := range stats {
		cells = append(cells,
			Cell{Col: 1, Row: row, Value: s[0], MergeTo: 2},
			Cell{Col: 3, Row: row, Value: s[1]},
		)
		row++
	}

	row++
	headStyle := Style{Bold: true, Fill: colorHeaderFill, Wrap: true}
	for i, h := range tableHeader {
		cells = append(cells, Cell{Col: i + 1, Row: row, Value: h, Style: headStyle})
	}
	row++

	number := Style{NumFmt: 2}
	for i, r := range doc.Rows {
		proof := Cell{Col: 9, Row: row, Value: "-"}
		if r.ProofCount > 0 {
			proof.Value = r.ProofCount
			proof.Link = r.ProofLinks[0]
			proof.Style = Style{FontColor: colorLink, Underline: true}
		}
		cells = append(cells,
			Cell{Col: 1, Row: row, Value: i + 1},
			Cell{Col: 2, Row: row, Value: r.KPIName, Style: Style{Wrap: true}},
			Cell{Col: 3, Row: row, Value: r.TaskTitle, Style: Style{Wrap: true}},
			Cell{Col: 4, Row: row, Value: r.TimeRange},
			Cell{Col: 5, Row: row, Value: r.Target, Style: number},
			Cell{Col: 6, Row: row, Value: r.Actual, Style: number},
			Cell{Col: 7, Row: row, Value: r.Percent, Style: number},
			Cell{Col: 8, Row: row, Value: r.Evaluation, Style: Style{Bold: true, FontColor: evaluationColor(r.Evaluation)}},
			proof,
		)
		row++
	}

	row++
	cells = append(cells, Cell{Col: 1, Row: row, Value: "Phụ lục: Minh chứng", Style: label, MergeTo: lastCol})
	row++
	for i, r := range doc.Rows {
		if r.ProofCount == 0 {
			continue
		}
		cells = append(cells, Cell{
			Col: 1, Row: row, MergeTo: lastCol, Style: label,
			Value: fmt.Sprintf("%d. %s / %s", i+1, r.KPIName, r.TaskTitle),
		})
		row++
		for _, link := range r.ProofLinks {
			cells = append(cells, Cell{
				Col: 2, Row: row, MergeTo: lastCol, Value: link, Link: link,
				Style: Style{FontColor: colorLink, Underline: true},
			})
			row++
		}
	}
	return cells
}

func evaluationColor(evaluation string) string {
	switch evaluation {
	case models.EvaluationPass:
		return colorPass
	case models.EvaluationFail:
		return colorFail
	default:
		return colorPending
	}
}
