package export

import (
	"testing"
	"time"

	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func find(cells []Cell, col, row int) *Cell {
	for i := range cells {
		if cells[i].Col == col && cells[i].Row == row {
			return &cells[i]
		}
	}
	return nil
}

func TestLayout(t *testing.T) {
	doc := &SummaryDocument{
		EmployeeName: "Lan",
		Month:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Title:        "Báo cáo tháng 05/2024 - Lan",
		Stats:        models.ReportStats{Total: 2, Done: 1},
		Rows: []models.KPITaskRow{
			{KPIName: "Doanh số", TaskTitle: "A", Percent: 90, Evaluation: models.EvaluationPass,
				ProofLinks: []string{"https://a", "https://b"}, ProofCount: 2},
			{KPIName: "Doanh số", TaskTitle: "B", Percent: 10, Evaluation: models.EvaluationFail},
		},
	}
	cells := Layout(doc)

	title := find(cells, 1, 1)
	require.NotNil(t, title)
	assert.Equal(t, "BÁO CÁO KPI THÁNG 05/2024", title.Value)
	assert.Equal(t, len(tableHeader), title.MergeTo)

	locked := find(cells, 3, 4)
	require.NotNil(t, locked)
	assert.Equal(t, "Chưa khóa", locked.Value)

	head := find(cells, 1, 15)
	require.NotNil(t, head)
	assert.Equal(t, "STT", head.Value)
	assert.True(t, head.Style.Bold)

	pass := find(cells, 8, 16)
	require.NotNil(t, pass)
	assert.Equal(t, colorPass, pass.Style.FontColor)

	proof := find(cells, 9, 16)
	require.NotNil(t, proof)
	assert.Equal(t, 2, proof.Value)
	assert.Equal(t, "https://a", proof.Link)

	noProof := find(cells, 9, 17)
	require.NotNil(t, noProof)
	assert.Equal(t, "-", noProof.Value)
	assert.Empty(t, noProof.Link)

	appendix := find(cells, 1, 19)
	require.NotNil(t, appendix)
	assert.Equal(t, "Phụ lục: Minh chứng", appendix.Value)

	// Only the row with proofs gets an appendix entry, one line per link.
	entry := find(cells, 1, 20)
	require.NotNil(t, entry)
	assert.Equal(t, "1. Doanh số / A", entry.Value)
	assert.Equal(t, "https://a", find(cells, 2, 21).Link)
	assert.Equal(t, "https://b", find(cells, 2, 22).Link)
	assert.Nil(t, find(cells, 1, 23))
}

func TestLayoutLockedAt(t *testing.T) {
	lockedAt := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	cells := Layout(&SummaryDocument{Month: lockedAt, LockedAt: &lockedAt})

	locked := find(cells, 3, 4)
	require.NotNil(t, locked)
	assert.Equal(t, "01/06/2024 08:30", locked.Value)
}
