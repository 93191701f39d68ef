package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

var columnWidths = []float64{6, 28, 28, 24, 10, 10, 10, 12, 12}

// ExcelRenderer writes a SummaryDocument as an .xlsx workbook.
type ExcelRenderer struct{}

func (ExcelRenderer) Render(doc *SummaryDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	styles := make(map[Style]int)
	for _, c := range Layout(doc) {
		ref, err := excelize.CoordinatesToCellName(c.Col, c.Row)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, ref, c.Value); err != nil {
			return nil, fmt.Errorf("set %s: %w", ref, err)
		}
		if c.MergeTo > c.Col {
			end, err := excelize.CoordinatesToCellName(c.MergeTo, c.Row)
			if err != nil {
				return nil, err
			}
			if err := f.MergeCell(SheetName, ref, end); err != nil {
				return nil, err
			}
		}
		if c.Link != "" {
			if err := f.SetCellHyperLink(SheetName, ref, c.Link, "External"); err != nil {
				return nil, fmt.Errorf("link %s: %w", ref, err)
			}
		}
		if c.Style == (Style{}) {
			continue
		}
		id, ok := styles[c.Style]
		if !ok {
			id, err = f.NewStyle(toExcelStyle(c.Style))
			if err != nil {
				return nil, err
			}
			styles[c.Style] = id
		}
		if err := f.SetCellStyle(SheetName, ref, ref, id); err != nil {
			return nil, err
		}
	}

	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toExcelStyle(s Style) *excelize.Style {
	font := &excelize.Font{Bold: s.Bold, Color: s.FontColor}
	if s.Underline {
		font.Underline = "single"
	}
	style := &excelize.Style{
		Font:      font,
		Alignment: &excelize.Alignment{WrapText: s.Wrap, Vertical: "top"},
		NumFmt:    s.NumFmt,
	}
	if s.Fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.Fill}}
	}
	return style
}
