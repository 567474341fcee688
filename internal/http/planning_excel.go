package httpapi

import (
	"bytes"
	"fmt"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/grid"

	"github.com/xuri/excelize/v2"
)

const planningSheet = "Planning"

// measureNumFmt is the built-in "#,##0.00" format.
const measureNumFmt = 4

// GeneratePlanningExport 生成网格导出 Excel 文件
// 表头取列标签；度量列写数值（空值为 0），其余列写网格显示值。
func GeneratePlanningExport(cols []grid.ColumnConfig, rows []domain.JoinedRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(planningSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	styles, err := newExportStyles(f)
	if err != nil {
		return nil, err
	}
	if err := writeExportHeader(f, cols, styles.header); err != nil {
		return nil, err
	}

	for r := range rows {
		row := &rows[r]
		for i, c := range cols {
			value, isMeasure := exportValue(row, c)
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(planningSheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
			if isMeasure {
				if err := f.SetCellStyle(planningSheet, cell, cell, styles.measure); err != nil {
					return nil, fmt.Errorf("failed to set measure style: %w", err)
				}
			}
		}
	}

	if len(cols) > 0 {
		last, err := excelize.CoordinatesToCellName(len(cols), len(rows)+1)
		if err != nil {
			return nil, err
		}
		if err := f.AutoFilter(planningSheet, "A1:"+last, nil); err != nil {
			return nil, fmt.Errorf("failed to set auto filter: %w", err)
		}
	}

	// 冻结表头
	if err := f.SetPanes(planningSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type exportStyles struct {
	header  int
	measure int
}

func newExportStyles(f *excelize.File) (exportStyles, error) {
	var s exportStyles
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	var err error
	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}
	s.measure, err = f.NewStyle(&excelize.Style{
		NumFmt:    measureNumFmt,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create measure style: %w", err)
	}
	return s, nil
}

// writeExportHeader writes column labels into row 1 and sizes the columns.
func writeExportHeader(f *excelize.File, cols []grid.ColumnConfig, style int) error {
	for i, c := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(planningSheet, cell, c.Header()); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(planningSheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := 20.0
		if domain.IsMeasureField(c.Field) {
			width = 14
		}
		if err := f.SetColWidth(planningSheet, name, name, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

// exportValue returns the cell value for c and whether it is a measure.
func exportValue(row *domain.JoinedRow, c grid.ColumnConfig) (any, bool) {
	if c.Kind != grid.KindDimension {
		if m, ok := row.Fact.Measure(c.Field); ok {
			if m == nil {
				return 0.0, true
			}
			return *m, true
		}
	}
	return grid.Project(row, c).Value, false
}
