package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Transcript"

// XLSXExporter renders datasets into a single-sheet workbook. Numeric cells
// are written as numbers so spreadsheet formulas work on them.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *XLSXExporter) Extension() string { return "xlsx" }

func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	row := 1
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(xlsxSheet, cell, v)
	}

	if data.Title != "" {
		write(1, data.Title)
		row += 2
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	for i, h := range data.Headers {
		write(i+1, h)
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(data.Headers), row)
	_ = f.SetCellStyle(xlsxSheet, first, last, bold)
	row++

	for _, r := range data.Rows {
		for i, h := range data.Headers {
			write(i+1, cellValue(r[h]))
		}
		row++
	}

	if len(data.Summary) > 0 {
		row++
		for _, line := range data.Summary {
			write(1, line.Label)
			write(2, cellValue(line.Value))
			row++
		}
	}

	for i, h := range data.Headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := 12.0
		if h == "Name" || h == "Term" {
			width = 36
		}
		_ = f.SetColWidth(xlsxSheet, col, col, width)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(raw string) any {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}
