package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelRenderer writes class rosters as xlsx workbooks.
type ExcelRenderer struct{}

// NewExcelRenderer constructs an Excel renderer.
func NewExcelRenderer() *ExcelRenderer {
	return &ExcelRenderer{}
}

// RenderRoster produces an xlsx sheet mirroring the PDF roster columns.
func (e *ExcelRenderer) RenderRoster(doc RosterDoc) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := f.GetSheetName(0)

	title := fmt.Sprintf("%s - %s (%s)", doc.ClassName, doc.Subject, doc.Level)
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return nil, fmt.Errorf("write roster title: %w", err)
	}
	if err := f.MergeCell(sheet, "A1", "D1"); err != nil {
		return nil, fmt.Errorf("merge roster title: %w", err)
	}
	_ = f.SetCellValue(sheet, "A2", fmt.Sprintf("Date: %s", formatDate(doc.IssuedAt)))

	headers := []string{"Nom complet", "Niveau", "Date d'inscription", "Heure"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 4)
		if err != nil {
			return nil, fmt.Errorf("roster header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write roster header: %w", err)
		}
	}

	for i, row := range doc.Rows {
		date, clock := formatDateTime(row.EnrolledAt)
		values := []interface{}{row.StudentName, row.Level, date, clock}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+5)
			if err != nil {
				return nil, fmt.Errorf("roster row cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write roster row: %w", err)
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 32)
	_ = f.SetColWidth(sheet, "B", "D", 18)

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render roster xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
