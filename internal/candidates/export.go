package candidates

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Candidates"

// ExportXLSX renders records as a spreadsheet with the display column names
// followed by the creation timestamp.
func ExportXLSX(records []StoredRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(exportSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	index, err := f.GetSheetIndex(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	f.SetActiveSheet(index)
	// Drop the default sheet so the export has a single tab.
	_ = f.DeleteSheet("Sheet1")

	headers := append(append([]string{}, Columns...), "Created At")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
	}

	for r, rec := range records {
		values := append(rec.Values(), rec.CreatedAt)
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(exportSheet, cell, v); err != nil {
				return nil, fmt.Errorf("xlsx row %d: %w", r+1, err)
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(exportSheet, "A", lastCol, 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
