package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/feichai0017/diagnosis-extractor/internal/models"
)

const xlsxSheet = "Diagnoses"

// writeXLSX stores the run's records as a workbook with the same two
// columns as the CSV.
func writeXLSX(path string, records []models.DiagnosisRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}

	for i, h := range csvHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(xlsxSheet, cell, h); err != nil {
			return err
		}
	}

	for i, rec := range records {
		row := i + 2
		if err := f.SetCellValue(xlsxSheet, fmt.Sprintf("A%d", row), rec.ImageName); err != nil {
			return err
		}
		if err := f.SetCellValue(xlsxSheet, fmt.Sprintf("B%d", row), rec.Diagnosis); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(xlsxSheet, "A", "A", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(xlsxSheet, "B", "B", 48); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create xlsx directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save xlsx: %w", err)
	}
	return nil
}
