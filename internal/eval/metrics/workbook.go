package metrics

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

var workbookHeader = []any{
	"File", "Rows",
	"Species Correct", "Species Incorrect", "Species Wald Low", "Species Wald High",
	"Genus Correct", "Genus Incorrect", "Genus Wald Low", "Genus Wald High",
	"Top Score Mean", "Top Score Std", "True Species Score Mean", "True Species Score Std",
	"Average Position", "Position Count",
}

// SaveWorkbook writes one summary row per file to an xlsx workbook.
func (r *Report) SaveWorkbook(filename string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	if err := f.SetSheetRow(summarySheet, "A1", &workbookHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, s := range r.Files {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			s.Name, s.Rows,
			s.SpeciesCorrect, s.SpeciesIncorrect, s.SpeciesWald.Low, s.SpeciesWald.High,
			s.GenusCorrect, s.GenusIncorrect, s.GenusWald.Low, s.GenusWald.High,
			s.TopScore.Mean, s.TopScore.StdDev, s.CorrectScore.Mean, s.CorrectScore.StdDev,
			s.AveragePosition, s.PositionCount,
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", s.Name, err)
		}
	}

	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
