package results

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lehigh-university-libraries/floraeval/internal/eval/metrics"
	"github.com/lehigh-university-libraries/floraeval/internal/eval/scoring"
)

// minColumns is the width of a result row.
const minColumns = 8

// Row is a ScoredRow in table form. The field order is the column order
// of every table format.
type Row struct {
	Label              string  `parquet:"label"`
	ImageName          string  `parquet:"image_name"`
	SpeciesMatchTop    bool    `parquet:"species_match_top"`
	GenusMatchTop      bool    `parquet:"genus_match_top"`
	RankOfCorrectMatch int64   `parquet:"rank_of_correct_match"`
	TopPredictedName   string  `parquet:"top_predicted_name"`
	TopScore           float64 `parquet:"top_score"`
	ScoreAtCorrectRank float64 `parquet:"score_at_correct_rank"`
}

// NewRow converts a scored row.
func NewRow(s scoring.ScoredRow) Row {
	return Row{
		Label:              s.Label,
		ImageName:          s.ImageName,
		SpeciesMatchTop:    s.SpeciesMatchTop,
		GenusMatchTop:      s.GenusMatchTop,
		RankOfCorrectMatch: int64(s.RankOfCorrectMatch),
		TopPredictedName:   s.TopPredictedName,
		TopScore:           s.TopScore,
		ScoreAtCorrectRank: s.ScoreAtCorrectRank,
	}
}

// NewRows converts scored rows, keeping their order.
func NewRows(scored []scoring.ScoredRow) []Row {
	rows := make([]Row, 0, len(scored))
	for _, s := range scored {
		rows = append(rows, NewRow(s))
	}
	return rows
}

// Columns extracts the columns the statistics are computed from.
func Columns(rows []Row) metrics.Columns {
	cols := metrics.Columns{
		SpeciesTop:    make([]bool, 0, len(rows)),
		GenusTop:      make([]bool, 0, len(rows)),
		Positions:     make([]int, 0, len(rows)),
		TopScores:     make([]float64, 0, len(rows)),
		CorrectScores: make([]float64, 0, len(rows)),
	}
	for _, r := range rows {
		cols.SpeciesTop = append(cols.SpeciesTop, r.SpeciesMatchTop)
		cols.GenusTop = append(cols.GenusTop, r.GenusMatchTop)
		cols.Positions = append(cols.Positions, int(r.RankOfCorrectMatch))
		cols.TopScores = append(cols.TopScores, r.TopScore)
		cols.CorrectScores = append(cols.CorrectScores, r.ScoreAtCorrectRank)
	}
	return cols
}

// record renders the row as text cells: booleans as True/False and floats
// in their shortest round-trip form.
func (r Row) record() []string {
	return []string{
		r.Label,
		r.ImageName,
		formatBool(r.SpeciesMatchTop),
		formatBool(r.GenusMatchTop),
		strconv.FormatInt(r.RankOfCorrectMatch, 10),
		r.TopPredictedName,
		strconv.FormatFloat(r.TopScore, 'f', -1, 64),
		strconv.FormatFloat(r.ScoreAtCorrectRank, 'f', -1, 64),
	}
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// parseRecord reads a row from text cells by position.
func parseRecord(cells []string) (Row, error) {
	if len(cells) < minColumns {
		return Row{}, fmt.Errorf("expected at least %d columns, got %d", minColumns, len(cells))
	}

	var (
		row Row
		err error
	)
	row.Label = cells[0]
	row.ImageName = cells[1]
	if row.SpeciesMatchTop, err = strconv.ParseBool(cells[2]); err != nil {
		return Row{}, fmt.Errorf("column 2: %w", err)
	}
	if row.GenusMatchTop, err = strconv.ParseBool(cells[3]); err != nil {
		return Row{}, fmt.Errorf("column 3: %w", err)
	}
	if row.RankOfCorrectMatch, err = parseInt(cells[4]); err != nil {
		return Row{}, fmt.Errorf("column 4: %w", err)
	}
	row.TopPredictedName = cells[5]
	if row.TopScore, err = strconv.ParseFloat(cells[6], 64); err != nil {
		return Row{}, fmt.Errorf("column 6: %w", err)
	}
	if row.ScoreAtCorrectRank, err = strconv.ParseFloat(cells[7], 64); err != nil {
		return Row{}, fmt.Errorf("column 7: %w", err)
	}
	return row, nil
}

// parseInt accepts integers written as floats ("5.0"), which spreadsheet
// round-trips produce.
func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int64(f), nil
}

// isHeader reports whether the first record of a table is a header: its
// rank column does not hold a number.
func isHeader(cells []string) bool {
	if len(cells) < minColumns {
		return false
	}
	_, err := parseInt(cells[4])
	return err != nil
}

// parseRecords parses text records, skipping a leading header row.
func parseRecords(records [][]string) ([]Row, error) {
	if len(records) > 0 && isHeader(records[0]) {
		slog.Debug("Skipping header row", "cells", records[0])
		records = records[1:]
	}

	rows := make([]Row, 0, len(records))
	for i, cells := range records {
		if len(cells) == 0 || (len(cells) == 1 && cells[0] == "") {
			continue
		}
		row, err := parseRecord(cells)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Format is a result table file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatParquet Format = "parquet"
)

// FormatOf returns the table format of a file name.
func FormatOf(name string) (Format, bool) {
	switch filepath.Ext(name) {
	case ".csv", ".CSV":
		return FormatCSV, true
	case ".xlsx", ".XLSX":
		return FormatXLSX, true
	case ".parquet":
		return FormatParquet, true
	}
	return "", false
}

// ReadTable reads a result table of any supported format.
func ReadTable(path string) ([]Row, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, fmt.Errorf("unsupported file format: %s (supported: .csv, .xlsx, .parquet)", filepath.Ext(path))
	}

	slog.Debug("Reading result table", "path", path, "format", format)

	switch format {
	case FormatXLSX:
		return ReadXLSX(path)
	case FormatParquet:
		return ReadParquet(path)
	default:
		return ReadCSV(path)
	}
}

// WriteTables writes rows to <outDir>/<label>.<format> for each format and
// returns the written paths.
func WriteTables(outDir, label string, rows []Row, formats ...Format) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var paths []string
	for _, format := range formats {
		path := filepath.Join(outDir, label+"."+string(format))

		var err error
		switch format {
		case FormatCSV:
			err = WriteCSV(path, rows)
		case FormatXLSX:
			err = WriteXLSX(path, rows)
		case FormatParquet:
			err = WriteParquet(path, rows)
		default:
			err = fmt.Errorf("unsupported format %q", format)
		}
		if err != nil {
			return paths, err
		}

		slog.Info("Wrote result table", "path", path, "rows", len(rows))
		paths = append(paths, path)
	}
	return paths, nil
}
