package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Columns are the positional result-table columns the statistics read.
type Columns struct {
	SpeciesTop    []bool    // column 2
	GenusTop      []bool    // column 3
	Positions     []int     // column 4
	TopScores     []float64 // column 6
	CorrectScores []float64 // column 7
}

// Len returns the number of rows, or -1 if the columns disagree.
func (c Columns) Len() int {
	n := len(c.SpeciesTop)
	if len(c.GenusTop) != n || len(c.Positions) != n || len(c.TopScores) != n || len(c.CorrectScores) != n {
		return -1
	}
	return n
}

// FileStatistics is the aggregate for one result table.
type FileStatistics struct {
	Name             string   `json:"name"`
	Rows             int      `json:"rows"`
	SpeciesCorrect   int      `json:"species_correct"`
	SpeciesIncorrect int      `json:"species_incorrect"`
	GenusCorrect     int      `json:"genus_correct"`
	GenusIncorrect   int      `json:"genus_incorrect"`
	TopScore         Summary  `json:"top_score"`
	CorrectScore     Summary  `json:"correct_score"`
	SpeciesWald      Interval `json:"species_wald"`
	GenusWald        Interval `json:"genus_wald"`
	AveragePosition  float64  `json:"average_position"`
	PositionCount    int      `json:"position_count"`
}

// FromColumns computes every per-file statistic. n is the number of
// candidates the rank codes were computed against.
func FromColumns(name string, cols Columns, n int) (*FileStatistics, error) {
	rows := cols.Len()
	if rows < 0 {
		return nil, fmt.Errorf("%s: columns have different lengths", name)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyInput)
	}

	stats := &FileStatistics{Name: name, Rows: rows}
	stats.SpeciesCorrect, stats.SpeciesIncorrect = CountCorrectIncorrect(cols.SpeciesTop)
	stats.GenusCorrect, stats.GenusIncorrect = CountCorrectIncorrect(cols.GenusTop)

	var err error
	if stats.TopScore, err = ComputeStatistics(cols.TopScores); err != nil {
		return nil, fmt.Errorf("%s: top score: %w", name, err)
	}
	if stats.CorrectScore, err = ComputeStatistics(cols.CorrectScores); err != nil {
		return nil, fmt.Errorf("%s: correct score: %w", name, err)
	}
	if stats.SpeciesWald, err = WaldInterval(cols.SpeciesTop); err != nil {
		return nil, fmt.Errorf("%s: species interval: %w", name, err)
	}
	if stats.GenusWald, err = WaldInterval(cols.GenusTop); err != nil {
		return nil, fmt.Errorf("%s: genus interval: %w", name, err)
	}
	if stats.AveragePosition, stats.PositionCount, err = AverageCorrectPosition(cols.Positions, n); err != nil {
		return nil, fmt.Errorf("%s: average position: %w", name, err)
	}

	return stats, nil
}

// SkippedFile records a table that could not be summarized.
type SkippedFile struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Report collects the statistics of one run over many tables, in input order.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	NbResults   int               `json:"nb_results"`
	Files       []*FileStatistics `json:"files"`
	Skipped     []SkippedFile     `json:"skipped,omitempty"`
}

// NewReport creates an empty report.
func NewReport(nbResults int) *Report {
	return &Report{
		GeneratedAt: time.Now(),
		NbResults:   nbResults,
		Files:       []*FileStatistics{},
	}
}

// Add appends statistics for one file.
func (r *Report) Add(stats *FileStatistics) {
	r.Files = append(r.Files, stats)
}

// Skip records a file whose contribution is absent from the report.
func (r *Report) Skip(name string, err error) {
	r.Skipped = append(r.Skipped, SkippedFile{Name: name, Error: err.Error()})
}

// Names returns the file names in report order.
func (r *Report) Names() []string {
	names := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		names = append(names, f.Name)
	}
	return names
}

// Find returns the statistics of the named file.
func (r *Report) Find(name string) (*FileStatistics, bool) {
	for _, f := range r.Files {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// WriteSummary writes the human-readable summary to w.
func (r *Report) WriteSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "IDENTIFICATION STATISTICS SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Files: %d (skipped %d)\n", len(r.Files), len(r.Skipped))

	for _, f := range r.Files {
		fmt.Fprintf(w, "\n%s (%d images)\n", f.Name, f.Rows)
		fmt.Fprintln(w, strings.Repeat("-", 70))
		fmt.Fprintf(w, "  Species top-1: %d correct, %d incorrect (%.1f%%)\n",
			f.SpeciesCorrect, f.SpeciesIncorrect, percent(f.SpeciesCorrect, f.Rows))
		fmt.Fprintf(w, "  Genus top-1:   %d correct, %d incorrect (%.1f%%)\n",
			f.GenusCorrect, f.GenusIncorrect, percent(f.GenusCorrect, f.Rows))
		fmt.Fprintf(w, "  Species Wald:  [%.3f, %.3f]\n", f.SpeciesWald.Low, f.SpeciesWald.High)
		fmt.Fprintf(w, "  Genus Wald:    [%.3f, %.3f]\n", f.GenusWald.Low, f.GenusWald.High)
		fmt.Fprintf(w, "  Top score:     mean %.3f, std %.3f, band [%.3f, %.3f]\n",
			f.TopScore.Mean, f.TopScore.StdDev, f.TopScore.Interval.Low, f.TopScore.Interval.High)
		fmt.Fprintf(w, "  True species:  mean %.3f, std %.3f, band [%.3f, %.3f]\n",
			f.CorrectScore.Mean, f.CorrectScore.StdDev, f.CorrectScore.Interval.Low, f.CorrectScore.Interval.High)
		fmt.Fprintf(w, "  Avg position:  %.3f over %d images\n", f.AveragePosition, f.PositionCount)
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintln(w, "\nSKIPPED FILES")
		fmt.Fprintln(w, strings.Repeat("-", 70))
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  %s: %s\n", s.Name, s.Error)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// SaveToJSON saves the report to a JSON file
func (r *Report) SaveToJSON(filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report to JSON: %w", err)
	}

	return nil
}

// LoadReport reads a report written by SaveToJSON.
func LoadReport(filepath string) (*Report, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer file.Close()

	var report Report
	if err := json.NewDecoder(file).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}
