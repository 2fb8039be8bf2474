package evalcmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/floraeval/internal/eval/charts"
	"github.com/lehigh-university-libraries/floraeval/internal/eval/metrics"
	"github.com/lehigh-university-libraries/floraeval/internal/eval/results"
)

const (
	summaryJSON = "summary.json"
	summaryXLSX = "summary.xlsx"
)

type statsOptions struct {
	dataDir   string
	outputDir string
	nbResults int
	xlsx      bool
	verbose   bool
}

func executeStats(out io.Writer, opts statsOptions) error {
	setupLogging(opts.verbose)

	slog.Info("Computing statistics", "data", opts.dataDir, "nb_results", opts.nbResults)

	report, err := buildReport(opts.dataDir, opts.nbResults)
	if err != nil {
		return err
	}

	report.WriteSummary(out)

	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	jsonPath := filepath.Join(opts.outputDir, summaryJSON)
	if err := report.SaveToJSON(jsonPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResults saved to: %s\n", jsonPath)

	if opts.xlsx {
		xlsxPath := filepath.Join(opts.outputDir, summaryXLSX)
		if err := report.SaveWorkbook(xlsxPath); err != nil {
			fmt.Fprintf(out, "Warning: Failed to save workbook: %v\n", err)
		} else {
			fmt.Fprintf(out, "Workbook saved to: %s\n", xlsxPath)
		}
	}

	paths, err := charts.RenderAll(report, opts.outputDir)
	if errors.Is(err, charts.ErrNoStatistics) {
		slog.Warn("No readable tables, skipping charts")
	} else if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(out, "Chart saved to: %s\n", p)
	}

	slog.Info("Statistics complete", "files", len(report.Files), "skipped", len(report.Skipped))
	return nil
}

// tablePreference orders the formats tried when one label was written in
// several formats.
var tablePreference = []results.Format{results.FormatXLSX, results.FormatCSV, results.FormatParquet}

// buildReport computes statistics for every result table in dataDir, in
// directory order. A label written in several formats is counted once, from
// the first readable table in tablePreference order. Tables that cannot be
// read or summarized are logged and recorded as skipped.
func buildReport(dataDir string, n int) (*metrics.Report, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var labels []string
	tables := make(map[string]map[results.Format]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == summaryXLSX {
			continue
		}
		format, ok := results.FormatOf(name)
		if !ok {
			continue
		}
		label := strings.TrimSuffix(name, filepath.Ext(name))
		if _, seen := tables[label]; !seen {
			labels = append(labels, label)
			tables[label] = make(map[results.Format]string)
		}
		tables[label][format] = name
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("no result tables (.csv, .xlsx, .parquet) found in %s", dataDir)
	}

	report := metrics.NewReport(n)
	for _, label := range labels {
		var stats *metrics.FileStatistics
		for _, format := range tablePreference {
			name, ok := tables[label][format]
			if !ok {
				continue
			}
			if stats != nil {
				slog.Info("Skipping duplicate result table", "file", name, "used", stats.Name)
				continue
			}
			s, err := fileStatistics(filepath.Join(dataDir, name), name, n)
			if err != nil {
				slog.Error("Skipping result table", "file", name, "error", err)
				report.Skip(name, err)
				continue
			}
			stats = s
		}
		if stats != nil {
			report.Add(stats)
		}
	}

	return report, nil
}

func fileStatistics(path, name string, n int) (*metrics.FileStatistics, error) {
	rows, err := results.ReadTable(path)
	if err != nil {
		return nil, err
	}
	return metrics.FromColumns(name, results.Columns(rows), n)
}
