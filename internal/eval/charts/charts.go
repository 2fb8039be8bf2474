package charts

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/lehigh-university-libraries/floraeval/internal/eval/metrics"
)

const (
	height     = 720
	minWidth   = 800
	barWidth   = 40
	barSpacing = 24
	margin     = 160
)

// invisible is white with zero alpha. The zero drawing.Color counts as
// unset and would fall back to the palette.
var invisible = drawing.Color{R: 255, G: 255, B: 255, A: 0}

// ErrNoStatistics is returned when a report has no files to chart.
var ErrNoStatistics = errors.New("report has no file statistics to chart")

// Chart is one rendered figure of a report.
type Chart struct {
	File   string
	Title  string
	Render func(r *metrics.Report, w io.Writer) error
}

// All lists every chart in the order they are written.
var All = []Chart{
	{File: "score_averages.png", Title: "Average scores", Render: ScoreAverages},
	{File: "species_correct.png", Title: "Correct species", Render: SpeciesCorrect},
	{File: "genus_correct.png", Title: "Correct genus", Render: GenusCorrect},
	{File: "species_wald.png", Title: "Species Wald intervals", Render: SpeciesWald},
	{File: "genus_wald.png", Title: "Genus Wald intervals", Render: GenusWald},
	{File: "average_position.png", Title: "Average correct position", Render: AveragePosition},
}

// Lookup finds a chart by file name.
func Lookup(file string) (Chart, bool) {
	for _, c := range All {
		if c.File == file {
			return c, true
		}
	}
	return Chart{}, false
}

// RenderAll writes every chart into dir and returns the paths written.
func RenderAll(r *metrics.Report, dir string) ([]string, error) {
	if len(r.Files) == 0 {
		return nil, ErrNoStatistics
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	var paths []string
	for _, c := range All {
		path := filepath.Join(dir, c.File)
		if err := renderFile(r, c, path); err != nil {
			return paths, err
		}
		slog.Debug("Rendered chart", "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

func renderFile(r *metrics.Report, c Chart, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", c.File, err)
	}
	defer file.Close()

	if err := c.Render(r, file); err != nil {
		return fmt.Errorf("failed to render %s: %w", c.File, err)
	}
	return nil
}

// label shortens a table file name for an axis label.
func label(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func chartWidth(bars int) int {
	return max(minWidth, margin+bars*(barWidth+barSpacing))
}

func bar(name string, value float64, color drawing.Color) chart.Value {
	return chart.Value{
		Label: name,
		Value: value,
		Style: chart.Style{
			FillColor:   color,
			StrokeColor: color,
		},
	}
}

func barChart(title string, yMax float64, bars []chart.Value) chart.BarChart {
	return chart.BarChart{
		Title:      title,
		Width:      chartWidth(len(bars)),
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Bottom: 40},
		},
		XAxis: chart.Style{
			FontSize: 8,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{
				Min: 0.0,
				Max: yMax,
			},
		},
		Bars: bars,
	}
}

// ScoreAverages interleaves the mean top score and the mean score at the
// correct rank of each file. Standard deviations are shown in the labels.
func ScoreAverages(r *metrics.Report, w io.Writer) error {
	if len(r.Files) == 0 {
		return ErrNoStatistics
	}

	var bars []chart.Value
	for _, f := range r.Files {
		bars = append(bars,
			bar(fmt.Sprintf("%s top (std %.2f)", label(f.Name), f.TopScore.StdDev), f.TopScore.Mean, chart.ColorBlue),
			bar(fmt.Sprintf("%s true (std %.2f)", label(f.Name), f.CorrectScore.StdDev), f.CorrectScore.Mean, chart.ColorAlternateGreen),
		)
	}

	graph := barChart("Average top score vs true species score", 1.0, bars)
	return graph.Render(chart.PNG, w)
}

// SpeciesCorrect compares correct top-1 species predictions with the total
// number of images per file.
func SpeciesCorrect(r *metrics.Report, w io.Writer) error {
	return correctVsTotal(r, w, "Correct species vs total images", func(f *metrics.FileStatistics) int {
		return f.SpeciesCorrect
	})
}

// GenusCorrect compares correct top-1 genus predictions with the total
// number of images per file.
func GenusCorrect(r *metrics.Report, w io.Writer) error {
	return correctVsTotal(r, w, "Correct genus vs total images", func(f *metrics.FileStatistics) int {
		return f.GenusCorrect
	})
}

func correctVsTotal(r *metrics.Report, w io.Writer, title string, correct func(*metrics.FileStatistics) int) error {
	if len(r.Files) == 0 {
		return ErrNoStatistics
	}

	var bars []chart.Value
	yMax := 1.0
	for _, f := range r.Files {
		bars = append(bars,
			bar(label(f.Name)+" correct", float64(correct(f)), chart.ColorAlternateGreen),
			bar(label(f.Name)+" total", float64(f.Rows), chart.ColorAlternateGray),
		)
		yMax = math.Max(yMax, float64(f.Rows))
	}

	graph := barChart(title, yMax, bars)
	return graph.Render(chart.PNG, w)
}

// SpeciesWald draws the species Wald interval of each file as a floating
// bar over [0, 1].
func SpeciesWald(r *metrics.Report, w io.Writer) error {
	return waldChart(r, w, "Species accuracy Wald intervals (95%)", func(f *metrics.FileStatistics) metrics.Interval {
		return f.SpeciesWald
	})
}

// GenusWald draws the genus Wald interval of each file as a floating bar
// over [0, 1].
func GenusWald(r *metrics.Report, w io.Writer) error {
	return waldChart(r, w, "Genus accuracy Wald intervals (95%)", func(f *metrics.FileStatistics) metrics.Interval {
		return f.GenusWald
	})
}

// waldChart stacks an invisible segment up to Low, the visible interval,
// and an invisible remainder up to 1, so every bar spans the same axis.
func waldChart(r *metrics.Report, w io.Writer, title string, interval func(*metrics.FileStatistics) metrics.Interval) error {
	if len(r.Files) == 0 {
		return ErrNoStatistics
	}

	hidden := chart.Style{
		FillColor:   invisible,
		StrokeColor: invisible,
	}
	visible := chart.Style{
		FillColor:   chart.ColorAlternateBlue,
		StrokeColor: chart.ColorBlue,
		StrokeWidth: 1,
	}

	var bars []chart.StackedBar
	for _, f := range r.Files {
		iv := interval(f)
		low := clamp(iv.Low)
		high := clamp(iv.High)

		bars = append(bars, chart.StackedBar{
			Name:  fmt.Sprintf("%s [%.2f, %.2f]", label(f.Name), iv.Low, iv.High),
			Width: barWidth,
			Values: []chart.Value{
				{Value: low, Style: hidden},
				{Value: high - low, Style: visible},
				{Value: 1 - high, Style: hidden},
			},
		})
	}

	graph := chart.StackedBarChart{
		Title:      title,
		Width:      chartWidth(len(bars)),
		Height:     height,
		BarSpacing: barSpacing,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Bottom: 40},
		},
		XAxis: chart.Style{
			FontSize: 8,
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

// AveragePosition draws the weighted average correct position per file.
func AveragePosition(r *metrics.Report, w io.Writer) error {
	if len(r.Files) == 0 {
		return ErrNoStatistics
	}

	var bars []chart.Value
	for _, f := range r.Files {
		bars = append(bars, bar(fmt.Sprintf("%s (n=%d)", label(f.Name), f.PositionCount), f.AveragePosition, chart.ColorOrange))
	}

	yMax := float64(max(r.NbResults, 1))
	graph := barChart("Average position of the correct species", yMax, bars)
	return graph.Render(chart.PNG, w)
}

func clamp(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
