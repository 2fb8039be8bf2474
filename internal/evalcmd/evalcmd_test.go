package evalcmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/floraeval/internal/eval/dataset"
	"github.com/lehigh-university-libraries/floraeval/internal/eval/metrics"
	"github.com/lehigh-university-libraries/floraeval/internal/eval/results"
	"github.com/lehigh-university-libraries/floraeval/internal/eval/scoring"
	"github.com/lehigh-university-libraries/floraeval/internal/identify"
	"github.com/lehigh-university-libraries/floraeval/internal/taxon"
)

// fakeIdentifier answers from a map keyed by image file name.
type fakeIdentifier struct {
	answers map[string]*identify.Result
	calls   int
}

func (f *fakeIdentifier) Identify(ctx context.Context, imagePath string) (*identify.Result, error) {
	f.calls++
	result, ok := f.answers[filepath.Base(imagePath)]
	if !ok {
		return nil, &identify.ServiceError{StatusCode: 500, Body: "internal error"}
	}
	return result, nil
}

func result(names ...string) *identify.Result {
	r := &identify.Result{}
	for i, name := range names {
		r.Candidates = append(r.Candidates, identify.Candidate{
			ScientificName: name,
			Genus:          strings.Fields(name)[0],
			Score:          0.8 - float64(i)*0.1,
		})
	}
	return r
}

func createDataset(t *testing.T, folder string, images ...string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}
	for _, img := range images {
		if err := os.WriteFile(filepath.Join(dir, img), []byte("jpeg"), 0644); err != nil {
			t.Fatalf("Failed to write image: %v", err)
		}
	}
	return root
}

func testSynonyms() *taxon.SynonymTable {
	return taxon.NewSynonymTable(map[string][]string{
		"Quercus robur": {"Quercus pedunculata"},
	})
}

func TestScoreFolder(t *testing.T) {
	root := createDataset(t, "Quercus robur", "1.jpg", "2.jpg", "3.jpg", "4.jpg")
	identifier := &fakeIdentifier{answers: map[string]*identify.Result{
		"1.jpg": result("Quercus robur", "Quercus petraea"),
		"2.jpg": result("Quercus petraea", "Quercus pedunculata"),
		"4.jpg": {},
	}}
	record := results.NewRunRecord(results.RunConfig{Folder: "Quercus robur"})

	rows, err := scoreFolder(context.Background(), identifier, dataset.NewLoader(root), testSynonyms(), "Quercus robur", 5, record)
	if err != nil {
		t.Fatalf("scoreFolder failed: %v", err)
	}

	if identifier.calls != 4 {
		t.Errorf("Expected 4 identification calls, got %d", identifier.calls)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 scored rows, got %d", len(rows))
	}
	if rows[0].ImageName != "1.jpg" || rows[0].RankOfCorrectMatch != 5 || !rows[0].SpeciesMatchTop {
		t.Errorf("Unexpected first row: %+v", rows[0])
	}
	if rows[1].RankOfCorrectMatch != 4 || rows[1].SpeciesMatchTop {
		t.Errorf("Unexpected second row: %+v", rows[1])
	}

	if record.Images != 4 || record.Scored != 2 || len(record.Failures) != 2 {
		t.Errorf("Unexpected record counts: images=%d scored=%d failures=%d",
			record.Images, record.Scored, len(record.Failures))
	}
}

func TestScoreFolderMissingSynonymMakesNoCalls(t *testing.T) {
	root := createDataset(t, "Betula pendula", "1.jpg")
	identifier := &fakeIdentifier{}
	record := results.NewRunRecord(results.RunConfig{})

	_, err := scoreFolder(context.Background(), identifier, dataset.NewLoader(root), testSynonyms(), "Betula pendula", 5, record)
	if !errors.Is(err, taxon.ErrMissingSynonymEntry) {
		t.Errorf("Expected ErrMissingSynonymEntry, got %v", err)
	}
	if identifier.calls != 0 {
		t.Errorf("Expected no identification calls, got %d", identifier.calls)
	}
}

func TestScoreFolderCancelled(t *testing.T) {
	root := createDataset(t, "Quercus robur", "1.jpg")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scoreFolder(ctx, &fakeIdentifier{}, dataset.NewLoader(root), testSynonyms(), "Quercus robur", 5, results.NewRunRecord(results.RunConfig{}))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestExecuteScoreInvalidSelection(t *testing.T) {
	root := createDataset(t, "Quercus robur", "1.jpg")
	outDir := filepath.Join(t.TempDir(), "output")

	var out bytes.Buffer
	err := executeScore(context.Background(), strings.NewReader("7\n"), &out, scoreOptions{
		datasetPath: root,
		outputDir:   outDir,
		config:      identify.DefaultConfig(),
	})
	if !errors.Is(err, dataset.ErrInvalidSelection) {
		t.Fatalf("Expected ErrInvalidSelection, got %v", err)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Error("Expected no output to be written")
	}
}

func TestNewIdentifier(t *testing.T) {
	config := identify.DefaultConfig()

	if _, err := newIdentifier(providerPlantNet, "", config); err == nil {
		t.Error("Expected error without API key")
	}

	config.APIKey = "key"
	if _, err := newIdentifier(providerPlantNet, "", config); err != nil {
		t.Errorf("Expected plantnet client, got %v", err)
	}

	if _, err := newIdentifier(providerOllama, "", config); err != nil {
		t.Errorf("Expected ollama client, got %v", err)
	}

	if _, err := newIdentifier("tesseract", "", config); err == nil {
		t.Error("Expected error for unsupported provider")
	}
}

func writeTable(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "b.csv",
		"Acer campestre,1.jpg,True,True,5,Acer campestre,0.8,0.8\n"+
			"Acer campestre,2.jpg,False,True,3,Acer platanoides,0.6,0.2\n")
	writeTable(t, dir, "a.csv",
		"Quercus robur,1.jpg,False,False,0,Fagus sylvatica,0.4,0\n")
	writeTable(t, dir, "broken.csv", "only,three,columns\n")
	writeTable(t, dir, "notes.txt", "ignored")

	report, err := buildReport(dir, 5)
	if err != nil {
		t.Fatalf("buildReport failed: %v", err)
	}

	names := report.Names()
	if strings.Join(names, ",") != "a.csv,b.csv" {
		t.Errorf("Expected sorted [a.csv b.csv], got %v", names)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Name != "broken.csv" {
		t.Errorf("Expected broken.csv to be skipped, got %+v", report.Skipped)
	}

	b, _ := report.Find("b.csv")
	if b.SpeciesCorrect != 1 || b.GenusCorrect != 2 {
		t.Errorf("Unexpected counts for b.csv: %+v", b)
	}
	// codes 5 and 3 -> positions 1 and 3
	if b.AveragePosition != 2 {
		t.Errorf("Expected average position 2, got %f", b.AveragePosition)
	}
}

func TestBuildReportCountsLabelOnce(t *testing.T) {
	dir := t.TempDir()
	rows := results.NewRows([]scoring.ScoredRow{
		{Label: "Quercus robur", ImageName: "1.jpg", SpeciesMatchTop: true, GenusMatchTop: true, RankOfCorrectMatch: 5, TopPredictedName: "Quercus robur", TopScore: 0.9, ScoreAtCorrectRank: 0.9},
		{Label: "Quercus robur", ImageName: "2.jpg", GenusMatchTop: true, RankOfCorrectMatch: 4, TopPredictedName: "Quercus petraea", TopScore: 0.5, ScoreAtCorrectRank: 0.3},
	})
	formats := []results.Format{results.FormatCSV, results.FormatXLSX, results.FormatParquet}
	if _, err := results.WriteTables(dir, "Quercus robur", rows, formats...); err != nil {
		t.Fatalf("WriteTables failed: %v", err)
	}

	report, err := buildReport(dir, 5)
	if err != nil {
		t.Fatalf("buildReport failed: %v", err)
	}

	if len(report.Files) != 1 {
		t.Fatalf("Expected one table per label, got %v", report.Names())
	}
	if report.Files[0].Name != "Quercus robur.xlsx" {
		t.Errorf("Expected xlsx table to be used, got %s", report.Files[0].Name)
	}
	if report.Files[0].Rows != 2 || report.Files[0].SpeciesCorrect != 1 {
		t.Errorf("Unexpected statistics: %+v", report.Files[0])
	}
	if len(report.Skipped) != 0 {
		t.Errorf("Expected no skipped tables, got %+v", report.Skipped)
	}
}

func TestBuildReportFallsBackToReadableFormat(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "Acer campestre.xlsx", "not a workbook")
	writeTable(t, dir, "Acer campestre.csv",
		"Acer campestre,1.jpg,True,True,5,Acer campestre,0.8,0.8\n")

	report, err := buildReport(dir, 5)
	if err != nil {
		t.Fatalf("buildReport failed: %v", err)
	}

	if strings.Join(report.Names(), ",") != "Acer campestre.csv" {
		t.Errorf("Expected csv fallback, got %v", report.Names())
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Name != "Acer campestre.xlsx" {
		t.Errorf("Expected unreadable xlsx to be skipped, got %+v", report.Skipped)
	}
}

func TestBuildReportNoTables(t *testing.T) {
	if _, err := buildReport(t.TempDir(), 5); err == nil {
		t.Error("Expected error for directory without tables")
	}
}

func TestExecuteStats(t *testing.T) {
	dataDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "report")
	writeTable(t, dataDir, "Acer campestre.csv",
		"Acer campestre,1.jpg,True,True,5,Acer campestre,0.8,0.8\n"+
			"Acer campestre,2.jpg,False,True,0,Acer platanoides,0.6,0\n")

	var out bytes.Buffer
	err := executeStats(&out, statsOptions{dataDir: dataDir, outputDir: outDir, nbResults: 5, xlsx: true})
	if err != nil {
		t.Fatalf("executeStats failed: %v", err)
	}

	for _, name := range []string{summaryJSON, summaryXLSX, "species_wald.png", "average_position.png"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
		}
	}

	report, err := metrics.LoadReport(filepath.Join(outDir, summaryJSON))
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}
	if len(report.Files) != 1 || report.Files[0].Rows != 2 {
		t.Errorf("Unexpected report: %+v", report)
	}
	if !strings.Contains(out.String(), "IDENTIFICATION STATISTICS SUMMARY") {
		t.Error("Expected printed summary")
	}
}

func TestExecuteFolders(t *testing.T) {
	root := createDataset(t, "Quercus robur", "1.jpg", "2.jpg")

	var out bytes.Buffer
	if err := executeFolders(&out, root); err != nil {
		t.Fatalf("executeFolders failed: %v", err)
	}
	if !strings.Contains(out.String(), "0: Quercus robur (2 files)") {
		t.Errorf("Unexpected listing: %q", out.String())
	}
}
