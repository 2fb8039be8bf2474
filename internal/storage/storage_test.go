package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/lehigh-university-libraries/floraeval/internal/eval/metrics"
)

func saveReport(t *testing.T, dir string, files ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	report := metrics.NewReport(5)
	for _, f := range files {
		report.Add(&metrics.FileStatistics{Name: f, Rows: 1})
	}
	if err := report.SaveToJSON(filepath.Join(dir, SummaryFile)); err != nil {
		t.Fatalf("SaveToJSON failed: %v", err)
	}
}

func TestStoreSetGet(t *testing.T) {
	store := New()

	if _, ok := store.Get("plantnet"); ok {
		t.Fatal("Expected empty store")
	}

	store.Set("plantnet", &Entry{Name: "plantnet", Report: metrics.NewReport(5)})
	entry, ok := store.Get("plantnet")
	if !ok || entry.Report.NbResults != 5 {
		t.Errorf("Expected stored entry, got %+v", entry)
	}
}

func TestGetAllSorted(t *testing.T) {
	store := New()
	for _, name := range []string{"gemini", "plantnet", "baseline"} {
		store.Set(name, &Entry{Name: name})
	}

	all := store.GetAll()
	if len(all) != 3 || all[0].Name != "baseline" || all[2].Name != "plantnet" {
		t.Errorf("Unexpected order: %v, %v, %v", all[0].Name, all[1].Name, all[2].Name)
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i))
			store.Set(name, &Entry{Name: name})
			store.Get(name)
			store.GetAll()
		}(i)
	}
	wg.Wait()

	if len(store.GetAll()) != 20 {
		t.Errorf("Expected 20 entries, got %d", len(store.GetAll()))
	}
}

func TestLoadDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "reports")
	saveReport(t, root, "top.csv")
	saveReport(t, filepath.Join(root, "gemini"), "a.csv", "b.csv")
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	store := New()
	n, err := store.LoadDir(root)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 reports, got %d", n)
	}

	gemini, ok := store.Get("gemini")
	if !ok || len(gemini.Report.Files) != 2 {
		t.Errorf("Expected gemini report with 2 files, got %+v", gemini)
	}
	if _, ok := store.Get("reports"); !ok {
		t.Error("Expected root report named after the directory")
	}
}

func TestLoadDirNoReports(t *testing.T) {
	if _, err := New().LoadDir(t.TempDir()); err == nil {
		t.Error("Expected error when no reports exist")
	}
}
