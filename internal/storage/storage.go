package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/floraeval/internal/eval/metrics"
)

// SummaryFile is the report file name inside a report directory.
const SummaryFile = "summary.json"

// Entry is one statistics run: the report and the directory holding its
// charts.
type Entry struct {
	Name   string
	Dir    string
	Report *metrics.Report
}

type ReportStore struct {
	reports map[string]*Entry
	mu      sync.RWMutex
}

func New() *ReportStore {
	return &ReportStore{
		reports: make(map[string]*Entry),
	}
}

func (s *ReportStore) Get(name string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, exists := s.reports[name]
	return entry, exists
}

func (s *ReportStore) Set(name string, entry *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[name] = entry
}

// GetAll returns the entries sorted by name.
func (s *ReportStore) GetAll() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.reports))
	for _, v := range s.reports {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// LoadDir loads root/summary.json, named after root, and the summary.json
// of each direct sub-directory, named after the sub-directory. It returns
// the number of reports loaded.
func (s *ReportStore) LoadDir(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("failed to read results directory: %w", err)
	}

	dirs := []string{root}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}

	loaded := 0
	for _, dir := range dirs {
		report, err := metrics.LoadReport(filepath.Join(dir, SummaryFile))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			slog.Error("Skipping report", "dir", dir, "error", err)
			continue
		}

		abs, err := filepath.Abs(dir)
		if err != nil {
			abs = dir
		}
		name := filepath.Base(abs)
		s.Set(name, &Entry{Name: name, Dir: dir, Report: report})
		slog.Debug("Loaded report", "name", name, "files", len(report.Files))
		loaded++
	}

	if loaded == 0 {
		return 0, fmt.Errorf("no %s found in %s or its sub-directories", SummaryFile, root)
	}
	return loaded, nil
}
