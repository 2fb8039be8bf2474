package handlers

import (
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/floraeval/internal/eval/charts"
)

// ReportSummary is the list view of a report.
type ReportSummary struct {
	Name        string    `json:"name"`
	GeneratedAt time.Time `json:"generated_at"`
	NbResults   int       `json:"nb_results"`
	Files       []string  `json:"files"`
	Skipped     int       `json:"skipped"`
	Charts      []string  `json:"charts"`
}

func chartURLs(name string) []string {
	urls := make([]string, 0, len(charts.All))
	for _, c := range charts.All {
		urls = append(urls, "/charts/"+name+"/"+c.File)
	}
	return urls
}

// HandleReports lists every loaded report.
func (h *Handler) HandleReports(w http.ResponseWriter, r *http.Request) {
	entries := h.reportStore.GetAll()
	list := make([]ReportSummary, 0, len(entries))
	for _, e := range entries {
		list = append(list, ReportSummary{
			Name:        e.Name,
			GeneratedAt: e.Report.GeneratedAt,
			NbResults:   e.Report.NbResults,
			Files:       e.Report.Names(),
			Skipped:     len(e.Report.Skipped),
			Charts:      chartURLs(e.Name),
		})
	}
	h.writeJSON(w, list)
}

// HandleReportDetail returns the full statistics of one report.
func (h *Handler) HandleReportDetail(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getReportOrError(w, r.PathValue("name"))
	if !ok {
		return
	}
	h.writeJSON(w, entry.Report)
}

// HandleFileDetail returns the statistics of one result table.
func (h *Handler) HandleFileDetail(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getReportOrError(w, r.PathValue("name"))
	if !ok {
		return
	}

	stats, found := entry.Report.Find(r.PathValue("file"))
	if !found {
		h.writeError(w, "File not found in report", http.StatusNotFound)
		return
	}
	h.writeJSON(w, stats)
}
