package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/floraeval/internal/storage"
)

type Handler struct {
	reportStore *storage.ReportStore
}

func New(store *storage.ReportStore) *Handler {
	return &Handler{
		reportStore: store,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Report helpers
func (h *Handler) getReportOrError(w http.ResponseWriter, name string) (*storage.Entry, bool) {
	entry, exists := h.reportStore.Get(name)
	if !exists {
		h.writeError(w, "Report not found", http.StatusNotFound)
		return nil, false
	}
	return entry, true
}
