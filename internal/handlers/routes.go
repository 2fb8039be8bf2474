package handlers

import (
	"log/slog"
	"net/http"
)

// Routes registers the report viewer endpoints.
func Routes(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/reports", h.HandleReports)
	mux.HandleFunc("GET /api/reports/{name}", h.HandleReportDetail)
	mux.HandleFunc("GET /api/reports/{name}/files/{file}", h.HandleFileDetail)
	mux.HandleFunc("GET /charts/{name}/{chart}", h.HandleChart)
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("GET /healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}
