package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/lehigh-university-libraries/floraeval/internal/eval/charts"
	"github.com/lehigh-university-libraries/floraeval/internal/storage"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>floraeval reports</title></head>
<body>
<h1>Identification reports</h1>
{{range .Entries}}
<section>
<h2>{{.Name}}</h2>
<p>Generated {{.Report.GeneratedAt.Format "2006-01-02 15:04:05"}}, {{len .Report.Files}} files, {{len .Report.Skipped}} skipped.</p>
<table border="1" cellpadding="4">
<tr><th>File</th><th>Images</th><th>Species correct</th><th>Genus correct</th><th>Species Wald</th><th>Avg position</th></tr>
{{range .Report.Files}}<tr><td>{{.Name}}</td><td>{{.Rows}}</td><td>{{.SpeciesCorrect}}</td><td>{{.GenusCorrect}}</td><td>[{{printf "%.3f" .SpeciesWald.Low}}, {{printf "%.3f" .SpeciesWald.High}}]</td><td>{{printf "%.3f" .AveragePosition}}</td></tr>
{{end}}</table>
{{$name := .Name}}{{range $.Charts}}<p><img src="/charts/{{$name}}/{{.File}}" alt="{{.Title}}"></p>
{{end}}</section>
{{else}}<p>No reports loaded.</p>
{{end}}
</body>
</html>
`))

// HandleIndex renders every report with its charts.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Entries []*storage.Entry
		Charts  []charts.Chart
	}{
		Entries: h.reportStore.GetAll(),
		Charts:  charts.All,
	}

	w.Header().Set("Content-Type", "text/html")
	if err := indexTemplate.Execute(w, data); err != nil {
		slog.Error("Unable to render index", "err", err)
	}
}

// HandleChart serves a rendered chart of a report. Only known chart file
// names are served.
func (h *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getReportOrError(w, r.PathValue("name"))
	if !ok {
		return
	}

	c, known := charts.Lookup(r.PathValue("chart"))
	if !known {
		h.writeError(w, "Chart not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, filepath.Join(entry.Dir, c.File))
}
