package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/ttracx/deepboreai/internal/models"
)

const defaultTitle = "Drilling Ops Dashboard"

// Routes the page links to.
const (
	ChartPath  = "/chart.svg"
	ExportPath = "/export"
)

var pageTemplates = template.Must(template.New("root").Parse(tmplPage + tmplDashboard + tmplStatus))

// PageData is the view model behind the dashboard page.
type PageData struct {
	Title     string
	Panel     *Panel
	Rows      []Row
	Labels    []string
	Status    models.Status
	ChartURL  string
	ExportURL string
}

// NewPageData derives the view model from a snapshot.
func NewPageData(snap models.Snapshot) PageData {
	return PageData{
		Title:  defaultTitle,
		Panel:  LivePanel(snap.Reading),
		Rows:   TableRows(snap.History),
		Labels: ChartLabels(snap.History),
		Status: snap.Status,
		// The token busts browser caches whenever history changes.
		ChartURL:  fmt.Sprintf("%s?v=%d", ChartPath, snap.Status.LastFetchToken),
		ExportURL: ExportPath,
	}
}

// Page writes the full HTML document.
func Page(w io.Writer, data PageData) error {
	return pageTemplates.ExecuteTemplate(w, "page", data)
}

// Fragment writes only the re-renderable dashboard body.
func Fragment(w io.Writer, data PageData) error {
	return pageTemplates.ExecuteTemplate(w, "dashboard", data)
}
