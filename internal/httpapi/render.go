package httpapi

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/godilite/engagement-dashboard/internal/analytics"
	"github.com/godilite/engagement-dashboard/internal/selection"
	"github.com/godilite/engagement-dashboard/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var toneColors = map[selection.Tone]string{
	selection.ToneAll:     "#00923D",
	selection.ToneNone:    "#F57411",
	selection.TonePartial: "#0016A8",
}

type productOption struct {
	Code     string
	Selected bool
}

type indexPage struct {
	Title     string
	SourceURL string
	Status    selection.FilterStatus
	Products  []productOption
	Sections  []service.KPISection
	Groups    []service.ChartGroup
}

type errorPage struct {
	Code    int
	Message any
}

type pageRenderer struct {
	templates *template.Template
}

var _ echo.Renderer = (*pageRenderer)(nil)

func newPageRenderer() *pageRenderer {
	funcs := template.FuncMap{
		"toneColor": func(t selection.Tone) string { return toneColors[t] },
		"arrow": func(d analytics.Direction) string {
			switch d {
			case analytics.DirectionUp:
				return "▲"
			case analytics.DirectionDown:
				return "▼"
			}
			return ""
		},
		"ok": func(u service.Unit) bool { return u.Status == service.UnitOK },
	}
	return &pageRenderer{
		templates: template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")),
	}
}

func (r *pageRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
