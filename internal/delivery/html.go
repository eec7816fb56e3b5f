package delivery

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/report"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/series"
)

//go:embed templates/*.html
var templatesFS embed.FS

var kindLabels = map[series.Kind]string{
	series.KindTemperature:  "Temperature",
	series.KindHumidity:     "Humidity",
	series.KindPressure:     "Pressure",
	series.KindSoilMoisture: "Soil moisture",
}

var funcs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
	"formatDate": func(t time.Time) string {
		return t.UTC().Format("Mon 2006-01-02")
	},
	"formatMillis": func(ms int64) string {
		return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04 UTC")
	},
	"fmtFloat": func(f float64) string {
		return strconv.FormatFloat(f, 'f', 2, 64)
	},
	"kindLabel": func(k series.Kind) string {
		if l, ok := kindLabels[k]; ok {
			return l
		}
		return string(k)
	},
}

// HTMLRenderer renders reports from the embedded templates.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the embedded templates.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("reports").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse report templates: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// RenderDevice renders a device report.
func (h *HTMLRenderer) RenderDevice(r *report.DeviceReport) ([]byte, error) {
	return h.render("device", r)
}

// RenderGroup renders a group report.
func (h *HTMLRenderer) RenderGroup(r *report.GroupReport) ([]byte, error) {
	return h.render("group", r)
}

func (h *HTMLRenderer) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s report: %w", name, err)
	}
	return buf.Bytes(), nil
}
