package html

import (
	"fmt"
	"html/template"
	"io"

	"github.com/ansel1/tally/summary"
)

var cardTemplate = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
.card { width: 90%; margin: 10px; border-radius: 10px; box-shadow: 0 1px 5px rgba(0,0,0,.2); font-family: sans-serif; }
.card-header { padding: 16px; font-size: 1.5rem; font-weight: 1000; }
.chart { display: flex; flex-direction: column; align-items: center; }
.legend { display: flex; gap: 12px; list-style: none; padding: 0; font-size: 12px; }
.legend li { display: flex; align-items: center; gap: 4px; }
.content { display: flex; flex-direction: column; align-items: center; padding: 16px; }
.content p { margin: 4px 0; font-weight: 400; }
</style>
</head>
<body>
<div class="card">
<div class="card-header">{{.Title}}</div>
<div class="chart" style="{{.ChartStyle}}">
{{if .LegendOnTop}}{{template "legend" .}}{{end}}
<div class="donut">{{.SVG}}</div>
{{if not .LegendOnTop}}{{template "legend" .}}{{end}}
</div>
<div class="content">
<p class="total">{{.TotalText}}</p>
<p class="time">{{.TimeText}}</p>
</div>
</div>
</body>
</html>
{{define "legend"}}<ul class="legend">{{range .Legend}}
<li><span style="{{.MarkerStyle}}"></span>{{.Label}}</li>{{end}}
</ul>{{end}}
`))

type legendEntry struct {
	Label       string
	MarkerStyle template.CSS
}

type cardData struct {
	Title       string
	ChartStyle  template.CSS
	LegendOnTop bool
	Legend      []legendEntry
	SVG         template.HTML
	TotalText   string
	TimeText    string
}

// RenderHTML writes card as an HTML page: header, donut, legend with
// round (point style) or square markers, then the total and time lines.
func RenderHTML(card summary.Card, w io.Writer) error {
	svg, err := SVG(card)
	if err != nil {
		return err
	}

	cfg := card.Config
	data := cardData{
		Title:       card.Title,
		ChartStyle:  template.CSS(fmt.Sprintf("width:%dpx;height:%dpx", cfg.Width, cfg.Height)),
		LegendOnTop: cfg.Legend.Position == summary.LegendTop,
		SVG:         template.HTML(svg),
		TotalText:   card.TotalText,
		TimeText:    card.TimeText,
	}
	if cfg.MaintainAspectRatio {
		data.ChartStyle = template.CSS(fmt.Sprintf("width:%dpx", cfg.Width))
	}

	for i, label := range card.Chart.Labels {
		data.Legend = append(data.Legend, legendEntry{
			Label:       label,
			MarkerStyle: markerStyle(card.Chart.Colors[i], cfg.Legend),
		})
	}

	if err := cardTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render card: %w", err)
	}
	return nil
}

func markerStyle(color string, legend summary.LegendConfig) template.CSS {
	size := legend.BoxWidth
	radius := "0"
	if legend.UsePointStyle {
		radius = "50%"
	}
	return template.CSS(fmt.Sprintf(
		"display:inline-block;width:%dpx;height:%dpx;border-radius:%s;background-color:%s",
		size, size, radius, color,
	))
}
