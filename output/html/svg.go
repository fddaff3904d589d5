// Package html renders a summary.Card as SVG (the donut alone) or as a
// self-contained HTML card.
package html

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ansel1/tally/summary"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const placeholderColor = "#E0E0E0"

// RenderSVG writes the donut of card as an SVG document. Slices carry no
// labels; the legend is part of the HTML card. A run with nothing to draw
// gets a plain grey ring.
func RenderSVG(card summary.Card, w io.Writer) error {
	d := card.Config.Diameter()
	values := donutValues(card.Chart)

	donut := chart.DonutChart{
		Width:  d,
		Height: d,
		Values: values,
	}
	// A lone slice is drawn as a circle with the chart's slice style.
	if len(values) == 1 {
		donut.SliceStyle = values[0].Style
	}

	if err := donut.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render donut: %w", err)
	}
	return nil
}

// SVG is RenderSVG into a string.
func SVG(card summary.Card) (string, error) {
	var buf bytes.Buffer
	if err := RenderSVG(card, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func donutValues(datum summary.ChartDatum) []chart.Value {
	segments := datum.Segments()
	if len(segments) == 0 {
		return []chart.Value{{
			Value: 1,
			Style: sliceStyle(placeholderColor),
		}}
	}

	values := make([]chart.Value, 0, len(segments))
	for _, seg := range segments {
		values = append(values, chart.Value{
			Value: seg.Value,
			Style: sliceStyle(seg.Color),
		})
	}
	return values
}

func sliceStyle(hex string) chart.Style {
	return chart.Style{
		FillColor:   drawing.ColorFromHex(strings.TrimPrefix(hex, "#")),
		StrokeColor: drawing.ColorWhite,
		StrokeWidth: 2,
	}
}
