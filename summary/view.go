// Package summary turns run statistics into the Summary card: a donut of
// passed, failed and skipped checks plus the total and elapsed time.
//
// Rendering is a pure function of its inputs. The renderers in output/format
// (terminal) and output/html (SVG and HTML) draw a Card; they never look at
// Statistics directly.
package summary

import (
	"math"
	"strconv"
	"strings"

	"github.com/ansel1/tally/results"
)

// Title is the card header.
const Title = "Summary"

// Card is everything a renderer needs to draw the summary.
type Card struct {
	Title     string
	Chart     ChartDatum
	Config    ChartConfig
	TotalText string
	TimeText  string
}

// Render builds the card for stats. Missing or odd values never fail; they
// show up as blank or NaN text.
func Render(stats results.Statistics, cfg ChartConfig) Card {
	return Card{
		Title:     Title,
		Chart:     DeriveChartData(stats),
		Config:    cfg,
		TotalText: FormatTotal(stats),
		TimeText:  FormatTime(stats),
	}
}

// FormatTotal returns "Total Results : {total}". An absent total is blank.
func FormatTotal(stats results.Statistics) string {
	total := ""
	if stats.Has(results.FieldTotal) {
		total = strconv.Itoa(stats.Total)
	}
	return "Total Results : " + total
}

// FormatTime returns "Time : {time/1000} s" with the seconds unrounded.
func FormatTime(stats results.Statistics) string {
	seconds := math.NaN()
	if stats.Has(results.FieldTime) {
		seconds = stats.Time / 1000
	}
	return "Time : " + formatNumber(seconds) + " s"
}

// formatNumber prints f with the fewest digits that read back as f, switching
// to exponent form outside [1e-6, 1e21).
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
