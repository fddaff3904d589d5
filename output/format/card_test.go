package format

import (
	"strings"
	"testing"

	"github.com/ansel1/tally/results"
	"github.com/ansel1/tally/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainFormatter() *CardFormatter {
	f := NewCardFormatter()
	f.SetColors(false)
	return f
}

func renderCard(stats results.Statistics) summary.Card {
	return summary.Render(stats, summary.DefaultChartConfig())
}

func TestFormatCardContents(t *testing.T) {
	out := plainFormatter().Format(renderCard(results.NewStatistics(5, 2, 1, 8, 12345)), 1)

	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Total Results : 8")
	assert.Contains(t, out, "Time : 12.345 s")
	assert.Contains(t, out, "✓ Passed  ✗ Failed  ∅ skipped")

	// Legend sits below the ring, text lines below the legend.
	legendAt := strings.Index(out, "✓ Passed")
	assert.Less(t, strings.Index(out, "Summary"), legendAt)
	assert.Less(t, legendAt, strings.Index(out, "Total Results"))
	assert.Less(t, strings.Index(out, "Total Results"), strings.Index(out, "Time :"))
}

func TestFormatLegendOnTop(t *testing.T) {
	card := renderCard(results.NewStatistics(5, 2, 1, 8, 12345))
	card.Config.Legend.Position = summary.LegendTop

	out := plainFormatter().Format(card, 1)
	ring := plainFormatter().Ring(card, 1)
	firstRingRow := strings.TrimSpace(strings.Split(ring, "\n")[0])

	assert.Less(t, strings.Index(out, "✓ Passed"), strings.Index(out, firstRingRow))
}

func TestRingUsesSegmentSymbols(t *testing.T) {
	f := plainFormatter()

	ring := f.Ring(renderCard(results.NewStatistics(5, 2, 1, 8, 0)), 1)
	assert.Contains(t, ring, SymbolPass)
	assert.Contains(t, ring, SymbolFail)
	assert.Contains(t, ring, SymbolSkip)

	ring = f.Ring(renderCard(results.NewStatistics(3, 0, 0, 3, 0)), 1)
	assert.Contains(t, ring, SymbolPass)
	assert.NotContains(t, ring, SymbolFail)
	assert.NotContains(t, ring, SymbolSkip)
}

func TestRingEmptyRunDrawsPlaceholder(t *testing.T) {
	ring := plainFormatter().Ring(renderCard(results.NewStatistics(0, 0, 0, 0, 0)), 1)

	assert.Contains(t, ring, SymbolEmpty)
	assert.NotContains(t, ring, SymbolPass)
}

func TestRingGeometry(t *testing.T) {
	card := renderCard(results.NewStatistics(1, 0, 0, 1, 0))
	ring := plainFormatter().Ring(card, 1)

	rows := strings.Split(ring, "\n")
	// 300px diameter -> 30 columns, two pixels per row
	require.Len(t, rows, 15)
	for _, row := range rows {
		assert.Equal(t, 30, len([]rune(row)))
	}

	// The cutout leaves the middle of the center row empty.
	mid := []rune(rows[7])
	assert.Equal(t, ' ', mid[15])
	assert.NotEqual(t, ' ', mid[1])
}

func TestRingProgress(t *testing.T) {
	f := plainFormatter()
	card := renderCard(results.NewStatistics(1, 0, 0, 1, 0))

	ink := func(progress float64) int {
		return strings.Count(f.Ring(card, progress), SymbolPass)
	}

	full := ink(1)
	half := ink(0.5)
	require.Positive(t, full)
	assert.Zero(t, ink(0))
	assert.Greater(t, half, full/3)
	assert.Less(t, half, full)

	// Out-of-range progress is clamped.
	assert.Equal(t, full, ink(7))
}

func TestLegendBoxMarkers(t *testing.T) {
	f := NewCardFormatter()
	f.SetColors(true)

	card := renderCard(results.NewStatistics(1, 1, 1, 3, 0))
	card.Config.Legend.UsePointStyle = false
	card.Config.Legend.BoxWidth = 20

	legend := f.Legend(card)
	assert.Contains(t, legend, "■■")
	assert.Contains(t, legend, "Passed")
	assert.NotContains(t, legend, markerPoint)
}
