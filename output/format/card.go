package format

import (
	"math"
	"os"
	"strings"

	"github.com/ansel1/tally/summary"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Symbol constants for the segments when colors are off
const (
	SymbolPass  = "✓"
	SymbolFail  = "✗"
	SymbolSkip  = "∅"
	SymbolEmpty = "·"
)

// PixelsPerCell converts the chart config's pixel sizes to terminal columns.
const PixelsPerCell = 10

// Point and box legend markers.
const (
	markerPoint = "●"
	markerBox   = "■"
)

const emptyRingColor = "#555555"

// CardFormatter renders a summary.Card for the terminal.
type CardFormatter struct {
	useColors  bool
	cardStyle  lipgloss.Style
	titleStyle lipgloss.Style
	symbols    map[string]string
}

// NewCardFormatter creates a new card formatter.
//
// Colors are automatically enabled if stdout is a TTY.
func NewCardFormatter() *CardFormatter {
	f := &CardFormatter{
		cardStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),
		titleStyle: lipgloss.NewStyle().Bold(true),
		symbols: map[string]string{
			"Passed":  SymbolPass,
			"Failed":  SymbolFail,
			"skipped": SymbolSkip,
		},
	}
	f.SetColors(isatty.IsTerminal(os.Stdout.Fd()))
	return f
}

// SetColors turns colored output on or off.
func (f *CardFormatter) SetColors(on bool) {
	f.useColors = on
}

// Format renders the whole card. progress (0..1) limits how much of the ring
// is swept; pass 1 for a finished chart.
func (f *CardFormatter) Format(card summary.Card, progress float64) string {
	width := max(card.Config.Width/PixelsPerCell, 12)
	center := func(s string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
	}

	lines := []string{
		f.titleStyle.Render(card.Title),
		"",
	}

	ring := f.Ring(card, progress)
	legend := center(f.Legend(card))

	if card.Config.Legend.Position == summary.LegendTop {
		lines = append(lines, legend, "")
	}
	for _, row := range strings.Split(ring, "\n") {
		lines = append(lines, center(row))
	}
	if card.Config.Legend.Position != summary.LegendTop {
		lines = append(lines, "", legend)
	}

	lines = append(lines,
		"",
		center(card.TotalText),
		center(card.TimeText),
	)

	return f.cardStyle.Width(width + 2).Render(strings.Join(lines, "\n"))
}

// Legend renders one entry per label, in chart order.
func (f *CardFormatter) Legend(card summary.Card) string {
	marker := markerPoint
	if !card.Config.Legend.UsePointStyle {
		marker = strings.Repeat(markerBox, max(1, card.Config.Legend.BoxWidth/PixelsPerCell))
	}

	entries := make([]string, len(card.Chart.Labels))
	for i, label := range card.Chart.Labels {
		m := f.symbols[label]
		if f.useColors {
			m = lipgloss.NewStyle().Foreground(lipgloss.Color(card.Chart.Colors[i])).Render(marker)
		}
		entries[i] = m + " " + label
	}
	return strings.Join(entries, "  ")
}

// Ring draws the donut. Each cell holds two vertical pixels so the ring
// comes out round on a terminal.
func (f *CardFormatter) Ring(card summary.Card, progress float64) string {
	d := max(card.Config.Diameter()/PixelsPerCell, 4)
	if d%2 == 1 {
		d++
	}
	segments := card.Chart.Segments()
	progress = math.Max(0, math.Min(1, progress))

	radius := float64(d) / 2
	inner := radius * float64(card.Config.CutoutPercentage) / 100

	// pixel returns the segment index at (x, y), -1 for the placeholder
	// ring when there is nothing to draw, and -2 for no ink.
	pixel := func(x, y int) int {
		dx := float64(x) + 0.5 - radius
		dy := float64(y) + 0.5 - radius
		r := math.Hypot(dx, dy)
		if r > radius || r < inner {
			return -2
		}
		if segments == nil {
			return -1
		}
		angle := math.Atan2(dx, -dy)
		if angle < 0 {
			angle += 2 * math.Pi
		}
		frac := angle / (2 * math.Pi)
		if frac >= progress {
			return -2
		}
		for i, seg := range segments {
			if frac >= seg.Start && frac < seg.End {
				return i
			}
		}
		return len(segments) - 1
	}

	var b strings.Builder
	for row := 0; row < d/2; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < d; x++ {
			b.WriteString(f.cell(segments, pixel(x, 2*row), pixel(x, 2*row+1)))
		}
	}
	return b.String()
}

// cell renders one terminal cell from its top and bottom pixels.
func (f *CardFormatter) cell(segments []summary.Segment, top, bottom int) string {
	if top == -2 && bottom == -2 {
		return " "
	}

	if !f.useColors {
		ink := top
		if ink == -2 {
			ink = bottom
		}
		if ink == -1 {
			return SymbolEmpty
		}
		return f.symbols[segments[ink].Label]
	}

	color := func(i int) lipgloss.Color {
		if i == -1 {
			return lipgloss.Color(emptyRingColor)
		}
		return lipgloss.Color(segments[i].Color)
	}

	switch {
	case top == bottom:
		return lipgloss.NewStyle().Foreground(color(top)).Render("█")
	case bottom == -2:
		return lipgloss.NewStyle().Foreground(color(top)).Render("▀")
	case top == -2:
		return lipgloss.NewStyle().Foreground(color(bottom)).Render("▄")
	default:
		return lipgloss.NewStyle().Foreground(color(top)).Background(color(bottom)).Render("▀")
	}
}
