package summary

import (
	"math"

	"github.com/ansel1/tally/results"
)

// Labels, colors and value order of the donut. Index i of each belongs together.
var (
	chartLabels = [3]string{"Passed", "Failed", "skipped"}
	chartColors = [3]string{"#32CD32", "#bb3f3f", "#FFCE56"}
)

// ChartDatum is the input of the donut: three labels, three values and three
// colors, positionally aligned.
type ChartDatum struct {
	Labels []string
	Values []float64
	Colors []string
}

// DeriveChartData maps stats onto the donut input. Absent counts become NaN.
// The returned slices are freshly allocated on every call.
func DeriveChartData(stats results.Statistics) ChartDatum {
	return ChartDatum{
		Labels: append([]string(nil), chartLabels[:]...),
		Values: []float64{
			count(stats, results.FieldSuccess, stats.Success),
			count(stats, results.FieldFailed, stats.Failed),
			count(stats, results.FieldSkipped, stats.Skipped),
		},
		Colors: append([]string(nil), chartColors[:]...),
	}
}

func count(stats results.Statistics, f results.Field, v int) float64 {
	if !stats.Has(f) {
		return math.NaN()
	}
	return float64(v)
}

// Segment is one drawable arc of the ring. Start and End are fractions of a
// full turn, clockwise from twelve o'clock.
type Segment struct {
	Label string
	Color string
	Value float64
	Start float64
	End   float64
}

// Segments returns the arcs to draw. Values that are NaN, infinite or not
// positive take no room. It returns nil when nothing is left to draw.
func (d ChartDatum) Segments() []Segment {
	var sum float64
	for _, v := range d.Values {
		if drawable(v) {
			sum += v
		}
	}
	if sum == 0 {
		return nil
	}

	segments := make([]Segment, 0, len(d.Values))
	var at float64
	for i, v := range d.Values {
		if !drawable(v) {
			continue
		}
		end := at + v/sum
		segments = append(segments, Segment{
			Label: d.Labels[i],
			Color: d.Colors[i],
			Value: v,
			Start: at,
			End:   end,
		})
		at = end
	}
	segments[len(segments)-1].End = 1
	return segments
}

func drawable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
