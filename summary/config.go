package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidChartConfig is wrapped by every ChartConfig.Validate failure.
var ErrInvalidChartConfig = errors.New("invalid chart config")

// Legend positions.
const (
	LegendTop    = "top"
	LegendBottom = "bottom"
)

// LegendConfig controls the legend drawn under (or over) the donut.
type LegendConfig struct {
	Position      string `yaml:"position" json:"position"`
	BoxWidth      int    `yaml:"box_width" json:"boxWidth"`
	UsePointStyle bool   `yaml:"use_point_style" json:"usePointStyle"`
}

// ChartConfig holds the display options of the card. It is passed into every
// render call; there is no package-level default that can be mutated.
type ChartConfig struct {
	Width               int           `yaml:"width" json:"width"`   // pixels
	Height              int           `yaml:"height" json:"height"` // pixels
	Legend              LegendConfig  `yaml:"legend" json:"legend"`
	MaintainAspectRatio bool          `yaml:"maintain_aspect_ratio" json:"maintainAspectRatio"`
	CutoutPercentage    int           `yaml:"cutout_percentage" json:"cutoutPercentage"`
	AnimationDuration   time.Duration `yaml:"animation_duration" json:"-"` // milliseconds in JSON
}

// chartConfigJSON is ChartConfig with the animation duration in milliseconds.
type chartConfigJSON struct {
	Width               int          `json:"width"`
	Height              int          `json:"height"`
	Legend              LegendConfig `json:"legend"`
	MaintainAspectRatio bool         `json:"maintainAspectRatio"`
	CutoutPercentage    int          `json:"cutoutPercentage"`
	AnimationDuration   float64      `json:"animationDuration"`
}

// MarshalJSON writes AnimationDuration as milliseconds.
func (c ChartConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(chartConfigJSON{
		Width:               c.Width,
		Height:              c.Height,
		Legend:              c.Legend,
		MaintainAspectRatio: c.MaintainAspectRatio,
		CutoutPercentage:    c.CutoutPercentage,
		AnimationDuration:   float64(c.AnimationDuration) / float64(time.Millisecond),
	})
}

// UnmarshalJSON reads AnimationDuration as milliseconds. Fields not in data
// keep their current values.
func (c *ChartConfig) UnmarshalJSON(data []byte) error {
	aux := chartConfigJSON{
		Width:               c.Width,
		Height:              c.Height,
		Legend:              c.Legend,
		MaintainAspectRatio: c.MaintainAspectRatio,
		CutoutPercentage:    c.CutoutPercentage,
		AnimationDuration:   float64(c.AnimationDuration) / float64(time.Millisecond),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = ChartConfig{
		Width:               aux.Width,
		Height:              aux.Height,
		Legend:              aux.Legend,
		MaintainAspectRatio: aux.MaintainAspectRatio,
		CutoutPercentage:    aux.CutoutPercentage,
		AnimationDuration:   time.Duration(aux.AnimationDuration * float64(time.Millisecond)),
	}
	return nil
}

// DefaultChartConfig returns the standard card layout: a 300x350 donut with a
// 65% cutout, a bottom legend with point markers, and a 40s sweep-in.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:  300,
		Height: 350,
		Legend: LegendConfig{
			Position:      LegendBottom,
			BoxWidth:      10,
			UsePointStyle: true,
		},
		MaintainAspectRatio: false,
		CutoutPercentage:    65,
		AnimationDuration:   40 * time.Second,
	}
}

// Validate checks that the config can be drawn.
func (c ChartConfig) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d must be positive", ErrInvalidChartConfig, c.Width, c.Height)
	case c.CutoutPercentage < 0 || c.CutoutPercentage >= 100:
		return fmt.Errorf("%w: cutout %d%% must be in [0,100)", ErrInvalidChartConfig, c.CutoutPercentage)
	case c.AnimationDuration < 0:
		return fmt.Errorf("%w: negative animation duration %s", ErrInvalidChartConfig, c.AnimationDuration)
	case c.Legend.Position != LegendTop && c.Legend.Position != LegendBottom:
		return fmt.Errorf("%w: unknown legend position %q", ErrInvalidChartConfig, c.Legend.Position)
	case c.Legend.BoxWidth < 0:
		return fmt.Errorf("%w: negative legend box width %d", ErrInvalidChartConfig, c.Legend.BoxWidth)
	}
	return nil
}

// Diameter returns the ring diameter in pixels. Without a fixed aspect ratio
// the ring fits the smaller side of the chart area.
func (c ChartConfig) Diameter() int {
	if c.MaintainAspectRatio {
		return c.Width
	}
	return min(c.Width, c.Height)
}
