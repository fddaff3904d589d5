package output

import (
	"encoding/json"
	"io"
	"math"

	"github.com/ansel1/tally/results"
	"github.com/ansel1/tally/summary"
)

// CardJSON is the JSON form of a card. Chart values are null where a count
// is absent, since JSON has no NaN.
type CardJSON struct {
	Title      string             `json:"title"`
	Statistics results.Statistics `json:"statistics"`
	Chart      struct {
		Labels []string   `json:"labels"`
		Values []*float64 `json:"values"`
		Colors []string   `json:"colors"`
	} `json:"chart"`
	Options   summary.ChartConfig `json:"options"`
	TotalText string              `json:"totalText"`
	TimeText  string              `json:"timeText"`
}

// NewCardJSON renders stats with cfg and converts the card for encoding.
func NewCardJSON(stats results.Statistics, cfg summary.ChartConfig) CardJSON {
	card := summary.Render(stats, cfg)

	resp := CardJSON{
		Title:      card.Title,
		Statistics: stats,
		Options:    card.Config,
		TotalText:  card.TotalText,
		TimeText:   card.TimeText,
	}
	resp.Chart.Labels = card.Chart.Labels
	resp.Chart.Colors = card.Chart.Colors
	for _, v := range card.Chart.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			resp.Chart.Values = append(resp.Chart.Values, nil)
			continue
		}
		v := v // per-iteration copy; go.mod targets go1.21 loop semantics
		resp.Chart.Values = append(resp.Chart.Values, &v)
	}
	return resp
}

// WriteJSON writes the card for stats as indented JSON.
func WriteJSON(w io.Writer, stats results.Statistics, cfg summary.ChartConfig) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewCardJSON(stats, cfg))
}
