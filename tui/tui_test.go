package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ansel1/tally/output/format"
	"github.com/ansel1/tally/results"
	"github.com/ansel1/tally/summary"
	tea "github.com/charmbracelet/bubbletea"
	teatest "github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainFormatter() *format.CardFormatter {
	f := format.NewCardFormatter()
	f.SetColors(false)
	return f
}

func instantConfig() summary.ChartConfig {
	cfg := summary.DefaultChartConfig()
	cfg.AnimationDuration = 0
	return cfg
}

func TestModelWaitsForStatistics(t *testing.T) {
	m := NewModel(results.NewCollector(), instantConfig(), plainFormatter())

	assert.Contains(t, m.View(), "waiting for results")
	assert.Zero(t, m.Progress())
}

func TestModelRendersLatestStatistics(t *testing.T) {
	m := NewModel(results.NewCollector(), instantConfig(), plainFormatter())

	m.Update(ResultsEventMsg(results.NewStatisticsUpdatedEvent(1, results.NewStatistics(5, 2, 1, 8, 12345))))
	view := m.View()
	assert.Contains(t, view, "Total Results : 8")
	assert.Contains(t, view, "Time : 12.345 s")

	// A new run starts from nothing; the old numbers must not linger.
	m.Update(ResultsEventMsg(results.NewRunStartedEvent(2)))
	m.Update(ResultsEventMsg(results.NewStatisticsUpdatedEvent(2, results.NewStatistics(1, 0, 0, 1, 500))))
	view = m.View()
	assert.Contains(t, view, "Total Results : 1")
	assert.Contains(t, view, "Time : 0.5 s")
	assert.NotContains(t, view, "Total Results : 8")
	assert.Equal(t, results.NewStatistics(1, 0, 0, 1, 500), m.Statistics())
	assert.Equal(t, []float64{1, 0, 0}, m.card.Chart.Values)

	ring := plainFormatter().Ring(m.card, 1)
	assert.Contains(t, ring, format.SymbolPass)
	assert.NotContains(t, ring, format.SymbolFail)
}

func TestModelAnimationProgress(t *testing.T) {
	cfg := summary.DefaultChartConfig()
	cfg.AnimationDuration = 40 * time.Second

	m := NewModel(results.NewCollector(), cfg, plainFormatter())
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	_, cmd := m.Update(ResultsEventMsg(results.NewStatisticsUpdatedEvent(1, results.NewStatistics(1, 0, 0, 1, 0))))
	require.NotNil(t, cmd)
	assert.Zero(t, m.Progress())

	clock = clock.Add(10 * time.Second)
	assert.InDelta(t, 0.25, m.Progress(), 1e-9)
	_, cmd = m.Update(FrameMsg(clock))
	assert.NotNil(t, cmd, "still sweeping")

	clock = clock.Add(time.Minute)
	assert.Equal(t, 1.0, m.Progress())
	_, cmd = m.Update(FrameMsg(clock))
	assert.Nil(t, cmd, "sweep finished")
}

func TestModelQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		m := NewModel(results.NewCollector(), instantConfig(), plainFormatter())
		_, cmd := m.Update(key)
		require.NotNil(t, cmd)
		assert.True(t, m.Finished)
		assert.Empty(t, m.View())
	}
}

func TestModelDisplaySummary(t *testing.T) {
	m := NewModel(results.NewCollector(), summary.DefaultChartConfig(), plainFormatter())
	m.Update(ResultsEventMsg(results.NewRunFinishedEvent(1, results.NewStatistics(0, 0, 0, 0, 0))))

	var buf bytes.Buffer
	m.DisplaySummary(&buf)
	out := buf.String()
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Time : 0 s")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestModelWithTeatest(t *testing.T) {
	collector := results.NewCollector()
	m := NewModel(collector, instantConfig(), plainFormatter())

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 40))

	collector.Replace(results.NewStatistics(5, 2, 1, 8, 12345))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Total Results : 8"))
	}, teatest.WithDuration(3*time.Second))

	collector.Close()
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final, ok := tm.FinalModel(t).(*Model)
	require.True(t, ok)
	assert.True(t, final.Finished)
	assert.Equal(t, results.NewStatistics(5, 2, 1, 8, 12345), final.Statistics())
	assert.Contains(t, final.FinalView(), "Time : 12.345 s")
}
