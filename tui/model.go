package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/ansel1/tally/output/format"
	"github.com/ansel1/tally/results"
	"github.com/ansel1/tally/summary"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// frameInterval is how often the ring is redrawn while it sweeps in.
const frameInterval = 50 * time.Millisecond

// ResultsEventMsg wraps results events for bubbletea
type ResultsEventMsg results.Event

// EOFMsg signals that the collector closed its subscription.
type EOFMsg struct{}

// FrameMsg advances the sweep-in animation.
type FrameMsg time.Time

// Model is the live Summary card.
//
// The Model implements the Bubbletea Model interface. It subscribes to the
// collector and rebuilds the card from scratch on every statistics update, so
// nothing from a previous render survives into the next one. The ring sweeps
// in over ChartConfig.AnimationDuration, starting when the first statistics
// arrive.
type Model struct {
	events    <-chan results.Event
	config    summary.ChartConfig
	formatter *format.CardFormatter

	stats    results.Statistics
	card     summary.Card
	hasStats bool

	// Terminal state
	TerminalWidth  int
	TerminalHeight int

	Finished  bool      // True if the event stream has completed or the user quit
	animStart time.Time // When the sweep started
	animating bool      // A FrameMsg is in flight
	now       func() time.Time
	spinner   spinner.Model
}

// NewModel creates a new TUI model subscribed to collector.
func NewModel(collector *results.Collector, cfg summary.ChartConfig, formatter *format.CardFormatter) *Model {
	s := spinner.New()
	s.Spinner = spinner.Jump

	return &Model{
		events:         collector.Subscribe(),
		config:         cfg,
		formatter:      formatter,
		card:           summary.Render(results.NoStatistics(), cfg),
		TerminalWidth:  80, // Default width, will be updated by Bubbletea
		TerminalHeight: 24, // Default height, will be updated by Bubbletea
		now:            time.Now,
		spinner:        s,
	}
}

// Init initializes the model and returns the initial command
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

// waitForEvent reads the next collector event.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-m.events
		if !ok {
			return EOFMsg{}
		}
		return ResultsEventMsg(evt)
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResultsEventMsg:
		return m, tea.Batch(m.handleResultsEvent(results.Event(msg)), m.waitForEvent())

	case FrameMsg:
		m.animating = false
		return m, m.scheduleFrame()

	case tea.WindowSizeMsg:
		m.TerminalWidth = msg.Width
		m.TerminalHeight = msg.Height

	case EOFMsg:
		m.Finished = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.Finished = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.hasStats {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleResultsEvent applies a collector event and returns a follow-up command.
func (m *Model) handleResultsEvent(evt results.Event) tea.Cmd {
	switch evt.Type {
	case results.EventRawOutput:
		return tea.Println(string(evt.RawLine))

	case results.EventRunStarted:
		m.setStatistics(results.Statistics{})

	case results.EventStatisticsUpdated, results.EventRunFinished:
		m.setStatistics(evt.Statistics)
		if !m.hasStats {
			m.hasStats = true
			m.animStart = m.now()
		}
		return m.scheduleFrame()
	}
	return nil
}

func (m *Model) setStatistics(stats results.Statistics) {
	m.stats = stats
	m.card = summary.Render(stats, m.config)
}

// scheduleFrame keeps one FrameMsg in flight until the sweep completes.
func (m *Model) scheduleFrame() tea.Cmd {
	if m.animating || m.Progress() >= 1 {
		return nil
	}
	m.animating = true
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// Progress returns how much of the ring has swept in, from 0 to 1.
func (m *Model) Progress() float64 {
	if !m.hasStats {
		return 0
	}
	if m.config.AnimationDuration <= 0 {
		return 1
	}
	elapsed := m.now().Sub(m.animStart)
	return math.Min(1, float64(elapsed)/float64(m.config.AnimationDuration))
}

// Statistics returns the statistics currently shown.
func (m *Model) Statistics() results.Statistics {
	return m.stats
}

// View renders the TUI
func (m *Model) View() string {
	if m.Finished {
		return ""
	}
	if !m.hasStats {
		return m.spinner.View() + " waiting for results..."
	}
	return m.formatter.Format(m.card, m.Progress())
}

// FinalView renders the card fully swept, for printing after the program exits.
func (m *Model) FinalView() string {
	return m.formatter.Format(m.card, 1)
}

// DisplaySummary prints the final card to w.
// In TUI mode this is called after the program exits so the card stays on screen.
func (m *Model) DisplaySummary(w io.Writer) {
	fmt.Fprintln(w, strings.TrimRight(m.FinalView(), "\n"))
}
