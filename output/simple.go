package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/ansel1/tally/engine"
	"github.com/ansel1/tally/output/format"
	"github.com/ansel1/tally/results"
	"github.com/ansel1/tally/summary"
)

// ErrNoResults is returned when a stream ends without any test result or
// statistics document.
var ErrNoResults = errors.New("no test results or statistics in input")

// SimpleOutput writes plain output for non-interactive use.
// Raw lines are echoed as they arrive and the Summary card is printed once
// the stream completes.
type SimpleOutput struct {
	writer    io.Writer
	collector *results.Collector
	formatter *format.CardFormatter
	chart     summary.ChartConfig
}

// NewSimpleOutput creates a simple output writer
func NewSimpleOutput(w io.Writer, collector *results.Collector, formatter *format.CardFormatter, chart summary.ChartConfig) *SimpleOutput {
	return &SimpleOutput{
		writer:    w,
		collector: collector,
		formatter: formatter,
		chart:     chart,
	}
}

// ProcessEvents feeds events through the collector and writes the output.
// It returns after the card is written, or ErrNoResults when the stream
// held nothing to summarize.
func (s *SimpleOutput) ProcessEvents(events <-chan engine.Event) error {
	sub := s.collector.Subscribe()
	go s.collector.ProcessEvents(events)

	// Keep draining after a write error so the collector never blocks.
	var werr error
	for evt := range sub {
		if evt.Type != results.EventRawOutput || werr != nil {
			continue
		}
		_, werr = fmt.Fprintln(s.writer, string(evt.RawLine))
	}
	if werr != nil {
		return werr
	}
	if err := s.collector.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if s.collector.RunCount() == 0 {
		return ErrNoResults
	}

	return s.WriteCard()
}

// WriteCard writes the card for the collector's latest statistics.
func (s *SimpleOutput) WriteCard() error {
	card := summary.Render(s.collector.Latest(), s.chart)
	_, err := fmt.Fprintln(s.writer, s.formatter.Format(card, 1))
	return err
}

// HasFailures returns true if any tests failed
func (s *SimpleOutput) HasFailures() bool {
	return s.collector.HasFailures()
}
