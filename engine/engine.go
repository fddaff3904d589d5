package engine

import (
	"bufio"
	"context"
	"io"

	"github.com/ansel1/tally/parser"
)

// EventType identifies the type of event emitted by the engine
type EventType string

const (
	EventRawLine    EventType = "raw"        // Non-JSON line from input
	EventTest       EventType = "test"       // Parsed test event from go test -json
	EventStatistics EventType = "statistics" // Pre-computed statistics document
	EventError      EventType = "error"      // Error occurred during processing
	EventComplete   EventType = "complete"   // Input stream finished
)

// Event represents a single event emitted by the engine
type Event struct {
	Type       EventType
	RawLine    []byte               // Populated for EventRawLine
	TestEvent  parser.TestEvent     // Populated for EventTest
	Statistics parser.StatisticsDoc // Populated for EventStatistics
	Error      error                // Populated for EventError
}

// Engine processes raw input and broadcasts events
// It maintains no state about tests - just parses and streams events
type Engine struct {
	// Output writers for pass-through file writing
	rawWriter  io.Writer
	jsonWriter io.Writer
}

// Option configures the engine
type Option func(*Engine)

// WithRawOutput configures engine to write all raw lines to a file
func WithRawOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.rawWriter = w
	}
}

// WithJSONOutput configures engine to write parsed JSON lines to a file
func WithJSONOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.jsonWriter = w
	}
}

// NewEngine creates a new event processing engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stream reads from input, parses lines, and emits events via channel.
// The channel is closed when input is exhausted, an error occurs, or ctx is done.
// EventComplete is only sent when the input was read to the end.
func (e *Engine) Stream(ctx context.Context, input io.Reader) <-chan Event {
	events := make(chan Event, 100) // buffered channel for better throughput

	go func() {
		defer close(events)

		send := func(evt Event) bool {
			select {
			case events <- evt:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(input)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()

			// Always write raw output to file if configured
			if e.rawWriter != nil {
				e.rawWriter.Write(line)
				e.rawWriter.Write([]byte("\n"))
			}

			if !send(e.classify(line)) {
				return
			}
		}

		// Check for scanner errors
		if err := scanner.Err(); err != nil {
			if !send(Event{Type: EventError, Error: err}) {
				return
			}
		}

		// Signal completion
		send(Event{Type: EventComplete})
	}()

	return events
}

// classify turns one input line into an event.
func (e *Engine) classify(line []byte) Event {
	if testEvent, err := parser.ParseEvent(line); err == nil {
		e.writeJSON(line)
		return Event{
			Type:      EventTest,
			TestEvent: testEvent,
		}
	}

	if doc, err := parser.ParseStatistics(line); err == nil {
		e.writeJSON(line)
		return Event{
			Type:       EventStatistics,
			Statistics: doc,
		}
	}

	// Make a copy of the line since scanner reuses the buffer
	lineCopy := make([]byte, len(line))
	copy(lineCopy, line)
	return Event{
		Type:    EventRawLine,
		RawLine: lineCopy,
	}
}

func (e *Engine) writeJSON(line []byte) {
	if e.jsonWriter == nil {
		return
	}
	e.jsonWriter.Write(line)
	e.jsonWriter.Write([]byte("\n"))
}
