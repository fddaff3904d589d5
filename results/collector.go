package results

import (
	"sync"
	"time"

	"github.com/ansel1/tally/engine"
	"github.com/ansel1/tally/parser"
)

// Collector processes engine events, folds them into Statistics, and emits
// high-level events.
//
// The Collector is the single consumer of engine.Event and the single source of truth
// for run statistics. It detects run boundaries using the heuristic:
// - Run starts: Any test event when no current run exists
// - Run finishes: Running package count drops to 0
//
// A statistics document in the stream, or a call to Replace, records a
// complete run in one step.
type Collector struct {
	state       *State
	mu          sync.RWMutex
	subscribers []chan Event
	subMu       sync.Mutex
	closed      bool
	err         error
	now         func() time.Time
}

// NewCollector creates a new result collector.
func NewCollector() *Collector {
	return &Collector{
		state:       NewState(),
		subscribers: make([]chan Event, 0),
		now:         time.Now,
	}
}

// Subscribe returns a channel that will receive result events.
// The caller should read from this channel until it is closed.
func (c *Collector) Subscribe() <-chan Event {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	ch := make(chan Event, 100)
	if c.closed {
		close(ch)
		return ch
	}
	c.subscribers = append(c.subscribers, ch)
	return ch
}

// emit sends an event to all subscribers.
func (c *Collector) emit(evts ...Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.closed {
		return
	}
	for _, evt := range evts {
		for _, sub := range c.subscribers {
			sub <- evt
		}
	}
}

// Close closes all subscriber channels. Later events are dropped.
func (c *Collector) Close() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for _, sub := range c.subscribers {
		close(sub)
	}
}

// ProcessEvents consumes engine events and updates state.
// This method should be called as a goroutine. It returns when the
// events channel is closed or EventComplete is received, after closing
// all subscriber channels.
func (c *Collector) ProcessEvents(events <-chan engine.Event) {
	defer c.Close()

	for evt := range events {
		switch evt.Type {
		case engine.EventRawLine:
			c.mu.RLock()
			runID := 0
			if c.state.CurrentRun != nil {
				runID = c.state.CurrentRun.ID
			}
			c.mu.RUnlock()
			c.emit(NewRawOutputEvent(runID, evt.RawLine))

		case engine.EventTest:
			// Handle test event and emit events after lock is released
			c.emit(c.handleTestEvent(evt.TestEvent)...)

		case engine.EventStatistics:
			c.Replace(FromDocument(evt.Statistics))

		case engine.EventComplete:
			c.Finish()
			return

		case engine.EventError:
			c.mu.Lock()
			c.err = evt.Error
			c.mu.Unlock()
		}
	}
	c.Finish()
}

// Err returns the last stream error seen by ProcessEvents.
func (c *Collector) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// handleTestEvent processes a test event and updates the state.
// Returns events to emit after the lock is released.
func (c *Collector) handleTestEvent(event parser.TestEvent) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	eventsToEmit := make([]Event, 0, 2)

	if c.state.CurrentRun == nil {
		eventsToEmit = append(eventsToEmit, c.startNewRun(event.Time))
	}
	run := c.state.CurrentRun

	if !event.Time.IsZero() {
		if run.StartTime.IsZero() {
			run.StartTime = event.Time
		}
		run.LastTime = event.Time
	}

	// Build output and other non-package events carry no results
	if event.Package == "" {
		return eventsToEmit
	}

	if _, seen := run.Packages[event.Package]; !seen {
		run.Packages[event.Package] = struct{}{}
		run.RunningPkgs++
	}

	if event.Test == "" {
		return append(eventsToEmit, c.handlePackageEvent(run, event)...)
	}
	return append(eventsToEmit, c.handleTestLevelEvent(run, event)...)
}

// handlePackageEvent tracks package start and end to find the run boundary.
func (c *Collector) handlePackageEvent(run *Run, event parser.TestEvent) []Event {
	switch event.Action {
	case "pass", "fail", "skip":
		if elapsed := time.Duration(event.Elapsed * float64(time.Second)); elapsed > run.pkgElapsed {
			run.pkgElapsed = elapsed
		}
		run.RunningPkgs--
		updateTime(run)

		evts := []Event{NewStatisticsUpdatedEvent(run.ID, run.Stats)}
		if evt := c.checkRunFinished(run); evt != nil {
			evts = append(evts, *evt)
		}
		return evts
	}
	return nil
}

// handleTestLevelEvent counts terminal test actions. A test that reports a
// second terminal action (e.g. -count=2) is recounted under its new status.
func (c *Collector) handleTestLevelEvent(run *Run, event parser.TestEvent) []Event {
	switch event.Action {
	case "pass", "fail", "skip":
	default:
		return nil
	}

	key := event.Package + "/" + event.Test
	if prev, ok := run.TestStatus[key]; ok {
		adjust(&run.Stats, prev, -1)
	}
	run.TestStatus[key] = event.Action
	adjust(&run.Stats, event.Action, 1)
	updateTime(run)

	return []Event{NewStatisticsUpdatedEvent(run.ID, run.Stats)}
}

func adjust(s *Statistics, action string, delta int) {
	switch action {
	case "pass":
		s.Success += delta
	case "fail":
		s.Failed += delta
	case "skip":
		s.Skipped += delta
	}
	s.Total = s.Success + s.Failed + s.Skipped
}

// updateTime sets the run time from the event timestamps, falling back to the
// longest package elapsed time when the stream carries no timestamps.
func updateTime(run *Run) {
	span := run.LastTime.Sub(run.StartTime)
	if run.StartTime.IsZero() || span <= 0 {
		span = run.pkgElapsed
	}
	run.Stats.Time = float64(span) / float64(time.Millisecond)
}

// startNewRun creates a new run and returns RunStarted event.
// The caller should emit the event after releasing the lock.
func (c *Collector) startNewRun(startTime time.Time) Event {
	runID := len(c.state.Runs) + 1
	run := NewRun(runID, startTime)
	c.state.Runs = append(c.state.Runs, run)
	c.state.CurrentRun = run
	return NewRunStartedEvent(runID)
}

// checkRunFinished checks if the current run has finished and returns RunFinished event.
// Returns nil if the run is not finished.
func (c *Collector) checkRunFinished(run *Run) *Event {
	if run.RunningPkgs > 0 {
		return nil
	}
	run.EndTime = c.now()
	c.state.CurrentRun = nil
	evt := NewRunFinishedEvent(run.ID, run.Stats)
	return &evt
}

// Replace records stats as a complete run of its own. Any run in progress is
// finished first. Nothing from earlier runs carries into the new one.
func (c *Collector) Replace(stats Statistics) {
	c.Finish()

	c.mu.Lock()
	started := c.startNewRun(time.Time{})
	run := c.state.CurrentRun
	run.Stats = stats
	run.EndTime = c.now()
	c.state.CurrentRun = nil
	c.mu.Unlock()

	c.emit(
		started,
		NewStatisticsUpdatedEvent(run.ID, stats),
		NewRunFinishedEvent(run.ID, stats),
	)
}

// Finish finishes the current run if any.
// This should be called when processing is complete or interrupted.
func (c *Collector) Finish() {
	c.mu.Lock()
	var eventToEmit *Event
	if run := c.state.CurrentRun; run != nil {
		run.EndTime = c.now()
		updateTime(run)
		c.state.CurrentRun = nil
		evt := NewRunFinishedEvent(run.ID, run.Stats)
		eventToEmit = &evt
	}
	c.mu.Unlock()

	// Emit after releasing the lock
	if eventToEmit != nil {
		c.emit(*eventToEmit)
	}
}

// Latest returns the statistics of the current run, or of the most recent
// run when none is in progress. Before any run every field is absent.
func (c *Collector) Latest() Statistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state.CurrentRun != nil {
		return c.state.CurrentRun.Stats
	}
	if n := len(c.state.Runs); n > 0 {
		return c.state.Runs[n-1].Stats
	}
	return NoStatistics()
}

// RunCount returns the number of runs recorded so far, including one in progress.
func (c *Collector) RunCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.state.Runs)
}

// HasFailures reports whether any recorded run has failures.
func (c *Collector) HasFailures() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, run := range c.state.Runs {
		if run.Stats.HasFailures() {
			return true
		}
	}
	return false
}
