package results

// EventType identifies the type of event emitted by the Collector.
type EventType string

const (
	EventRunStarted        EventType = "run_started"        // A new test run has started
	EventRunFinished       EventType = "run_finished"       // A test run has finished
	EventStatisticsUpdated EventType = "statistics_updated" // The run's statistics changed
	EventRawOutput         EventType = "raw_output"         // Raw non-test output
)

// Event represents a high-level event emitted by the Collector.
type Event struct {
	Type       EventType
	RunID      int        // Which run this event belongs to
	Statistics Statistics // For EventStatisticsUpdated and EventRunFinished
	RawLine    []byte     // For EventRawOutput
}

// NewRunStartedEvent creates a new RunStarted event.
func NewRunStartedEvent(runID int) Event {
	return Event{
		Type:  EventRunStarted,
		RunID: runID,
	}
}

// NewRunFinishedEvent creates a new RunFinished event.
func NewRunFinishedEvent(runID int, stats Statistics) Event {
	return Event{
		Type:       EventRunFinished,
		RunID:      runID,
		Statistics: stats,
	}
}

// NewStatisticsUpdatedEvent creates a new StatisticsUpdated event.
func NewStatisticsUpdatedEvent(runID int, stats Statistics) Event {
	return Event{
		Type:       EventStatisticsUpdated,
		RunID:      runID,
		Statistics: stats,
	}
}

// NewRawOutputEvent creates a new RawOutput event.
func NewRawOutputEvent(runID int, line []byte) Event {
	return Event{
		Type:    EventRawOutput,
		RunID:   runID,
		RawLine: line,
	}
}
