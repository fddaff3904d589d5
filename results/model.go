package results

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/ansel1/tally/parser"
)

// Field identifies one field of a Statistics record.
type Field uint8

const (
	FieldSuccess Field = 1 << iota
	FieldFailed
	FieldSkipped
	FieldTotal
	FieldTime

	allFields = FieldSuccess | FieldFailed | FieldSkipped | FieldTotal | FieldTime
)

// Statistics is the outcome of a completed (or in-progress) test run.
//
// Total is expected to equal Success+Failed+Skipped, but that is the
// producer's promise and is not checked here. Time is in milliseconds.
//
// A Statistics decoded from JSON remembers which fields were missing so the
// card can render them degraded instead of as zeros. Values built in Go
// have every field present.
type Statistics struct {
	Success int
	Failed  int
	Skipped int
	Total   int
	Time    float64 // milliseconds

	missing Field
}

// NewStatistics returns a Statistics with every field present.
func NewStatistics(success, failed, skipped, total int, timeMillis float64) Statistics {
	return Statistics{
		Success: success,
		Failed:  failed,
		Skipped: skipped,
		Total:   total,
		Time:    timeMillis,
	}
}

// NoStatistics returns a Statistics with every field absent.
func NoStatistics() Statistics {
	return Statistics{missing: allFields}
}

// FromDocument converts a wire document, keeping track of absent fields.
func FromDocument(doc parser.StatisticsDoc) Statistics {
	var s Statistics
	if doc.Success != nil {
		s.Success = *doc.Success
	} else {
		s.missing |= FieldSuccess
	}
	if doc.Failed != nil {
		s.Failed = *doc.Failed
	} else {
		s.missing |= FieldFailed
	}
	if doc.Skipped != nil {
		s.Skipped = *doc.Skipped
	} else {
		s.missing |= FieldSkipped
	}
	if doc.Total != nil {
		s.Total = *doc.Total
	} else {
		s.missing |= FieldTotal
	}
	if doc.Time != nil {
		s.Time = *doc.Time
	} else {
		s.missing |= FieldTime
	}
	return s
}

// Document is the inverse of FromDocument. A NaN or infinite time is dropped
// because JSON cannot carry it.
func (s Statistics) Document() parser.StatisticsDoc {
	var doc parser.StatisticsDoc
	if s.Has(FieldSuccess) {
		doc.Success = &s.Success
	}
	if s.Has(FieldFailed) {
		doc.Failed = &s.Failed
	}
	if s.Has(FieldSkipped) {
		doc.Skipped = &s.Skipped
	}
	if s.Has(FieldTotal) {
		doc.Total = &s.Total
	}
	if s.Has(FieldTime) && !math.IsNaN(s.Time) && !math.IsInf(s.Time, 0) {
		doc.Time = &s.Time
	}
	return doc
}

// Has reports whether f was supplied.
func (s Statistics) Has(f Field) bool {
	return s.missing&f == 0
}

// Without returns a copy of s with f marked absent and zeroed.
func (s Statistics) Without(f Field) Statistics {
	s.missing |= f
	switch f {
	case FieldSuccess:
		s.Success = 0
	case FieldFailed:
		s.Failed = 0
	case FieldSkipped:
		s.Skipped = 0
	case FieldTotal:
		s.Total = 0
	case FieldTime:
		s.Time = 0
	}
	return s
}

// HasFailures returns true if any checks failed
func (s Statistics) HasFailures() bool {
	return s.Failed > 0
}

// Elapsed returns Time as a duration.
func (s Statistics) Elapsed() time.Duration {
	return time.Duration(s.Time * float64(time.Millisecond))
}

// MarshalJSON writes only the fields that are present.
func (s Statistics) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Document())
}

// UnmarshalJSON records which fields were present in data.
func (s *Statistics) UnmarshalJSON(data []byte) error {
	doc, err := parser.ParseStatistics(data)
	if err != nil && !errors.Is(err, parser.ErrNotStatistics) {
		return err
	}
	*s = FromDocument(doc)
	return nil
}

// Run represents a single discrete test execution.
//
// A run starts when any test event is received and there is no current run in progress.
// A run finishes when the number of running packages drops to 0, or when a
// pre-computed statistics record replaces it.
type Run struct {
	ID          int               // Sequential run ID (1, 2, 3...)
	Stats       Statistics        // Aggregated statistics so far
	TestStatus  map[string]string // "package/testname" -> terminal action ("pass", "fail", "skip")
	Packages    map[string]struct{}
	StartTime   time.Time     // Time of the first event
	LastTime    time.Time     // Time of the latest event
	EndTime     time.Time     // When the run ended
	RunningPkgs int           // Number of currently running packages
	pkgElapsed  time.Duration // Longest package elapsed time, used when events carry no timestamps
}

// State holds all runs and provides access to the current run.
type State struct {
	Runs       []*Run // All runs in chronological order
	CurrentRun *Run   // Currently active run (nil if no active run)
}

// NewRun creates a new run.
func NewRun(id int, start time.Time) *Run {
	return &Run{
		ID:         id,
		TestStatus: make(map[string]string),
		Packages:   make(map[string]struct{}),
		StartTime:  start,
	}
}

// NewState creates a new state.
func NewState() *State {
	return &State{
		Runs: make([]*Run, 0),
	}
}
