package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	// ErrNotTestEvent is returned by ParseEvent for JSON objects without an Action.
	ErrNotTestEvent = errors.New("not a test event")

	// ErrNotStatistics is returned by ParseStatistics for JSON objects that
	// carry none of the statistics fields.
	ErrNotStatistics = errors.New("not a statistics document")
)

// TestEvent represents a single event from `go test -json` output
type TestEvent struct {
	Time       time.Time `json:"Time"`
	Action     string    `json:"Action"`
	Package    string    `json:"Package"`
	Test       string    `json:"Test,omitempty"`
	Output     string    `json:"Output,omitempty"`
	Elapsed    float64   `json:"Elapsed,omitempty"`
	Source     string    `json:"Source,omitempty"`
	ImportPath string    `json:"ImportPath,omitempty"`
}

// ParseEvent parses a single line of JSON from `go test -json` output
func ParseEvent(line []byte) (TestEvent, error) {
	var event TestEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return event, err
	}
	if event.Action == "" {
		return event, ErrNotTestEvent
	}
	return event, nil
}

// StatisticsDoc is the wire form of a statistics record.
//
// Every field is optional. A nil field means the producer did not send it,
// or sent a value that is not a number. Invalid lists the keys of the latter.
type StatisticsDoc struct {
	Success *int     `json:"success,omitempty"`
	Failed  *int     `json:"failed,omitempty"`
	Skipped *int     `json:"skipped,omitempty"`
	Total   *int     `json:"total,omitempty"`
	Time    *float64 `json:"time,omitempty"` // milliseconds

	Invalid []string `json:"-"`
}

// Empty reports whether none of the fields are set.
func (d StatisticsDoc) Empty() bool {
	return d.Success == nil && d.Failed == nil && d.Skipped == nil && d.Total == nil && d.Time == nil
}

// ParseStatistics parses a statistics document such as
// {"success":5,"failed":2,"skipped":1,"total":8,"time":12345}.
//
// Fields are decoded one by one. A field with an unusable value is left nil
// and listed in Invalid; the other fields are kept. Counts must be whole
// numbers (2.0 is accepted as 2). ErrNotStatistics is returned for objects
// that carry none of the statistics keys.
func ParseStatistics(data []byte) (StatisticsDoc, error) {
	var doc StatisticsDoc

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return doc, fmt.Errorf("parse statistics: %w", err)
	}

	known := false
	counts := []struct {
		key string
		dst **int
	}{
		{"success", &doc.Success},
		{"failed", &doc.Failed},
		{"skipped", &doc.Skipped},
		{"total", &doc.Total},
	}
	for _, c := range counts {
		raw, ok := fields[c.key]
		if !ok {
			continue
		}
		known = true
		if n, ok := decodeCount(raw); ok {
			*c.dst = &n
		} else {
			doc.Invalid = append(doc.Invalid, c.key)
		}
	}

	if raw, ok := fields["time"]; ok {
		known = true
		if t, ok := decodeNumber(raw); ok {
			doc.Time = &t
		} else {
			doc.Invalid = append(doc.Invalid, "time")
		}
	}

	if !known {
		return doc, ErrNotStatistics
	}
	return doc, nil
}

func decodeNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, false
	}
	return f, true
}

func decodeCount(raw json.RawMessage) (int, bool) {
	f, ok := decodeNumber(raw)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Result statuses used by ParseResultList. Aliases are normalized to these.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// Result is a single executed check, as serialized by a compliance run.
type Result struct {
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	Elapsed float64 `json:"elapsed,omitempty"` // milliseconds
}

// ParseResultList parses a JSON array of results. Status values are
// normalized: "pass"/"passed" become success, "error"/"fail" become failed,
// "skip" becomes skipped. Unknown statuses are rejected.
func ParseResultList(data []byte) ([]Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("parse result list: expected JSON array")
	}

	var list []Result
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("parse result list: %w", err)
	}

	for i := range list {
		status, err := normalizeStatus(list[i].Status)
		if err != nil {
			return nil, fmt.Errorf("parse result list: result %d (%s): %w", i, list[i].Name, err)
		}
		list[i].Status = status
	}
	return list, nil
}

func normalizeStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "pass", "passed", "ok":
		return ResultSuccess, nil
	case "failed", "fail", "error":
		return ResultFailed, nil
	case "skipped", "skip":
		return ResultSkipped, nil
	default:
		return "", fmt.Errorf("unknown status %q", status)
	}
}
