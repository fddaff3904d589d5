package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(events <-chan Event) []Event {
	var collected []Event
	for evt := range events {
		collected = append(collected, evt)
	}
	return collected
}

func TestEngine_Stream_ParsesValidJSON(t *testing.T) {
	input := `{"Time":"2024-01-01T00:00:00Z","Action":"run","Package":"example.com/pkg","Test":"TestFoo"}
{"Time":"2024-01-01T00:00:01Z","Action":"pass","Package":"example.com/pkg","Test":"TestFoo","Elapsed":1.5}`

	collected := collect(NewEngine().Stream(context.Background(), strings.NewReader(input)))

	// Should have 2 test events + 1 complete event
	require.Len(t, collected, 3)

	assert.Equal(t, EventTest, collected[0].Type)
	assert.Equal(t, "run", collected[0].TestEvent.Action)
	assert.Equal(t, "TestFoo", collected[0].TestEvent.Test)

	assert.Equal(t, EventTest, collected[1].Type)
	assert.Equal(t, "pass", collected[1].TestEvent.Action)
	assert.Equal(t, 1.5, collected[1].TestEvent.Elapsed)

	assert.Equal(t, EventComplete, collected[2].Type)
}

func TestEngine_Stream_ParsesStatisticsDocument(t *testing.T) {
	input := `{"success":5,"failed":2,"skipped":1,"total":8,"time":12345}`

	collected := collect(NewEngine().Stream(context.Background(), strings.NewReader(input)))

	require.Len(t, collected, 2)
	require.Equal(t, EventStatistics, collected[0].Type)
	doc := collected[0].Statistics
	require.NotNil(t, doc.Success)
	assert.Equal(t, 5, *doc.Success)
	require.NotNil(t, doc.Time)
	assert.Equal(t, 12345.0, *doc.Time)
	assert.Equal(t, EventComplete, collected[1].Type)
}

func TestEngine_Stream_HandlesNonJSONLines(t *testing.T) {
	input := `This is not JSON
{"Time":"2024-01-01T00:00:00Z","Action":"run","Package":"example.com/pkg","Test":"TestFoo"}
{"unrelated":"object"}
{"Time":"2024-01-01T00:00:01Z","Action":"pass","Package":"example.com/pkg","Test":"TestFoo","Elapsed":1.5}`

	collected := collect(NewEngine().Stream(context.Background(), strings.NewReader(input)))

	// 2 raw lines + 2 test events + 1 complete
	require.Len(t, collected, 5)

	assert.Equal(t, EventRawLine, collected[0].Type)
	assert.Equal(t, "This is not JSON", string(collected[0].RawLine))
	assert.Equal(t, EventTest, collected[1].Type)
	assert.Equal(t, EventRawLine, collected[2].Type)
	assert.Equal(t, `{"unrelated":"object"}`, string(collected[2].RawLine))
	assert.Equal(t, EventTest, collected[3].Type)
	assert.Equal(t, EventComplete, collected[4].Type)
}

func TestEngine_Stream_WritesRawAndJSONOutput(t *testing.T) {
	input := `Non-JSON line
{"Time":"2024-01-01T00:00:00Z","Action":"run","Package":"example.com/pkg","Test":"TestFoo"}
{"success":1,"failed":0,"skipped":0,"total":1,"time":10}`

	var rawBuf, jsonBuf bytes.Buffer
	eng := NewEngine(
		WithRawOutput(&rawBuf),
		WithJSONOutput(&jsonBuf),
	)
	collect(eng.Stream(context.Background(), strings.NewReader(input)))

	rawOutput := rawBuf.String()
	assert.Contains(t, rawOutput, "Non-JSON line\n")
	assert.Contains(t, rawOutput, `{"Time":"2024-01-01T00:00:00Z"`)

	jsonOutput := jsonBuf.String()
	assert.Contains(t, jsonOutput, `{"Time":"2024-01-01T00:00:00Z"`)
	assert.Contains(t, jsonOutput, `{"success":1`)
	assert.NotContains(t, jsonOutput, "Non-JSON line")
}

func TestEngine_Stream_EmptyInput(t *testing.T) {
	collected := collect(NewEngine().Stream(context.Background(), strings.NewReader("")))

	require.Len(t, collected, 1)
	assert.Equal(t, EventComplete, collected[0].Type)
}

// errReader simulates a reader that returns an error
type errReader struct{}

func (e errReader) Read(p []byte) (n int, err error) {
	return 0, errors.New("simulated read error")
}

func TestEngine_Stream_HandlesReadError(t *testing.T) {
	collected := collect(NewEngine().Stream(context.Background(), errReader{}))

	require.Len(t, collected, 2)
	assert.Equal(t, EventError, collected[0].Type)
	assert.Error(t, collected[0].Error)
	assert.Equal(t, EventComplete, collected[1].Type)
}

func TestEngine_Stream_StopsOnCancel(t *testing.T) {
	// Enough lines to fill the channel buffer so the producer blocks on send.
	input := strings.Repeat("raw line\n", 500)

	ctx, cancel := context.WithCancel(context.Background())
	events := NewEngine().Stream(ctx, strings.NewReader(input))

	<-events
	cancel()

	done := make(chan struct{})
	go func() {
		for range events {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after cancel")
	}
}

func TestEngine_Stream_CopiesLineBuffer(t *testing.T) {
	input := "line1\nline2\nline3"

	var rawLines []string
	for evt := range NewEngine().Stream(context.Background(), strings.NewReader(input)) {
		if evt.Type == EventRawLine {
			rawLines = append(rawLines, string(evt.RawLine))
		}
	}

	assert.Equal(t, []string{"line1", "line2", "line3"}, rawLines)
}
