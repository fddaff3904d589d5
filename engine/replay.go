package engine

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/ansel1/tally/parser"
)

// timedLine is one recorded input line and the time it was originally emitted.
type timedLine struct {
	data []byte
	at   time.Time
}

// ReplayReader wraps a recorded `go test -json` stream and hands it back
// line by line, sleeping between lines so the live card sees the counts move
// at the pace of the original run.
type ReplayReader struct {
	ctx   context.Context
	lines []timedLine
	rate  float64
	next  int
	buf   []byte
	last  time.Time
	sleep func(context.Context, time.Duration) error
}

// NewReplayReader reads r fully and prepares it for timed replay.
//
// rate scales the recorded delays: 0 replays instantly, 1 at original speed,
// 0.5 at double speed. Lines without a timestamp (raw output, statistics
// documents) inherit the timestamp of the line before them.
func NewReplayReader(ctx context.Context, r io.Reader, rate float64) (*ReplayReader, error) {
	var lines []timedLine
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		data := append([]byte(nil), scanner.Bytes()...)

		var at time.Time
		if evt, err := parser.ParseEvent(data); err == nil && !evt.Time.IsZero() {
			at = evt.Time
		} else if len(lines) > 0 {
			at = lines[len(lines)-1].at
		}
		lines = append(lines, timedLine{data: data, at: at})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &ReplayReader{
		ctx:   ctx,
		lines: lines,
		rate:  rate,
		sleep: sleepContext,
	}, nil
}

// Read implements io.Reader, returning data line-by-line with timing delays.
// It returns the context error once the context passed to NewReplayReader is done.
func (r *ReplayReader) Read(p []byte) (int, error) {
	if len(r.buf) > 0 {
		n := copy(p, r.buf)
		r.buf = r.buf[n:]
		return n, nil
	}

	if r.next >= len(r.lines) {
		return 0, io.EOF
	}

	current := r.lines[r.next]
	if r.rate > 0 && !r.last.IsZero() && !current.at.IsZero() {
		if delay := current.at.Sub(r.last); delay > 0 {
			if err := r.sleep(r.ctx, time.Duration(float64(delay)*r.rate)); err != nil {
				return 0, err
			}
		}
	}
	if !current.at.IsZero() {
		r.last = current.at
	}
	r.next++

	r.buf = append(append(make([]byte, 0, len(current.data)+1), current.data...), '\n')
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
