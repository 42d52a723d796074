// Package benchmark holds the per-run stage timers.
//
// Timers are an explicit value handed to each pipeline stage; there is no
// process-wide timer state. A nil *Timers disables timing entirely.
package benchmark

import (
	"fmt"
	"strings"
	"time"
)

// Syncer is anything that can block until queued work has completed.
// Stopping a stopwatch against a Syncer measures completed work rather
// than enqueue time.
type Syncer interface {
	Finish() error
}

// Stopwatch accumulates elapsed time over repeated start/stop intervals.
type Stopwatch struct {
	now     func() time.Time
	started time.Time
	running bool
	last    time.Duration
	total   time.Duration
	count   int
}

// Start begins an interval. Starting a running stopwatch restarts the interval.
func (s *Stopwatch) Start() {
	if s == nil {
		return
	}
	s.started = s.clock()()
	s.running = true
}

// Stop waits for q (if non-nil), then ends the current interval.
func (s *Stopwatch) Stop(q Syncer) error {
	if s == nil {
		if q != nil {
			return q.Finish()
		}
		return nil
	}
	if q != nil {
		if err := q.Finish(); err != nil {
			s.running = false
			return err
		}
	}
	if !s.running {
		return nil
	}
	s.last = s.clock()().Sub(s.started)
	s.total += s.last
	s.count++
	s.running = false
	return nil
}

func (s *Stopwatch) clock() func() time.Time {
	if s.now != nil {
		return s.now
	}
	return time.Now
}

// Last returns the most recent interval.
func (s *Stopwatch) Last() time.Duration {
	if s == nil {
		return 0
	}
	return s.last
}

// Total returns the sum of all intervals.
func (s *Stopwatch) Total() time.Duration {
	if s == nil {
		return 0
	}
	return s.total
}

// Count returns the number of completed intervals.
func (s *Stopwatch) Count() int {
	if s == nil {
		return 0
	}
	return s.count
}

// Average returns Total/Count, or 0 before the first interval.
func (s *Stopwatch) Average() time.Duration {
	if s == nil || s.count == 0 {
		return 0
	}
	return s.total / time.Duration(s.count)
}

// Timers groups the stopwatches of one pipeline run.
type Timers struct {
	Setup     Stopwatch
	Copy      Stopwatch
	FFT       Stopwatch
	Normalize Stopwatch
	Write     Stopwatch
}

// New returns a fresh set of timers.
func New() *Timers {
	return &Timers{}
}

// WithClock returns timers driven by now instead of the wall clock.
func WithClock(now func() time.Time) *Timers {
	t := &Timers{}
	for _, s := range t.all() {
		s.now = now
	}
	return t
}

func (t *Timers) all() []*Stopwatch {
	return []*Stopwatch{&t.Setup, &t.Copy, &t.FFT, &t.Normalize, &t.Write}
}

// Stage returns the named stopwatch, or nil when t is nil.
// Names are "setup", "copy", "fft", "normalize" and "write".
func (t *Timers) Stage(name string) *Stopwatch {
	if t == nil {
		return nil
	}
	switch name {
	case "setup":
		return &t.Setup
	case "copy":
		return &t.Copy
	case "fft":
		return &t.FFT
	case "normalize":
		return &t.Normalize
	case "write":
		return &t.Write
	default:
		return nil
	}
}

// Merge adds the intervals recorded in o to t. Either may be nil.
func (t *Timers) Merge(o *Timers) {
	if t == nil || o == nil {
		return
	}
	src := o.all()
	for i, s := range t.all() {
		s.total += src[i].total
		s.count += src[i].count
		if src[i].count > 0 {
			s.last = src[i].last
		}
	}
}

// String summarizes totals and averages per stage.
func (t *Timers) String() string {
	if t == nil {
		return ""
	}
	names := []string{"setup", "copy", "fft", "normalize", "write"}
	var b strings.Builder
	for i, s := range t.all() {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%s: total=%s avg=%s n=%d", names[i], s.Total(), s.Average(), s.Count())
	}
	return b.String()
}
