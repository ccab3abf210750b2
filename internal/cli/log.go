package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w at the given level, with
// timestamps like "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stopwatch logs the phases of a command with their durations.
type stopwatch struct {
	logger *log.Logger
	now    func() time.Time
	start  time.Time
	last   time.Time
}

func startStopwatch(l *log.Logger) *stopwatch {
	now := time.Now()
	return &stopwatch{logger: l, now: time.Now, start: now, last: now}
}

// lap logs msg with the time taken since the previous lap.
func (s *stopwatch) lap(msg string, keyvals ...any) {
	t := s.now()
	keyvals = append(keyvals, "took", t.Sub(s.last).Round(time.Millisecond))
	s.logger.Info(msg, keyvals...)
	s.last = t
}

// total returns the time since the stopwatch started.
func (s *stopwatch) total() time.Duration {
	return s.now().Sub(s.start).Round(time.Millisecond)
}
