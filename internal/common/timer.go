// Package common provides small shared utilities.
package common

import (
	"fmt"
	"log/slog"
	"time"
)

// Timer measures the duration of a named stage.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewNamedTimer starts a timer for the given stage name.
func NewNamedTimer(name string) *Timer {
	return &Timer{
		name:  name,
		start: time.Now(),
	}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// StopAndLog stops the timer and emits a debug log line with the stage name
// and elapsed duration plus any extra key-value attributes.
func (t *Timer) StopAndLog(args ...any) time.Duration {
	d := t.Stop()
	slog.Debug(t.name, append([]any{"duration", d}, args...)...)
	return d
}

// Duration returns the recorded duration. Valid only after Stop.
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Name returns the timer name.
func (t *Timer) Name() string {
	return t.name
}

func (t *Timer) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, t.duration)
	}
	return fmt.Sprintf("%v", t.duration)
}
