// Package session derives the session-relative facts a template needs from
// the session block of a decoded configuration.
package session

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sessionforge/sessionforge/pkg/config"
)

// MissingSessionError is returned when the current session has no entry.
// A schema cannot express that session.current must name a defined key, so
// this is checked here and is fatal for context building.
type MissingSessionError struct {
	// Key is the session_<N> key that was expected.
	Key string

	// Current is the configured session.current.
	Current int

	// Total is the configured session.total.
	Total int
}

// Error implements the error interface.
func (e *MissingSessionError) Error() string {
	if e.Current < 1 {
		return fmt.Sprintf("session configuration error: session.current is %d; it must be at least 1 when session.enabled is true", e.Current)
	}
	return fmt.Sprintf("session configuration error: %s is not defined (session.current = %d, session.total = %d)",
		e.Key, e.Current, e.Total)
}

// Is matches any *MissingSessionError.
func (e *MissingSessionError) Is(target error) bool {
	_, ok := target.(*MissingSessionError)
	return ok
}

// ErrMissingSession is a sentinel for errors.Is checks.
var ErrMissingSession = &MissingSessionError{}

// Facts are the derived session values. When Enabled is false only
// SingleSessionMode is meaningful.
type Facts struct {
	Enabled           bool
	SingleSessionMode bool

	Number    int
	Total     int
	NumberGT1 bool
	IsFinal   bool
	NotFinal  bool
	Previous  int
	Next      int

	// Current is the entry for session.current.
	Current *config.SessionEntry

	// NextEntry is the entry for Next, nil when there is no next session
	// or it has not been written yet.
	NextEntry *config.SessionEntry
}

// Calculator computes session facts.
type Calculator struct {
	logger zerolog.Logger
}

// NewCalculator creates a session calculator.
func NewCalculator(logger zerolog.Logger) *Calculator {
	return &Calculator{
		logger: logger.With().Str("component", "session-calculator").Logger(),
	}
}

// Calculate derives Facts from block. It fails only when sessions are
// enabled and the current session's entry cannot be found.
func (c *Calculator) Calculate(block *config.SessionBlock) (*Facts, error) {
	if !block.Enabled {
		c.logger.Debug().Msg("Sessions disabled, single-session mode")
		return &Facts{SingleSessionMode: true}, nil
	}

	current := block.Current
	total := block.Total

	entry, ok := block.Entry(current)
	if !ok {
		return nil, &MissingSessionError{
			Key:     config.SessionKey(current),
			Current: current,
			Total:   total,
		}
	}

	f := &Facts{
		Enabled:   true,
		Number:    current,
		Total:     total,
		NumberGT1: current > 1,
		IsFinal:   current == total,
		NotFinal:  current < total,
		Current:   entry,
	}
	if f.NumberGT1 {
		f.Previous = current - 1
	}
	if f.NotFinal {
		f.Next = current + 1
		// An unwritten next session is not an error.
		if next, ok := block.Entry(f.Next); ok {
			f.NextEntry = next
		}
	}

	c.logger.Debug().
		Int("current", current).
		Int("total", total).
		Bool("final", f.IsFinal).
		Bool("next_available", f.NextEntry != nil).
		Msg("Session facts calculated")

	return f, nil
}
