// Package state provides session lifecycle state.
package state

import "time"

// Phase represents the session lifecycle phase.
type Phase int

const (
	PhaseWaiting Phase = iota // Created, settings not yet restored
	PhaseActive               // Bootstrapped and serving
	PhaseClosed               // Shut down
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseActive:
		return "active"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Info is a copy of the session lifecycle state.
type Info struct {
	SessionID    string
	Phase        Phase
	StartedAt    *time.Time
	LastSavedAt  *time.Time
	SaveFailures int
}
