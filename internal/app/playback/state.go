// Package playback provides the slideshow playback state machine.
package playback

// State represents the playback state.
type State int

const (
	StateStopped          State = iota // Not playing
	StatePlaying                       // Advance tick armed
	StatePausedByActivity              // Playing, advance suspended by pointer activity
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePausedByActivity:
		return "paused_by_activity"
	default:
		return "unknown"
	}
}

// IsPlaying reports whether playback is active, including while paused by activity.
func (s State) IsPlaying() bool {
	return s == StatePlaying || s == StatePausedByActivity
}

// Snapshot is a copy of the engine state taken at event time.
type Snapshot struct {
	State        State
	CurrentIndex int
	CurrentURL   string // Empty when the playlist is empty
	Length       int
	Looping      bool
	DisplayTime  int // Seconds
}

// Playing reports whether playback is active.
func (s Snapshot) Playing() bool {
	return s.State.IsPlaying()
}
