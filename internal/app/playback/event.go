package playback

// EventType represents a playback event type.
type EventType int

const (
	EventStarted         EventType = iota // Playback started
	EventStopped                          // Playback stopped
	EventShown                            // An element is now displayed
	EventFinished                         // Non-looping playback ran past the last element
	EventPaused                           // Advance suspended by activity
	EventResumed                          // Advance re-armed after activity pause
	EventIndexChanged                     // Current index moved by a structural edit
	EventSettingsChanged                  // Display time or loop flag changed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventShown:
		return "shown"
	case EventFinished:
		return "finished"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventIndexChanged:
		return "index_changed"
	case EventSettingsChanged:
		return "settings_changed"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	Snapshot Snapshot
}

// Listener receives engine events. Listeners run after the engine lock is
// released and may call back into the engine.
type Listener func(Event)
