package show

// Status is the view-facing snapshot of a slideshow.
type Status struct {
	URLs             []string `json:"urls"`
	CurrentIndex     int      `json:"currentIndex"`
	CurrentURL       string   `json:"currentUrl"`
	State            string   `json:"state"`
	Playing          bool     `json:"playing"`
	PausedByActivity bool     `json:"pausedByActivity"`
	Looping          bool     `json:"isLooping"`
	DisplayTime      int      `json:"displayTime"`
	Fullscreen       bool     `json:"fullscreen"`
	ControlsVisible  bool     `json:"controlsVisible"`
}

// Position returns the 1-based position shown to users, or 0 when empty.
func (s Status) Position() int {
	if len(s.URLs) == 0 {
		return 0
	}
	return s.CurrentIndex + 1
}

// ToMap converts the status into a generic map for structured transports.
func (s Status) ToMap() map[string]any {
	urls := make([]any, len(s.URLs))
	for i, u := range s.URLs {
		urls[i] = u
	}
	return map[string]any{
		"urls":             urls,
		"currentIndex":     s.CurrentIndex,
		"currentUrl":       s.CurrentURL,
		"state":            s.State,
		"playing":          s.Playing,
		"pausedByActivity": s.PausedByActivity,
		"isLooping":        s.Looping,
		"displayTime":      s.DisplayTime,
		"fullscreen":       s.Fullscreen,
		"controlsVisible":  s.ControlsVisible,
		"position":         s.Position(),
		"total":            len(s.URLs),
	}
}
