// Package show provides the slideshow settings and status value types.
package show

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultDisplayTimeSec is the display time used when none or an invalid one is given.
	DefaultDisplayTimeSec = 5
	// DefaultLooping is the loop flag of a fresh slideshow.
	DefaultLooping = true
	// MaxDisplayTimeSec is the longest display time. Larger values saturate.
	MaxDisplayTimeSec = math.MaxInt32
)

// ParseInt parses the leading integer of raw, ignoring surrounding
// whitespace and any trailing garbage ("12s" parses as 12). Out of range
// values saturate at the int limits.
func ParseInt(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return n, true
}

// CoerceDisplayTime returns sec, the default when sec is not positive, or
// MaxDisplayTimeSec when sec exceeds it.
func CoerceDisplayTime(sec int) int {
	switch {
	case sec <= 0:
		return DefaultDisplayTimeSec
	case sec > MaxDisplayTimeSec:
		return MaxDisplayTimeSec
	}
	return sec
}

// ParseDisplayTime parses user input into a display time in seconds.
// Non-numeric or non-positive input falls back to the default.
func ParseDisplayTime(raw string) int {
	n, ok := ParseInt(raw)
	if !ok {
		return DefaultDisplayTimeSec
	}
	return CoerceDisplayTime(n)
}
