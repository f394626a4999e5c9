// Package filter provides the filter chain for URL admission.
package filter

import (
	"context"
	"net/url"
	"strings"
)

// Source identifies where a URL entering the playlist came from.
type Source int

const (
	SourceUser      Source = iota // Typed or pasted by the user
	SourceImport                  // Read from an exported settings file
	SourceShareLink               // Decoded from a share link
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceUser:
		return "user"
	case SourceImport:
		return "import"
	case SourceShareLink:
		return "share_link"
	default:
		return "unknown"
	}
}

// Request represents a normalized URL to be admitted.
type Request struct {
	URL    string
	Source Source
}

// Host returns the lower-cased host of the requested URL, or "" when it
// cannot be parsed.
func (r Request) Host() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "duplicate_url", "host_not_allowed"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for URL filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates the filter configuration.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter should be applied to URLs from the given source.
	AppliesTo(source Source) bool
	// Check performs the filter check.
	Check(ctx context.Context, req Request) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}
