package filter

import (
	"context"
)

// Playlist is the read side of the playlist used for duplicate detection.
type Playlist interface {
	Contains(u string) bool
}

// DuplicateURLFilter rejects URLs that are already in the playlist.
type DuplicateURLFilter struct {
	playlist Playlist
}

// NewDuplicateURLFilter creates a new duplicate URL filter.
func NewDuplicateURLFilter(playlist Playlist) *DuplicateURLFilter {
	return &DuplicateURLFilter{
		playlist: playlist,
	}
}

func (f *DuplicateURLFilter) Name() string {
	return "duplicate_url_filter"
}

func (f *DuplicateURLFilter) Description() string {
	return "Rejects URLs that are already in the playlist"
}

func (f *DuplicateURLFilter) ReturnCodes() []string {
	return []string{"duplicate_url"}
}

func (f *DuplicateURLFilter) ValidateConfig(settings map[string]any) error {
	// No configuration needed
	return nil
}

func (f *DuplicateURLFilter) AppliesTo(source Source) bool {
	// Imports and share links replace the playlist wholesale
	return source == SourceUser
}

func (f *DuplicateURLFilter) Check(ctx context.Context, req Request) Result {
	if f.playlist.Contains(req.URL) {
		return Reject("duplicate_url")
	}
	return Accept()
}
