package session

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/urlshow/internal/app/persistence"
	"github.com/osa030/urlshow/internal/app/playback"
)

// MessageCode maps an operation error to the code of its user-facing message.
func MessageCode(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, playback.ErrEmptyPlaylist):
		return "empty_playlist"
	case errors.Is(err, playback.ErrNotPaused):
		return "not_paused"
	case errors.Is(err, ErrNothingToShare):
		return "nothing_to_share"
	case errors.Is(err, ErrNoValidURLs):
		return "no_valid_urls"
	case errors.Is(err, ErrNotConfirmed):
		return "not_confirmed"
	case errors.Is(err, persistence.ErrInvalidFormat):
		return "invalid_import"
	default:
		return "default_error"
	}
}
