// Package persistence saves and restores slideshow settings and encodes
// them as share links and export files. It holds no state of its own.
package persistence

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/urlshow/internal/domain/show"
)

// StorageKey is the key the settings snapshot is stored under.
const StorageKey = "urlSlideshowData"

// ErrInvalidFormat is returned when external data lacks a usable url list.
var ErrInvalidFormat = errors.New("invalid data format")

// Store is a durable key-value substrate.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Settings is the persisted snapshot of a slideshow.
type Settings struct {
	URLs        []string `json:"urls"`
	DisplayTime int      `json:"displayTime"`
	IsLooping   bool     `json:"isLooping"`
}

// DefaultSettings returns the settings of a fresh slideshow.
func DefaultSettings() Settings {
	return Settings{
		URLs:        []string{},
		DisplayTime: show.DefaultDisplayTimeSec,
		IsLooping:   show.DefaultLooping,
	}
}

// Partial holds the individually valid fields of settings read from an
// external source. Nil fields were absent or malformed.
type Partial struct {
	URLs        []string
	DisplayTime *int
	Looping     *bool
	Fullscreen  *bool
	Playing     *bool
}

// Apply overlays the present fields of p onto s.
func (p Partial) Apply(s Settings) Settings {
	if p.URLs != nil {
		s.URLs = append(make([]string, 0, len(p.URLs)), p.URLs...)
	}
	if p.DisplayTime != nil {
		s.DisplayTime = *p.DisplayTime
	}
	if p.Looping != nil {
		s.IsLooping = *p.Looping
	}
	return s
}

// Adapter reads and writes the settings snapshot in a Store.
type Adapter struct {
	store Store
	key   string
}

// NewAdapter creates an adapter over store.
func NewAdapter(store Store) *Adapter {
	return &Adapter{
		store: store,
		key:   StorageKey,
	}
}

// Save writes s, overwriting any previous snapshot.
func (a *Adapter) Save(ctx context.Context, s Settings) error {
	if s.URLs == nil {
		s.URLs = []string{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "failed to encode settings")
	}
	if err := a.store.Set(ctx, a.key, string(data)); err != nil {
		return errors.Wrap(err, "failed to write settings")
	}
	return nil
}

// Load reads the stored snapshot. It reports false when nothing usable is
// stored; corrupt data is logged and treated as absent.
func (a *Adapter) Load(ctx context.Context) (Partial, bool) {
	raw, ok, err := a.store.Get(ctx, a.key)
	if err != nil {
		zlog.Warn().Msgf("persistence: failed to read settings: %v", err)
		return Partial{}, false
	}
	if !ok || raw == "" {
		return Partial{}, false
	}

	p, err := decodeFields([]byte(raw))
	if err != nil {
		zlog.Warn().Msgf("persistence: ignoring corrupt settings: %v", err)
		return Partial{}, false
	}
	return p, true
}

// Clear deletes the stored snapshot.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.store.Delete(ctx, a.key); err != nil {
		return errors.Wrap(err, "failed to delete settings")
	}
	return nil
}

// decodeFields parses a JSON object field by field. Only a document that is
// not a JSON object is an error; malformed fields are skipped.
func decodeFields(data []byte) (Partial, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return Partial{}, errors.Wrap(err, "malformed settings document")
	}
	if obj == nil {
		return Partial{}, errors.New("settings document is null")
	}

	var p Partial

	if raw, ok := obj["urls"]; ok {
		var urls []string
		if err := json.Unmarshal(raw, &urls); err == nil && urls != nil {
			p.URLs = urls
		}
	}

	if raw, ok := obj["displayTime"]; ok {
		if n, ok := decodePositiveInt(raw); ok {
			p.DisplayTime = &n
		}
	}

	if raw, ok := obj["isLooping"]; ok {
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			p.Looping = &b
		}
	}

	return p, nil
}

// decodePositiveInt accepts a positive whole JSON number or a numeric string.
func decodePositiveInt(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f >= 1 && f == math.Trunc(f) && f <= math.MaxInt32 {
			return int(f), true
		}
		return 0, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, ok := show.ParseInt(strings.TrimSpace(s)); ok && n > 0 {
			return n, true
		}
	}
	return 0, false
}
