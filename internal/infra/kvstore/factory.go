package kvstore

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/urlshow/internal/infra/config"
)

// Backend is a closable key-value store.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NewFromConfig creates the store backend selected by configuration.
func NewFromConfig(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	zlog.Debug().Msgf("creating settings store: type=%s settings=%+v", cfg.Type, redact(cfg.Settings))

	var backend Backend
	var err error
	switch cfg.Type {
	case "", "memory":
		backend = NewMemory()

	case "file":
		backend, err = NewFile(cfg.Settings)

	case "sql":
		backend, err = NewSQL(ctx, cfg.Settings)

	default:
		return nil, errors.Newf("unsupported store type: %s", cfg.Type)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "failed to create store (type %s)", cfg.Type)
	}

	zlog.Info().Msgf("registered settings store: type=%s", cfg.Type)
	return backend, nil
}

// redact hides the DSN, which may carry credentials.
func redact(settings map[string]any) map[string]any {
	if _, ok := settings["dsn"]; !ok {
		return settings
	}
	out := make(map[string]any, len(settings))
	for k, v := range settings {
		out[k] = v
	}
	out["dsn"] = "***"
	return out
}
