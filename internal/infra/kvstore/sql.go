package kvstore

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// SQLConfig configures a SQL store.
type SQLConfig struct {
	Driver string `mapstructure:"driver" default:"sqlite3" validate:"oneof=sqlite3 postgres"`
	DSN    string `mapstructure:"dsn" default:"urlshow.sqlite3" validate:"required"`
	Table  string `mapstructure:"table" default:"urlshow_settings" validate:"required,max=63"`
}

// SQL keeps keys in a two-column table of a sqlite3 or postgres database.
type SQL struct {
	db    *sqlx.DB
	table string
}

// NewSQL opens the database described by backend settings and creates the
// table when missing.
func NewSQL(ctx context.Context, settings map[string]any) (*SQL, error) {
	var config SQLConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		zlog.Error().Msgf("sql store validation failed: %v", err)
		return nil, errors.Wrap(err, "validation failed")
	}
	if !isIdentifier(config.Table) {
		return nil, errors.Newf("invalid table name: %s", config.Table)
	}

	db, err := sqlx.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", config.Driver)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s database", config.Driver)
	}

	s := &SQL{db: db, table: config.Table}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	zlog.Debug().Msgf("kvstore: sql store: driver=%s table=%s", config.Driver, config.Table)
	return s, nil
}

func (s *SQL) migrate(ctx context.Context) error {
	query := `
	  create table if not exists ` + s.table + ` (
		name text primary key,
		value text not null
	  );`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return errors.Wrap(err, "failed to create settings table")
	}
	return nil
}

// Get returns the value for key.
func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	query := s.db.Rebind(`select value from ` + s.table + ` where name = ?`)

	var value string
	err := s.db.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "failed to query setting")
	}
	return value, true, nil
}

// Set stores value under key.
func (s *SQL) Set(ctx context.Context, key, value string) error {
	query := s.db.Rebind(`
	  insert into ` + s.table + ` (name, value)
	  values (?, ?)
	  on conflict(name) do update
		 set value = excluded.value;`)

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return errors.Wrap(err, "failed to upsert setting")
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQL) Delete(ctx context.Context, key string) error {
	query := s.db.Rebind(`delete from ` + s.table + ` where name = ?`)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return errors.Wrap(err, "failed to delete setting")
	}
	return nil
}

// Close closes the database.
func (s *SQL) Close() error {
	return s.db.Close()
}

// isIdentifier reports whether name is safe to splice into a statement.
func isIdentifier(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return name != ""
}
