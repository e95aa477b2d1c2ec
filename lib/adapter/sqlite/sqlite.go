// Package sqlite provides a persistent local-table adapter backed by an
// embedded SQLite database. Each adapter owns one table of (key, value)
// rows; multiple stores may share a database file as long as they use
// distinct tables.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/stashkv/stash/lib/adapter"

	_ "modernc.org/sqlite"
)

const defaultTable = "stash"

// table names are interpolated into DDL/DML, restrict them to identifiers
var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options configures the sqlite adapter.
type Options struct {
	// Path is the database file location. Required.
	Path string
	// Table is the table holding this store's pairs (default "stash").
	Table string
}

type sqliteAdapter struct {
	opts Options
	db   *sql.DB
}

// New creates a sqlite adapter. The database file and table are created on
// Setup if missing.
func New(opts Options) adapter.Adapter {
	if opts.Table == "" {
		opts.Table = defaultTable
	}
	return &sqliteAdapter{opts: opts}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see adapter/interface.go)
// --------------------------------------------------------------------------

func (a *sqliteAdapter) Setup() error {
	if a.opts.Path == "" {
		return fmt.Errorf("sqlite: no database path given")
	}
	if !tableNameRe.MatchString(a.opts.Table) {
		return fmt.Errorf("sqlite: invalid table name %q", a.opts.Table)
	}

	db, err := sql.Open("sqlite", a.opts.Path)
	if err != nil {
		return fmt.Errorf("sqlite: open %s: %w", a.opts.Path, err)
	}

	// the owning store serializes access, one connection is all we need
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return fmt.Errorf("sqlite: enable WAL mode: %w", err)
	}

	schema := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value BLOB NOT NULL)`,
		a.opts.Table)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("sqlite: create table %s: %w", a.opts.Table, err)
	}

	a.db = db
	return nil
}

func (a *sqliteAdapter) Teardown(_ string) error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *sqliteAdapter) Fetch(key string) ([]byte, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, a.opts.Table)

	var value []byte
	err := a.db.QueryRow(query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: fetch %q: %w", key, err)
	}
	return value, true, nil
}

func (a *sqliteAdapter) Put(key string, value []byte) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		a.opts.Table)

	if _, err := a.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("sqlite: put %q: %w", key, err)
	}
	return nil
}

func (a *sqliteAdapter) Delete(key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, a.opts.Table)

	// deleting an absent key is a successful no-op
	if _, err := a.db.Exec(query, key); err != nil {
		return fmt.Errorf("sqlite: delete %q: %w", key, err)
	}
	return nil
}

func (a *sqliteAdapter) Pairs() ([]adapter.Pair, error) {
	query := fmt.Sprintf(`SELECT key, value FROM %s`, a.opts.Table)

	rows, err := a.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: enumerate: %w", err)
	}
	defer rows.Close()

	var pairs []adapter.Pair
	for rows.Next() {
		var p adapter.Pair
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, fmt.Errorf("sqlite: enumerate scan: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: enumerate: %w", err)
	}
	return pairs, nil
}

func (a *sqliteAdapter) SupportsFeature(feature adapter.Feature) bool {
	supported := adapter.FeatureFetch |
		adapter.FeaturePut |
		adapter.FeatureDelete |
		adapter.FeatureEnumerate
	return supported&feature == feature
}

func (a *sqliteAdapter) Info() adapter.Info {
	meta := &struct {
		Path  string `json:"path"`
		Table string `json:"table"`
	}{
		Path:  a.opts.Path,
		Table: a.opts.Table,
	}
	return adapter.Info{
		Name:       "sqlite",
		Enumerable: true,
		Metadata:   meta,
	}
}
