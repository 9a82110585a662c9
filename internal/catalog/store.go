// Package catalog implements the Store Gateway: a pure-Go, SQLite-backed
// document store for daily/hourly granules, continuous segments, PSD
// spectra, and data objects, keyed by file and stream identity.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Config configures the Store Gateway.
type Config struct {
	DataDir     string
	AllowDouble bool // MONGO.ALLOW_DOUBLE: skip the is-new guard entirely
}

// DefaultConfig returns the default Store configuration.
func DefaultConfig() Config {
	return Config{
		DataDir:     filepath.Join(".", "data"),
		AllowDouble: false,
	}
}

// Store is the persistent catalog backed by SQLite.
type Store struct {
	db    *sql.DB
	cfg   Config
	hooks storeHooks
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type sqlRowScanner struct {
	rows *sql.Rows
}

func (r sqlRowScanner) Next() bool             { return r.rows.Next() }
func (r sqlRowScanner) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r sqlRowScanner) Err() error             { return r.rows.Err() }
func (r sqlRowScanner) Close() error           { return r.rows.Close() }

type storeHooks struct {
	exec    func(db execer, query string, args ...any) (sql.Result, error)
	query   func(db queryer, query string, args ...any) (*sql.Rows, error)
	queryIt func(db queryer, query string, args ...any) (rowScanner, error)
	beginTx func(db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func defaultStoreHooks() storeHooks {
	return storeHooks{
		exec: func(db execer, query string, args ...any) (sql.Result, error) {
			return db.Exec(query, args...)
		},
		query: func(db queryer, query string, args ...any) (*sql.Rows, error) {
			return db.Query(query, args...)
		},
		queryIt: func(db queryer, query string, args ...any) (rowScanner, error) {
			rows, err := db.Query(query, args...)
			if err != nil {
				return nil, err
			}
			return sqlRowScanner{rows: rows}, nil
		},
		beginTx: func(db *sql.DB) (*sql.Tx, error) {
			return db.Begin()
		},
		commit: func(tx *sql.Tx) error {
			return tx.Commit()
		},
	}
}

func (s *Store) execHook(db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(db, query, args...)
	}
	return db.Exec(query, args...)
}

func (s *Store) queryItHook(db queryer, query string, args ...any) (rowScanner, error) {
	if s.hooks.queryIt != nil {
		return s.hooks.queryIt(db, query, args...)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRowScanner{rows: rows}, nil
}

func (s *Store) beginTxHook() (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(s.db)
	}
	return s.db.Begin()
}

func (s *Store) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// New creates a Store, creating the data directory if needed, opening
// SQLite in WAL mode, and running migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("catalog: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "wfcatalog.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("catalog: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg, hooks: defaultStoreHooks()}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("catalog: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS daily_granules (
	stream_id TEXT PRIMARY KEY,
	file_id   TEXT NOT NULL,
	net TEXT NOT NULL, sta TEXT NOT NULL, loc TEXT NOT NULL, cha TEXT NOT NULL,
	qlt TEXT, ts TEXT NOT NULL, te TEXT NOT NULL, enc TEXT, srate REAL,
	rlen INTEGER, nrec INTEGER, nsam INTEGER,
	smin REAL, smax REAL, smean REAL, smedian REAL, supper REAL, slower REAL, rms REAL, stdev REAL,
	ngaps INTEGER, glen REAL, nover INTEGER, olen REAL, gmax REAL, omax REAL,
	avail REAL, sgap INTEGER, egap INTEGER, nseg INTEGER, cont INTEGER,
	io_flags TEXT, dq_flags TEXT, ac_flags TEXT, timing_quality TEXT,
	warnings INTEGER, status TEXT, format TEXT, type TEXT,
	created TEXT NOT NULL, collector TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_daily_stream ON daily_granules(net, sta, loc, cha);
CREATE INDEX IF NOT EXISTS idx_daily_fileid ON daily_granules(file_id);

CREATE TABLE IF NOT EXISTS daily_files (
	daily_stream_id TEXT NOT NULL REFERENCES daily_granules(stream_id) ON DELETE CASCADE,
	name  TEXT NOT NULL,
	chksm TEXT NOT NULL,
	do_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_daily_files_name ON daily_files(name);
CREATE INDEX IF NOT EXISTS idx_daily_files_stream ON daily_files(daily_stream_id);

CREATE TABLE IF NOT EXISTS hourly_granules (
	id TEXT PRIMARY KEY,
	stream_id TEXT NOT NULL REFERENCES daily_granules(stream_id) ON DELETE CASCADE,
	file_id TEXT NOT NULL,
	net TEXT NOT NULL, sta TEXT NOT NULL, loc TEXT NOT NULL, cha TEXT NOT NULL,
	qlt TEXT, ts TEXT NOT NULL, te TEXT NOT NULL, enc TEXT, srate REAL,
	rlen INTEGER, nrec INTEGER, nsam INTEGER,
	smin REAL, smax REAL, smean REAL, smedian REAL, supper REAL, slower REAL, rms REAL, stdev REAL,
	ngaps INTEGER, glen REAL, nover INTEGER, olen REAL, gmax REAL, omax REAL,
	avail REAL, sgap INTEGER, egap INTEGER, nseg INTEGER, cont INTEGER,
	io_flags TEXT, dq_flags TEXT, ac_flags TEXT, timing_quality TEXT,
	warnings INTEGER, status TEXT, format TEXT, type TEXT, created TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_hourly_stream ON hourly_granules(stream_id);

CREATE TABLE IF NOT EXISTS continuous_segments (
	id TEXT PRIMARY KEY,
	stream_id TEXT NOT NULL REFERENCES daily_granules(stream_id) ON DELETE CASCADE,
	net TEXT NOT NULL, sta TEXT NOT NULL, loc TEXT NOT NULL, cha TEXT NOT NULL,
	smin REAL, smax REAL, smean REAL, smedian REAL, supper REAL, slower REAL, rms REAL, stdev REAL,
	ts TEXT NOT NULL, te TEXT NOT NULL, seglen INTEGER
);
CREATE INDEX IF NOT EXISTS idx_csegs_stream ON continuous_segments(stream_id);

CREATE TABLE IF NOT EXISTS psd_spectra (
	id TEXT PRIMARY KEY,
	file_id TEXT NOT NULL,
	net TEXT NOT NULL, sta TEXT NOT NULL, loc TEXT NOT NULL, cha TEXT NOT NULL,
	ts TEXT NOT NULL, te TEXT NOT NULL, warnings INTEGER, binary BLOB
);
CREATE INDEX IF NOT EXISTS idx_psd_fileid ON psd_spectra(file_id);

CREATE TABLE IF NOT EXISTS data_objects (
	id TEXT PRIMARY KEY,
	file_id TEXT NOT NULL UNIQUE,
	created TEXT NOT NULL
);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// newID mints an opaque document id (streamId, PSD id, data-object id).
func newID() string {
	return uuid.NewString()
}
