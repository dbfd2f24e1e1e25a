package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPure is modernc.org/sqlite.
	DriverPure = "sqlite"

	MemoryPath = ":memory:"
)

func ValidDriver(name string) bool {
	return name == DriverCGO || name == DriverPure
}

// Store is the durable home of every collection. All access goes through a
// single connection, so transactions are naturally serialized.
type Store struct {
	Collections

	db     *sql.DB
	path   string
	driver string
}

// Open opens (creating if needed) the database at path, applies pragmas and
// migrations.
func Open(ctx context.Context, driver, path string) (*Store, error) {
	if !ValidDriver(driver) {
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	if path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, &StoreIOError{Op: "pragma", Collection: p, Err: err}
		}
	}
	if err := MigrateUp(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.path = path
	s.driver = driver
	return s, nil
}

// New wraps an already migrated database.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	return &Store{Collections: bind(db), db: db}, nil
}

func (s *Store) Path() string   { return s.path }
func (s *Store) Driver() string { return s.driver }

func (s *Store) Close() error {
	return s.db.Close()
}

// Tx runs fn against collections bound to one transaction. It commits when fn
// returns nil and rolls back otherwise.
func (s *Store) Tx(ctx context.Context, fn func(Collections) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StoreIOError{Op: "begin", Collection: "tx", Err: err}
	}
	defer tx.Rollback()

	if err := fn(bind(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &StoreIOError{Op: "commit", Collection: "tx", Err: err}
	}
	return nil
}
