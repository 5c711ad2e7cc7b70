package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
)

const sqliteSchema = `CREATE TABLE entries (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLite writes each database as a single-table SQLite file named
// <name>.sqlite, for consumers without a cdb reader.
type SQLite struct {
	Dir string
}

func NewSQLite(dir string) *SQLite {
	return &SQLite{Dir: dir}
}

func (s *SQLite) Path(name string) string {
	return filepath.Join(s.Dir, name+".sqlite")
}

// Build writes into a temporary file and renames it over the previous
// database, so readers never see a half-built file.
func (s *SQLite) Build(ctx context.Context, name string, entries []Entry) error {
	if err := validate(entries); err != nil {
		return err
	}

	target := s.Path(name)
	tmp := target + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale temp database: %w", err)
	}

	if err := s.write(ctx, tmp, entries); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace database: %w", err)
	}
	return nil
}

func (s *SQLite) write(ctx context.Context, path string, entries []Entry) error {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", path)
	if err != nil {
		return fmt.Errorf("open sqlite database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO entries (key, value) VALUES (:key, :value)`, e); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %q: %w", e.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Lookup reads one value back from a database built by Build.
func (s *SQLite) Lookup(ctx context.Context, name, key string) (string, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", "file:"+s.Path(name)+"?mode=ro")
	if err != nil {
		return "", fmt.Errorf("open sqlite database: %w", err)
	}
	defer db.Close()

	var value string
	if err := db.GetContext(ctx, &value, `SELECT value FROM entries WHERE key = ?`, key); err != nil {
		return "", fmt.Errorf("lookup %q: %w", key, err)
	}
	return value, nil
}
