package registry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteBusyTimeout = 5 * time.Second

// SQLiteStore persists the registry in a single-connection sqlite database.
// Save replaces the full set of rows in one transaction so the backend
// keeps the same read-modify-write document semantics as the file store.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (and if needed creates) the registry database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("registry: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("registry: open sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", int(sqliteBusyTimeout.Milliseconds())),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("registry: apply pragma %q: %w", pragma, err)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS servers (
		name TEXT PRIMARY KEY,
		address TEXT NOT NULL,
		running INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: apply schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the backing database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load reads the full registry document.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, address, running FROM servers`)
	if err != nil {
		return nil, fmt.Errorf("load servers: %w", err)
	}
	defer rows.Close()

	servers := map[string]Record{}
	for rows.Next() {
		var name string
		var rec Record
		var running int
		if err := rows.Scan(&name, &rec.Address, &running); err != nil {
			return nil, fmt.Errorf("scan server: %w", err)
		}
		rec.Running = running != 0
		servers[name] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate servers: %w", err)
	}
	return servers, nil
}

// Save replaces the full registry document in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, servers map[string]Record) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM servers`); err != nil {
			return fmt.Errorf("clear servers: %w", err)
		}
		now := time.Now().UTC().Format(time.RFC3339Nano)
		for name, rec := range servers {
			running := 0
			if rec.Running {
				running = 1
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO servers (name, address, running, updated_at) VALUES (?, ?, ?, ?)`,
				name, rec.Address, running, now,
			)
			if err != nil {
				return fmt.Errorf("insert server %q: %w", name, err)
			}
		}
		return nil
	})
}

// Close finalises the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("registry: rollback failed after %v: %w", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}
