// Package store persists Wingman sessions, messages, projects, and
// file activity in SQLite.
//
// The claude package never touches this store directly; the daemon
// wires stream events to it. All timestamps are stored as RFC 3339
// UTC strings.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Config holds the parameters for opening a store.
type Config struct {
	// Path is the SQLite database file. The parent directory is
	// created if missing. ":memory:" opens an in-memory database
	// (pool size must be 1, each in-memory connection is independent).
	Path string

	// PoolSize is the number of connections. Zero or negative uses 4.
	PoolSize int

	// Logger receives operational messages. Nil discards them.
	Logger *slog.Logger
}

// Store is a SQLite-backed repository. Safe for concurrent use; each
// call borrows its own connection from the pool.
type Store struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
}

// Open creates the connection pool, applies pragmas, and runs the
// schema migration. The caller must Close the store when done.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create data directory: %w", err)
		}
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConn,
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", cfg.Path, err)
	}

	s := &Store{pool: pool, logger: logger}
	if err := s.migrate(context.Background()); err != nil {
		_ = pool.Close()
		return nil, err
	}

	logger.Info("store opened", "path", cfg.Path, "pool_size", poolSize)
	return s, nil
}

// Close closes all connections. Blocks until borrowed connections are
// returned.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// prepareConn applies standard pragmas once per pooled connection.
func prepareConn(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
		return nil
	})
}

// withConn borrows a connection for the duration of fn.
func (s *Store) withConn(ctx context.Context, fn func(*sqlite.Conn) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: take connection: %w", err)
	}
	defer s.pool.Put(conn)
	return fn(conn)
}

// SetSetting stores a key/value pair, replacing any existing value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			&sqlitex.ExecOptions{Args: []any{key, value}})
	})
}

// GetSetting returns the value for key, or ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	found := false
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT value FROM settings WHERE key = ?`,
			&sqlitex.ExecOptions{
				Args: []any{key},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					value = stmt.ColumnText(0)
					found = true
					return nil
				},
			})
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("store: setting %q: %w", key, ErrNotFound)
	}
	return value, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
