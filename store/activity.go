package store

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Activity is one recorded file change inside a session's working
// directory.
type Activity struct {
	ID        string
	SessionID string
	Path      string
	Operation string // created, modified, deleted
	Source    string // claude, external
	Timestamp time.Time
}

// RecordActivity inserts an activity row.
func (s *Store) RecordActivity(ctx context.Context, a Activity) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`INSERT INTO activity_log (id, session_id, path, operation, source, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				a.ID, a.SessionID, a.Path, a.Operation, a.Source,
				formatTime(a.Timestamp),
			}})
		if err != nil {
			return fmt.Errorf("store: record activity %s: %w", a.ID, err)
		}
		return nil
	})
}

// ActivityForSession returns the most recent activity rows for a
// session, newest first. A non-positive limit returns everything.
func (s *Store) ActivityForSession(ctx context.Context, sessionID string, limit int) ([]Activity, error) {
	query := `SELECT id, session_id, path, operation, source, timestamp
	          FROM activity_log WHERE session_id = ? ORDER BY timestamp DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var entries []Activity
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entries = append(entries, Activity{
					ID:        stmt.ColumnText(0),
					SessionID: stmt.ColumnText(1),
					Path:      stmt.ColumnText(2),
					Operation: stmt.ColumnText(3),
					Source:    stmt.ColumnText(4),
					Timestamp: parseTime(stmt.ColumnText(5)),
				})
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: activity for %s: %w", sessionID, err)
	}
	return entries, nil
}
