package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is one persisted conversation.
type Session struct {
	ID               string
	Title            string
	WorkingDirectory string
	ProjectID        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Message is one persisted chat message.
type Message struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	// ToolUsage is an optional JSON array describing tool calls made
	// while producing the message.
	ToolUsage json.RawMessage
	CreatedAt time.Time
}

// CreateSession inserts a new session row.
func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	var projectID any
	if sess.ProjectID != nil {
		projectID = *sess.ProjectID
	}
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`INSERT INTO sessions (id, title, working_directory, project_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				sess.ID, sess.Title, sess.WorkingDirectory, projectID,
				formatTime(sess.CreatedAt), formatTime(sess.UpdatedAt),
			}})
		if err != nil {
			return fmt.Errorf("store: create session %s: %w", sess.ID, err)
		}
		return nil
	})
}

// GetSession returns the session with the given id, or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	found := false
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id, title, working_directory, project_id, created_at, updated_at
			 FROM sessions WHERE id = ?`,
			&sqlitex.ExecOptions{
				Args: []any{id},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					sess = scanSession(stmt)
					found = true
					return nil
				},
			})
	})
	if err != nil {
		return Session{}, fmt.Errorf("store: get session %s: %w", id, err)
	}
	if !found {
		return Session{}, fmt.Errorf("store: session %s: %w", id, ErrNotFound)
	}
	return sess, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id, title, working_directory, project_id, created_at, updated_at
			 FROM sessions ORDER BY updated_at DESC`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					sessions = append(sessions, scanSession(stmt))
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	return sessions, nil
}

// TouchSession bumps the session's updated_at timestamp.
func (s *Store) TouchSession(ctx context.Context, id string, at time.Time) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`UPDATE sessions SET updated_at = ? WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{formatTime(at), id}})
		if err != nil {
			return fmt.Errorf("store: touch session %s: %w", id, err)
		}
		return nil
	})
}

// DeleteSession removes the session and, via cascade, its messages
// and activity. A no-op when the session does not exist.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`DELETE FROM sessions WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{id}})
		if err != nil {
			return fmt.Errorf("store: delete session %s: %w", id, err)
		}
		return nil
	})
}

// AppendMessage inserts a message and bumps the session timestamp.
func (s *Store) AppendMessage(ctx context.Context, msg Message) error {
	var toolUsage any
	if len(msg.ToolUsage) > 0 {
		toolUsage = string(msg.ToolUsage)
	}
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`INSERT INTO messages (id, session_id, role, content, tool_usage, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				msg.ID, msg.SessionID, msg.Role, msg.Content, toolUsage,
				formatTime(msg.CreatedAt),
			}})
		if err != nil {
			return fmt.Errorf("store: append message %s: %w", msg.ID, err)
		}
		err = sqlitex.Execute(conn,
			`UPDATE sessions SET updated_at = ? WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{formatTime(msg.CreatedAt), msg.SessionID}})
		if err != nil {
			return fmt.Errorf("store: touch session %s: %w", msg.SessionID, err)
		}
		return nil
	})
}

// Messages returns the session's messages in insertion order.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	var messages []Message
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id, session_id, role, content, tool_usage, created_at
			 FROM messages WHERE session_id = ? ORDER BY created_at ASC, id ASC`,
			&sqlitex.ExecOptions{
				Args: []any{sessionID},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					msg := Message{
						ID:        stmt.ColumnText(0),
						SessionID: stmt.ColumnText(1),
						Role:      stmt.ColumnText(2),
						Content:   stmt.ColumnText(3),
						CreatedAt: parseTime(stmt.ColumnText(5)),
					}
					if !stmt.ColumnIsNull(4) {
						msg.ToolUsage = json.RawMessage(stmt.ColumnText(4))
					}
					messages = append(messages, msg)
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("store: messages for %s: %w", sessionID, err)
	}
	return messages, nil
}

func scanSession(stmt *sqlite.Stmt) Session {
	sess := Session{
		ID:               stmt.ColumnText(0),
		Title:            stmt.ColumnText(1),
		WorkingDirectory: stmt.ColumnText(2),
		CreatedAt:        parseTime(stmt.ColumnText(4)),
		UpdatedAt:        parseTime(stmt.ColumnText(5)),
	}
	if !stmt.ColumnIsNull(3) {
		projectID := stmt.ColumnText(3)
		sess.ProjectID = &projectID
	}
	return sess
}
