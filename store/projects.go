package store

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Project groups sessions under one working tree.
type Project struct {
	ID          string
	Name        string
	Description string
	RootPath    string
	PreviewURL  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateProject inserts a new project row.
func (s *Store) CreateProject(ctx context.Context, p Project) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`INSERT INTO projects (id, name, description, root_path, preview_url, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				p.ID, p.Name, p.Description, p.RootPath, p.PreviewURL,
				formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
			}})
		if err != nil {
			return fmt.Errorf("store: create project %s: %w", p.ID, err)
		}
		return nil
	})
}

// GetProject returns the project with the given id, or ErrNotFound.
func (s *Store) GetProject(ctx context.Context, id string) (Project, error) {
	var p Project
	found := false
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id, name, description, root_path, preview_url, created_at, updated_at
			 FROM projects WHERE id = ?`,
			&sqlitex.ExecOptions{
				Args: []any{id},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					p = scanProject(stmt)
					found = true
					return nil
				},
			})
	})
	if err != nil {
		return Project{}, fmt.Errorf("store: get project %s: %w", id, err)
	}
	if !found {
		return Project{}, fmt.Errorf("store: project %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// FindProjectByRoot returns the project rooted at rootPath, or
// ErrNotFound.
func (s *Store) FindProjectByRoot(ctx context.Context, rootPath string) (Project, error) {
	var p Project
	found := false
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id, name, description, root_path, preview_url, created_at, updated_at
			 FROM projects WHERE root_path = ?`,
			&sqlitex.ExecOptions{
				Args: []any{rootPath},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					p = scanProject(stmt)
					found = true
					return nil
				},
			})
	})
	if err != nil {
		return Project{}, fmt.Errorf("store: find project by root %s: %w", rootPath, err)
	}
	if !found {
		return Project{}, fmt.Errorf("store: project at %s: %w", rootPath, ErrNotFound)
	}
	return p, nil
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id, name, description, root_path, preview_url, created_at, updated_at
			 FROM projects ORDER BY name ASC`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					projects = append(projects, scanProject(stmt))
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	return projects, nil
}

// DeleteProject removes the project. Sessions referencing it keep
// running with a cleared project id.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`DELETE FROM projects WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{id}})
		if err != nil {
			return fmt.Errorf("store: delete project %s: %w", id, err)
		}
		return nil
	})
}

func scanProject(stmt *sqlite.Stmt) Project {
	return Project{
		ID:          stmt.ColumnText(0),
		Name:        stmt.ColumnText(1),
		Description: stmt.ColumnText(2),
		RootPath:    stmt.ColumnText(3),
		PreviewURL:  stmt.ColumnText(4),
		CreatedAt:   parseTime(stmt.ColumnText(5)),
		UpdatedAt:   parseTime(stmt.ColumnText(6)),
	}
}
