package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/FACorreiaa/go-todo-api/internal/types"
)

// Session is the authenticated state kept between client runs.
type Session struct {
	Token string
	User  types.PublicUser
}

// SessionStore persists at most one session.
type SessionStore interface {
	// Load returns (nil, nil) when no session is stored.
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
	Close() error
}

var _ SessionStore = (*SQLiteSessionStore)(nil)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS session (
  id         INTEGER PRIMARY KEY CHECK (id = 1),
  token      TEXT NOT NULL,
  user_id    TEXT NOT NULL,
  user_name  TEXT NOT NULL,
  user_email TEXT NOT NULL
);`

type SQLiteSessionStore struct {
	db *sql.DB
}

// OpenSQLiteSessionStore opens (creating if needed) the session database at path.
func OpenSQLiteSessionStore(ctx context.Context, path string) (*SQLiteSessionStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}
	if _, err = db.ExecContext(ctx, sessionSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create session table: %w", err)
	}
	return &SQLiteSessionStore{db: db}, nil
}

func (s *SQLiteSessionStore) Load(ctx context.Context) (*Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, user_name, user_email FROM session WHERE id = 1`,
	).Scan(&sess.Token, &sess.User.ID, &sess.User.Name, &sess.User.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &sess, nil
}

func (s *SQLiteSessionStore) Save(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (id, token, user_id, user_name, user_email) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			user_name = excluded.user_name,
			user_email = excluded.user_email
	`, sess.Token, sess.User.ID, sess.User.Name, sess.User.Email)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) Close() error {
	return s.db.Close()
}
