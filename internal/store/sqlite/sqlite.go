package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/telemeet/signal-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session    TEXT NOT NULL,
	sender     TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session, id);
`

// SQLiteStore implements store.Store on SQLite. With the default ":memory:"
// DSN the history lives and dies with the process.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the database at dsn and applies the schema.
func New(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; this also keeps an
	// in-memory database from vanishing between pooled connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendMessage records a message and returns it with the assigned ID.
func (s *SQLiteStore) AppendMessage(ctx context.Context, m store.Message) (store.Message, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session, sender, text, created_at) VALUES (?, ?, ?, ?)`,
		m.Session, m.Sender, m.Text, m.CreatedAt,
	)
	if err != nil {
		return store.Message{}, fmt.Errorf("insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return store.Message{}, fmt.Errorf("get last insert id: %w", err)
	}
	m.ID = id
	return m, nil
}

// ListMessages returns a session's history ordered by insertion.
func (s *SQLiteStore) ListMessages(ctx context.Context, session string) ([]store.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session, sender, text, created_at FROM messages WHERE session = ? ORDER BY id`,
		session,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []store.Message
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.Session, &m.Sender, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

// DeleteSession drops every message recorded for the session.
func (s *SQLiteStore) DeleteSession(ctx context.Context, session string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session = ?`, session); err != nil {
		return fmt.Errorf("delete session messages: %w", err)
	}
	return nil
}
