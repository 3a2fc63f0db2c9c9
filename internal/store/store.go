package store

import (
	"context"
	"time"
)

// Message is a recorded chat message belonging to a session's history.
type Message struct {
	ID        int64
	Session   string
	Sender    string
	Text      string
	CreatedAt time.Time
}

// Store persists session message history for the lifetime of the process.
// The default backing is an in-memory database, so history is lost on
// restart; that is a scope decision, not an accident.
type Store interface {
	// AppendMessage records a message and returns it with its assigned ID.
	AppendMessage(ctx context.Context, m Message) (Message, error)

	// ListMessages returns a session's history in append order.
	ListMessages(ctx context.Context, session string) ([]Message, error)

	// DeleteSession drops a session's entire history.
	DeleteSession(ctx context.Context, session string) error

	// Close releases the underlying database.
	Close() error
}
