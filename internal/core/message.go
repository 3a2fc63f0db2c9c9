package core

import "time"

// Message is the domain model for a chat message exchanged in a session.
type Message struct {
	ID        int64
	Session   string
	From      string
	Text      string
	CreatedAt time.Time
}
