package core

import (
	"context"
	"sort"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/telemeet/signal-server/internal/store"
)

const maxNameLen = 64

// JoinResult is the snapshot handed to a participant that just joined.
type JoinResult struct {
	Others  []string
	History []Message
	Status  SessionStatus
	// Started is true when this join moved the session from waiting to
	// active. The transition happens at most once per session.
	Started bool
	// Created is true when this join brought the session into existence.
	Created bool
}

// SessionSummary describes one live session for operational listings.
type SessionSummary struct {
	Name         string        `json:"name"`
	Participants int           `json:"participants"`
	Status       SessionStatus `json:"status"`
}

// Registry owns the session map. Map membership is guarded by mu; each
// session serializes its own mutations, so operations on different sessions
// proceed concurrently.
type Registry struct {
	store    store.Store
	capacity int
	log      *zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry builds a registry. capacity bounds participants per session;
// 0 means unbounded.
func NewRegistry(st store.Store, capacity int, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Registry{
		store:    st,
		capacity: capacity,
		log:      logger,
		sessions: make(map[string]*Session),
	}
}

// acquire returns the named session with its mutex held. When create is
// false and the session does not exist, ErrSessionNotFound is returned.
// A session observed mid-deletion is retried against the fresh map state.
func (r *Registry) acquire(name string, create bool) (s *Session, created bool, err error) {
	for {
		r.mu.Lock()
		s = r.sessions[name]
		created = false
		if s == nil {
			if !create {
				r.mu.Unlock()
				return nil, false, ErrSessionNotFound
			}
			s = newSession(name, r.capacity)
			r.sessions[name] = s
			created = true
		}
		r.mu.Unlock()

		s.mu.Lock()
		if s.defunct {
			s.mu.Unlock()
			continue
		}
		return s, created, nil
	}
}

// Join registers identity under the named session, creating the session on
// first use. It returns the other participants and the full message history
// so the joiner can sync state. A full session rejects the join without any
// mutation; an identity already present is overwritten in place.
func (r *Registry) Join(ctx context.Context, name, identity string, c *Client) (*JoinResult, error) {
	if !validName(name) || !validName(identity) {
		return nil, ErrInvalidArgument
	}

	s, created, err := r.acquire(name, true)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if _, rejoining := s.participants[identity]; !rejoining {
		if s.capacity > 0 && len(s.participants) >= s.capacity {
			return nil, ErrSessionFull
		}
	}

	s.participants[identity] = c

	res := &JoinResult{
		Others:  s.otherParticipants(identity),
		Status:  s.status,
		Created: created,
	}
	if s.capacity > 0 && len(s.participants) == s.capacity && s.status == StatusWaiting {
		s.status = StatusActive
		res.Status = StatusActive
		res.Started = true
	}

	history, err := r.listHistory(ctx, name)
	if err != nil {
		// A joiner with a partial snapshot beats a failed join.
		r.log.Error().Err(err).Str("session", name).Msg("load session history")
	}
	res.History = history

	return res, nil
}

// Leave removes identity from the session if it is still bound to c.
// When the last participant leaves, the session is deleted from the registry
// and its history is purged. Leaving an absent session or identity is a no-op.
func (r *Registry) Leave(ctx context.Context, name, identity string, c *Client) (removed, emptied bool) {
	s, _, err := r.acquire(name, false)
	if err != nil {
		return false, false
	}

	if s.participants[identity] != c {
		s.mu.Unlock()
		return false, false
	}
	delete(s.participants, identity)
	removed = true

	if len(s.participants) == 0 {
		s.defunct = true
		emptied = true
	}
	s.mu.Unlock()

	if emptied {
		r.mu.Lock()
		if r.sessions[name] == s {
			delete(r.sessions, name)
		}
		r.mu.Unlock()

		if r.store != nil {
			if err := r.store.DeleteSession(ctx, name); err != nil {
				r.log.Warn().Err(err).Str("session", name).Msg("purge session history")
			}
		}
	}
	return removed, emptied
}

// AppendMessage records a chat message with a server-assigned timestamp and
// returns the stored record for broadcast.
func (r *Registry) AppendMessage(ctx context.Context, name string, m Message) (Message, error) {
	s, _, err := r.acquire(name, false)
	if err != nil {
		return Message{}, err
	}
	defer s.mu.Unlock()

	m.Session = name
	m.CreatedAt = time.Now()

	if r.store == nil {
		return m, nil
	}
	rec, err := r.store.AppendMessage(ctx, store.Message{
		Session:   m.Session,
		Sender:    m.From,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	})
	if err != nil {
		return Message{}, err
	}
	m.ID = rec.ID
	return m, nil
}

// LookupTarget resolves identity to its connection within the named session
// only. The same identity living in a different session stays invisible.
func (r *Registry) LookupTarget(name, identity string) (*Client, error) {
	s, _, err := r.acquire(name, false)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	c, ok := s.participants[identity]
	if !ok {
		return nil, ErrTargetNotFound
	}
	return c, nil
}

// BroadcastToSession fans an event out to every connection in the session,
// optionally excluding one. Missing sessions are ignored.
func (r *Registry) BroadcastToSession(name string, ev *Event, except *Client) {
	s, _, err := r.acquire(name, false)
	if err != nil {
		return
	}
	defer s.mu.Unlock()
	s.broadcast(ev, except)
}

// Sessions lists live sessions sorted by name.
func (r *Registry) Sessions() []SessionSummary {
	r.mu.Lock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	out := make([]SessionSummary, 0, len(live))
	for _, s := range live {
		s.mu.Lock()
		if !s.defunct {
			out = append(out, SessionSummary{
				Name:         s.name,
				Participants: len(s.participants),
				Status:       s.status,
			})
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) listHistory(ctx context.Context, name string) ([]Message, error) {
	if r.store == nil {
		return nil, nil
	}
	recs, err := r.store.ListMessages(ctx, name)
	if err != nil {
		return nil, err
	}
	history := make([]Message, 0, len(recs))
	for _, rec := range recs {
		history = append(history, Message{
			ID:        rec.ID,
			Session:   rec.Session,
			From:      rec.Sender,
			Text:      rec.Text,
			CreatedAt: rec.CreatedAt,
		})
	}
	return history, nil
}

// validName accepts non-empty printable identifiers up to 64 bytes.
func validName(s string) bool {
	if s == "" || len(s) > maxNameLen || !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
