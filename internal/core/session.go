package core

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Session groups participants exchanging signaling and chat under one name.
//
// All fields except name and capacity are guarded by mu. The registry owns
// map membership: a session marked defunct has been removed from the registry
// and must not be mutated further.
type Session struct {
	name     string
	capacity int // 0 means unbounded

	// mu also serializes join/leave/append for this session, so capacity
	// checks and history order cannot race across participants.
	mu           sync.Mutex
	defunct      bool
	status       SessionStatus
	participants map[string]*Client
}

func newSession(name string, capacity int) *Session {
	return &Session{
		name:         name,
		capacity:     capacity,
		status:       StatusWaiting,
		participants: make(map[string]*Client),
	}
}

// otherParticipants lists every bound identity except the given one, sorted
// for deterministic snapshots. Caller holds mu.
func (s *Session) otherParticipants(except string) []string {
	others := lo.Without(lo.Keys(s.participants), except)
	sort.Strings(others)
	return others
}

// broadcast delivers an event to every participant connection except the
// excluded one. Sends never block; slow consumers drop. Caller holds mu.
func (s *Session) broadcast(ev *Event, except *Client) {
	for _, c := range s.participants {
		if c == except {
			continue
		}
		c.send(ev)
	}
}
