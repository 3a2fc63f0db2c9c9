package core

import (
	"sync"
	"time"
)

// Client is one live transport-level connection as seen by the core layer.
// The transport owns the underlying socket; the core holds only this handle.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	mu       sync.Mutex
	identity string
	session  string
	lastSeen time.Time

	done     chan struct{}
	doneOnce sync.Once
	kicked   chan struct{}
	kickOnce sync.Once
}

// NewClient constructs a client handle with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 32),
		done:     make(chan struct{}),
		kicked:   make(chan struct{}),
		lastSeen: time.Now(),
	}
}

// Binding returns the session and identity the client is currently joined under.
// Both are empty while the client is unbound.
func (c *Client) Binding() (session, identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session, c.identity
}

func (c *Client) setBinding(session, identity string) {
	c.mu.Lock()
	c.session = session
	c.identity = identity
	c.mu.Unlock()
}

func (c *Client) clearBinding() {
	c.setBinding("", "")
}

// TouchLiveness records client activity for liveness bookkeeping.
func (c *Client) TouchLiveness() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

// LastSeen reports the time of the client's most recent activity.
func (c *Client) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Kick asks the transport to terminate the connection. Safe to call twice.
func (c *Client) Kick() {
	c.kickOnce.Do(func() { close(c.kicked) })
}

// Kicked is closed once the core decides the connection must be terminated.
func (c *Client) Kicked() <-chan struct{} {
	return c.kicked
}

// Done is closed when the client is unregistered from the hub.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) markDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

// send delivers an event without blocking. Slow consumers lose events;
// a full snapshot is always available to a re-joining client.
func (c *Client) send(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
