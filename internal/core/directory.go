package core

import "sync"

type dirKey struct {
	session  string
	identity string
}

// Directory maps a participant identity, scoped to its session, to the live
// connection currently claiming it. Identities are client-supplied and not
// authenticated; the last writer wins.
type Directory struct {
	mu       sync.Mutex
	bindings map[dirKey]*Client
}

// NewDirectory constructs an empty connection directory.
func NewDirectory() *Directory {
	return &Directory{bindings: make(map[dirKey]*Client)}
}

// Bind installs c as the connection for identity within session. If a
// different live connection already held the identity it is returned so the
// coordinator can notify it; its binding is removed first.
func (d *Directory) Bind(session, identity string, c *Client) (displaced *Client) {
	key := dirKey{session: session, identity: identity}
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.bindings[key]; ok && prev != c {
		displaced = prev
	}
	d.bindings[key] = c
	return displaced
}

// Resolve returns the connection currently bound to identity within session.
func (d *Directory) Resolve(session, identity string) (*Client, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.bindings[dirKey{session: session, identity: identity}]
	return c, ok
}

// Unbind removes the binding for identity within session, but only while it
// still points at c. A displaced connection disconnecting later must not tear
// down its replacement's binding.
func (d *Directory) Unbind(session, identity string, c *Client) bool {
	key := dirKey{session: session, identity: identity}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bindings[key] != c {
		return false
	}
	delete(d.bindings, key)
	return true
}
