package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectoryBindDisplacesPreviousConnection(t *testing.T) {
	d := NewDirectory()
	a, b := NewClient("a"), NewClient("b")

	assert.Nil(t, d.Bind("r1", "alice", a))
	assert.Same(t, a, d.Bind("r1", "alice", b), "previous holder is reported for notification")

	got, ok := d.Resolve("r1", "alice")
	assert.True(t, ok)
	assert.Same(t, b, got)

	// Rebinding the same connection is not a displacement.
	assert.Nil(t, d.Bind("r1", "alice", b))
}

func TestDirectoryIsSessionScoped(t *testing.T) {
	d := NewDirectory()
	a, b := NewClient("a"), NewClient("b")

	assert.Nil(t, d.Bind("r1", "alice", a))
	assert.Nil(t, d.Bind("r2", "alice", b), "same identity in another session does not collide")
}

func TestDirectoryUnbindGuardsCurrentHolder(t *testing.T) {
	d := NewDirectory()
	a, b := NewClient("a"), NewClient("b")

	d.Bind("r1", "alice", a)
	d.Bind("r1", "alice", b)

	// The displaced connection's teardown must not evict its replacement.
	assert.False(t, d.Unbind("r1", "alice", a))
	got, ok := d.Resolve("r1", "alice")
	assert.True(t, ok)
	assert.Same(t, b, got)

	assert.True(t, d.Unbind("r1", "alice", b))
	_, ok = d.Resolve("r1", "alice")
	assert.False(t, ok)
}
