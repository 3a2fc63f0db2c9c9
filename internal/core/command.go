package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinSession binds the client to a session under an identity.
	CommandJoinSession CommandKind = iota
	// CommandSendSignal relays an opaque negotiation payload to one peer.
	CommandSendSignal
	// CommandSendMessage delivers a chat message to session participants.
	CommandSendMessage
	// CommandPong acknowledges a liveness probe.
	CommandPong
)

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	Session  string
	Identity string
	Target   string
	Payload  json.RawMessage
	Text     string
}
