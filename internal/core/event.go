package core

import "encoding/json"

// SessionStatus describes whether a session is still waiting for peers.
type SessionStatus string

const (
	// StatusWaiting means the session has not yet reached capacity.
	StatusWaiting SessionStatus = "waiting"
	// StatusActive means the session reached capacity at least once.
	// Active is sticky: later departures do not revert it.
	StatusActive SessionStatus = "active"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventSessionInfo delivers the session snapshot to a new joiner.
	EventSessionInfo EventKind = iota
	// EventUserJoined notifies peers about a participant joining.
	EventUserJoined
	// EventUserLeft notifies peers about a participant leaving.
	EventUserLeft
	// EventMeetingStarted notifies all participants that the session reached capacity.
	EventMeetingStarted
	// EventSignal carries a relayed negotiation payload to its target.
	EventSignal
	// EventMessage notifies participants about a chat message.
	EventMessage
	// EventSignalError reports a relay failure back to the sender.
	EventSignalError
	// EventMessageError reports a chat delivery failure back to the sender.
	EventMessageError
	// EventDuplicateConnection tells a displaced connection it was replaced.
	EventDuplicateConnection
	// EventRoomFull rejects a join against a session at capacity.
	EventRoomFull
	// EventPing is an advisory liveness probe.
	EventPing
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind         EventKind
	Session      string
	User         string // identity the event concerns: joiner, leaver, or sender
	Payload      json.RawMessage
	Message      Message
	Messages     []Message // for EventSessionInfo
	Participants []string  // for EventSessionInfo
	Status       SessionStatus
	Error        *CoreError // for EventSignalError / EventMessageError
}
