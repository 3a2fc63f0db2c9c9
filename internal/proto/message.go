package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin   = "join"
	InboundTypeSignal = "signal"
	InboundTypeMsg    = "msg"
	InboundTypePong   = "pong"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Outbound event names.
const (
	EventSessionInfo         = "session-info"
	EventUserJoined          = "user-joined"
	EventUserLeft            = "user-left"
	EventMeetingStarted      = "meeting-started"
	EventSignal              = "signal"
	EventMessage             = "message"
	EventSignalError         = "signal-error"
	EventMessageError        = "message-error"
	EventDuplicateConnection = "duplicate-connection"
	EventRoomFull            = "room-full"
	EventPing                = "ping"
)

// JoinData binds the connection to a session under an identity.
type JoinData struct {
	Session  string `json:"session"`
	Identity string `json:"identity"`
}

// SignalData asks the server to relay an opaque payload to one peer.
type SignalData struct {
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

// MsgData is a chat message from the client.
type MsgData struct {
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// SessionInfoData is the snapshot sent to a participant on join.
type SessionInfoData struct {
	Session      string        `json:"session"`
	Status       string        `json:"status"`
	Participants []string      `json:"participants"`
	Messages     []MessageData `json:"messages"`
}

// PresenceData names the participant a presence event concerns.
type PresenceData struct {
	Session  string `json:"session"`
	Identity string `json:"identity"`
}

// SignalEventData carries a relayed payload plus its sender.
type SignalEventData struct {
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// MessageData is a chat message as delivered to clients.
type MessageData struct {
	From string `json:"from"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// ErrorEventData is the payload of signal-error and message-error events.
type ErrorEventData struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
