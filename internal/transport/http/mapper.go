package http

import (
	"encoding/json"

	"github.com/telemeet/signal-server/internal/core"
	"github.com/telemeet/signal-server/internal/proto"
)

// inboundToCommand validates an inbound envelope and maps it to a core
// command. A non-nil proto.Error means the client gets an error envelope and
// the connection stays open. Join arguments are deliberately not checked
// here: the coordinator validates them and terminates the connection itself.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		// Absent or malformed join data leaves the fields empty and the
		// coordinator terminates the connection.
		var join proto.JoinData
		_ = decodeData(inbound.Data, &join)
		return &core.Command{
			Kind:     core.CommandJoinSession,
			Session:  join.Session,
			Identity: join.Identity,
		}, nil, nil
	case proto.InboundTypeSignal:
		var sig proto.SignalData
		if err := decodeData(inbound.Data, &sig); err != nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed signal data"}, nil
		}
		if sig.Target == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "target is required"}, nil
		}
		if len(sig.Payload) == 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "payload is required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandSendSignal,
			Target:  sig.Target,
			Payload: sig.Payload,
		}, nil, nil
	case proto.InboundTypeMsg:
		var msg proto.MsgData
		if err := decodeData(inbound.Data, &msg); err != nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed message data"}, nil
		}
		if msg.Text == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandSendMessage,
			Text: msg.Text,
		}, nil, nil
	case proto.InboundTypePong:
		return &core.Command{Kind: core.CommandPong}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

// decodeData unmarshals an envelope's data field. An absent or null field is
// left zero valued so the required-field checks report what is missing.
func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventSessionInfo:
		messages := make([]proto.MessageData, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, messageData(msg))
		}
		participants := event.Participants
		if participants == nil {
			participants = []string{}
		}
		return eventOutbound(proto.EventSessionInfo, proto.SessionInfoData{
			Session:      event.Session,
			Status:       string(event.Status),
			Participants: participants,
			Messages:     messages,
		})
	case core.EventUserJoined:
		return eventOutbound(proto.EventUserJoined, presenceData(event))
	case core.EventUserLeft:
		return eventOutbound(proto.EventUserLeft, presenceData(event))
	case core.EventMeetingStarted:
		return eventOutbound(proto.EventMeetingStarted, proto.PresenceData{Session: event.Session})
	case core.EventSignal:
		return eventOutbound(proto.EventSignal, proto.SignalEventData{
			From:    event.User,
			Payload: event.Payload,
		})
	case core.EventMessage:
		return eventOutbound(proto.EventMessage, messageData(event.Message))
	case core.EventSignalError:
		return eventOutbound(proto.EventSignalError, errorData(event))
	case core.EventMessageError:
		return eventOutbound(proto.EventMessageError, errorData(event))
	case core.EventDuplicateConnection:
		return eventOutbound(proto.EventDuplicateConnection, presenceData(event))
	case core.EventRoomFull:
		return eventOutbound(proto.EventRoomFull, proto.PresenceData{Session: event.Session})
	case core.EventPing:
		return eventOutbound(proto.EventPing, nil)
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventOutbound(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func presenceData(event *core.Event) proto.PresenceData {
	return proto.PresenceData{Session: event.Session, Identity: event.User}
}

func messageData(msg core.Message) proto.MessageData {
	return proto.MessageData{
		From: msg.From,
		Text: msg.Text,
		TS:   msg.CreatedAt.Unix(),
	}
}

func errorData(event *core.Event) proto.ErrorEventData {
	data := proto.ErrorEventData{Code: "unknown", Reason: "unknown error"}
	if event.Error != nil {
		data.Code = event.Error.Code
		data.Reason = event.Error.Message
	}
	return data
}
