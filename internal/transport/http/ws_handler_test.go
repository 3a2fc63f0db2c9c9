package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/telemeet/signal-server/internal/config"
	"github.com/telemeet/signal-server/internal/core"
	"github.com/telemeet/signal-server/internal/proto"
	"github.com/telemeet/signal-server/internal/store/sqlite"
)

// outboundMsg mirrors proto.Outbound with raw data for test-side decoding.
type outboundMsg struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := zerolog.Nop()
	reg := core.NewRegistry(st, 2, &logger)
	hub := core.NewHub(reg, nil, &logger, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(hub, reg, nil, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

// readEvent reads outbound frames until it sees the named event, skipping
// liveness pings.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, name string) outboundMsg {
	t.Helper()

	for {
		var out outboundMsg
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("read while waiting for %s: %v", name, err)
		}
		if out.Type == proto.OutboundTypeEvent && out.Event == proto.EventPing {
			continue
		}
		if out.Type != proto.OutboundTypeEvent || out.Event != name {
			t.Fatalf("expected event %s, got %+v", name, out)
		}
		return out
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketSessionFlow(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts)
	connB := dialWS(t, ctx, ts)

	sendInbound(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Session: "r1", Identity: "p1"})
	infoOut := readEvent(t, ctx, connA, proto.EventSessionInfo)

	var info proto.SessionInfoData
	if err := json.Unmarshal(infoOut.Data, &info); err != nil {
		t.Fatalf("unmarshal session-info: %v", err)
	}
	if len(info.Participants) != 0 || len(info.Messages) != 0 || info.Status != string(core.StatusWaiting) {
		t.Fatalf("unexpected first snapshot: %+v", info)
	}

	sendInbound(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Session: "r1", Identity: "p2"})

	joinedOut := readEvent(t, ctx, connA, proto.EventUserJoined)
	var joined proto.PresenceData
	if err := json.Unmarshal(joinedOut.Data, &joined); err != nil {
		t.Fatalf("unmarshal user-joined: %v", err)
	}
	if joined.Identity != "p2" {
		t.Fatalf("unexpected joiner: %+v", joined)
	}
	readEvent(t, ctx, connA, proto.EventMeetingStarted)

	infoOut = readEvent(t, ctx, connB, proto.EventSessionInfo)
	if err := json.Unmarshal(infoOut.Data, &info); err != nil {
		t.Fatalf("unmarshal session-info: %v", err)
	}
	if len(info.Participants) != 1 || info.Participants[0] != "p1" || info.Status != string(core.StatusActive) {
		t.Fatalf("unexpected second snapshot: %+v", info)
	}
	readEvent(t, ctx, connB, proto.EventMeetingStarted)

	// Signal relay: opaque payload, sender identity attached.
	sendInbound(t, ctx, connA, proto.InboundTypeSignal, proto.SignalData{
		Target:  "p2",
		Payload: json.RawMessage(`{"type":"offer","sdp":"v=0"}`),
	})
	sigOut := readEvent(t, ctx, connB, proto.EventSignal)
	var sig proto.SignalEventData
	if err := json.Unmarshal(sigOut.Data, &sig); err != nil {
		t.Fatalf("unmarshal signal: %v", err)
	}
	if sig.From != "p1" || !strings.Contains(string(sig.Payload), `"sdp":"v=0"`) {
		t.Fatalf("unexpected signal payload: %+v", sig)
	}

	// Chat broadcast reaches both ends with a server timestamp.
	sendInbound(t, ctx, connA, proto.InboundTypeMsg, proto.MsgData{Text: "hi there"})
	for _, conn := range []*websocket.Conn{connA, connB} {
		msgOut := readEvent(t, ctx, conn, proto.EventMessage)
		var msg proto.MessageData
		if err := json.Unmarshal(msgOut.Data, &msg); err != nil {
			t.Fatalf("unmarshal message: %v", err)
		}
		if msg.From != "p1" || msg.Text != "hi there" || msg.TS == 0 {
			t.Fatalf("unexpected message: %+v", msg)
		}
	}

	// The REST surface sees the live session.
	resp, err := ts.Client().Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("sessions request failed: %v", err)
	}
	defer resp.Body.Close()
	var listing SessionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(listing.Sessions) != 1 || listing.Sessions[0].Name != "r1" || listing.Sessions[0].Participants != 2 {
		t.Fatalf("unexpected session listing: %+v", listing)
	}

	// Peer disconnect notifies the survivor.
	connB.Close(websocket.StatusNormalClosure, "bye")
	leftOut := readEvent(t, ctx, connA, proto.EventUserLeft)
	var left proto.PresenceData
	if err := json.Unmarshal(leftOut.Data, &left); err != nil {
		t.Fatalf("unmarshal user-left: %v", err)
	}
	if left.Identity != "p2" {
		t.Fatalf("unexpected leaver: %+v", left)
	}
}

func TestWebSocketInvalidJoinClosesConnection(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Session: "r1", Identity: ""})

	var out outboundMsg
	err := wsjson.Read(ctx, conn, &out)
	if err == nil {
		t.Fatalf("expected connection close, got frame: %+v", out)
	}
	if status := websocket.CloseStatus(err); status != websocket.StatusPolicyViolation {
		t.Fatalf("expected policy violation close, got %v (%v)", status, err)
	}
}

func TestWebSocketRoomFull(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, id := range []string{"p1", "p2"} {
		conn := dialWS(t, ctx, ts)
		sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Session: "crowded", Identity: id})
		readEvent(t, ctx, conn, proto.EventSessionInfo)
	}

	late := dialWS(t, ctx, ts)
	sendInbound(t, ctx, late, proto.InboundTypeJoin, proto.JoinData{Session: "crowded", Identity: "p3"})
	readEvent(t, ctx, late, proto.EventRoomFull)
}

func TestWebSocketErrorEnvelopes(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)

	// Unknown message types are rejected at the boundary.
	sendInbound(t, ctx, conn, "bogus", struct{}{})
	var out outboundMsg
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read error envelope: %v", err)
	}
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != "invalid_message" {
		t.Fatalf("unexpected envelope: %+v", out)
	}

	// A request missing its data gets an error envelope, not a close.
	if err := wsjson.Write(ctx, conn, map[string]string{"type": proto.InboundTypeMsg}); err != nil {
		t.Fatalf("send dataless msg: %v", err)
	}
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read error envelope: %v", err)
	}
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != core.ErrCodeBadRequest {
		t.Fatalf("unexpected envelope: %+v", out)
	}

	// Signaling before joining reports back to the sender only.
	sendInbound(t, ctx, conn, proto.InboundTypeSignal, proto.SignalData{
		Target:  "bob",
		Payload: json.RawMessage(`{}`),
	})
	errOut := readEvent(t, ctx, conn, proto.EventSignalError)
	var errData proto.ErrorEventData
	if err := json.Unmarshal(errOut.Data, &errData); err != nil {
		t.Fatalf("unmarshal error data: %v", err)
	}
	if errData.Code != core.ErrCodeNotInSession {
		t.Fatalf("unexpected error code: %+v", errData)
	}
}
