package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/telemeet/signal-server/internal/metrics"
)

// Hub coordinates sessions, connections, and event routing. Each registered
// client gets its own dispatch goroutine; shared state lives behind the
// registry and directory, never in the hub loop itself.
type Hub struct {
	registry     *Registry
	directory    *Directory
	metrics      *metrics.Metrics
	log          *zerolog.Logger
	pingInterval time.Duration

	mu      sync.Mutex
	ctx     context.Context
	clients map[*Client]struct{}
}

// NewHub creates a hub around the given registry. metrics may be nil.
func NewHub(reg *Registry, m *metrics.Metrics, logger *zerolog.Logger, pingInterval time.Duration) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		registry:     reg,
		directory:    NewDirectory(),
		metrics:      m,
		log:          logger,
		pingInterval: pingInterval,
		ctx:          context.Background(),
		clients:      make(map[*Client]struct{}),
	}
}

// Run blocks until ctx is cancelled, then terminates every live connection.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()

	<-ctx.Done()

	h.mu.Lock()
	live := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		live = append(live, c)
	}
	h.mu.Unlock()

	for _, c := range live {
		c.Kick()
	}
}

func (h *Hub) runCtx() context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctx
}

// RegisterClient starts dispatch and liveness for a new connection.
func (h *Hub) RegisterClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.ConnOpened()
	h.log.Debug().Str("conn_id", c.ID).Msg("client registered")

	go h.serveClient(c)
	go h.monitorLiveness(c)
}

// UnregisterClient is the teardown path for a transport disconnect. It is
// idempotent: a second call for the same client does nothing.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	_, live := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !live {
		return
	}

	if session, identity := c.Binding(); session != "" {
		h.leave(c, session, identity)
	}
	c.markDone()
	h.metrics.ConnClosed()
	h.log.Debug().Str("conn_id", c.ID).Msg("client unregistered")
}

func (h *Hub) serveClient(c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			h.dispatch(c, cmd)
		case <-c.Done():
			return
		}
	}
}

func (h *Hub) dispatch(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinSession:
		h.handleJoin(c, cmd)
	case CommandSendSignal:
		h.handleSignal(c, cmd)
	case CommandSendMessage:
		h.handleMessage(c, cmd)
	case CommandPong:
		h.handlePong(c)
	default:
		h.log.Warn().Str("conn_id", c.ID).Int("kind", int(cmd.Kind)).Msg("unknown command")
	}
}

func (h *Hub) handleJoin(c *Client, cmd *Command) {
	// A connection holds at most one binding; joining elsewhere leaves the
	// old session first. A repeat of the current join is overwritten in
	// place by the registry, so the session and its history survive.
	if session, identity := c.Binding(); session != "" && (session != cmd.Session || identity != cmd.Identity) {
		h.leave(c, session, identity)
	}

	res, err := h.registry.Join(h.runCtx(), cmd.Session, cmd.Identity, c)
	switch {
	case errors.Is(err, ErrInvalidArgument):
		// An unidentified peer cannot be trusted with an error event.
		h.metrics.JoinRejected(ErrCodeInvalidArgument)
		h.log.Warn().Str("conn_id", c.ID).Str("session", cmd.Session).Str("identity", cmd.Identity).Msg("invalid join, terminating connection")
		c.Kick()
		return
	case errors.Is(err, ErrSessionFull):
		h.metrics.JoinRejected(ErrCodeSessionFull)
		c.send(&Event{Kind: EventRoomFull, Session: cmd.Session})
		return
	case err != nil:
		h.log.Error().Err(err).Str("session", cmd.Session).Msg("join failed")
		return
	}

	if displaced := h.directory.Bind(cmd.Session, cmd.Identity, c); displaced != nil {
		displaced.send(&Event{Kind: EventDuplicateConnection, Session: cmd.Session, User: cmd.Identity})
		displaced.clearBinding()
		h.log.Info().Str("session", cmd.Session).Str("identity", cmd.Identity).Str("old_conn", displaced.ID).Str("new_conn", c.ID).Msg("identity displaced")
	}
	c.setBinding(cmd.Session, cmd.Identity)

	if res.Created {
		h.metrics.SessionOpened()
	}

	c.send(&Event{
		Kind:         EventSessionInfo,
		Session:      cmd.Session,
		Status:       res.Status,
		Participants: res.Others,
		Messages:     res.History,
	})
	h.registry.BroadcastToSession(cmd.Session, &Event{
		Kind:    EventUserJoined,
		Session: cmd.Session,
		User:    cmd.Identity,
	}, c)
	if res.Started {
		h.registry.BroadcastToSession(cmd.Session, &Event{
			Kind:    EventMeetingStarted,
			Session: cmd.Session,
			Status:  StatusActive,
		}, nil)
	}

	h.log.Info().Str("session", cmd.Session).Str("identity", cmd.Identity).Str("conn_id", c.ID).Msg("participant joined")
}

func (h *Hub) handleSignal(c *Client, cmd *Command) {
	session, identity := c.Binding()
	if session == "" {
		c.send(&Event{Kind: EventSignalError, Error: coreError(ErrCodeNotInSession, "join a session before signaling")})
		return
	}

	target, err := h.registry.LookupTarget(session, cmd.Target)
	if err != nil {
		code := ErrCodeTargetNotFound
		if errors.Is(err, ErrSessionNotFound) {
			code = ErrCodeSessionNotFound
		}
		c.send(&Event{Kind: EventSignalError, Session: session, Error: coreError(code, fmt.Sprintf("cannot reach %q: %v", cmd.Target, err))})
		return
	}

	// The payload passes through untouched; its contents are the peers'
	// business.
	target.send(&Event{Kind: EventSignal, Session: session, User: identity, Payload: cmd.Payload})
	h.metrics.SignalRelayed()
}

func (h *Hub) handleMessage(c *Client, cmd *Command) {
	session, identity := c.Binding()
	if session == "" {
		c.send(&Event{Kind: EventMessageError, Error: coreError(ErrCodeNotInSession, "join a session before chatting")})
		return
	}

	rec, err := h.registry.AppendMessage(h.runCtx(), session, Message{From: identity, Text: cmd.Text})
	if err != nil {
		code := ErrCodeBadRequest
		if errors.Is(err, ErrSessionNotFound) {
			code = ErrCodeSessionNotFound
		}
		h.log.Warn().Err(err).Str("session", session).Msg("append message")
		c.send(&Event{Kind: EventMessageError, Session: session, Error: coreError(code, err.Error())})
		return
	}

	h.registry.BroadcastToSession(session, &Event{Kind: EventMessage, Session: session, User: identity, Message: rec}, nil)
	h.metrics.MessageBroadcast()
}

func (h *Hub) handlePong(c *Client) {
	c.TouchLiveness()
	h.log.Debug().Str("conn_id", c.ID).Msg("pong")
}

// leave removes the client's binding, tells remaining peers, and retires the
// session when it empties. Safe against already-absent state.
func (h *Hub) leave(c *Client, session, identity string) {
	removed, emptied := h.registry.Leave(h.runCtx(), session, identity, c)
	h.directory.Unbind(session, identity, c)
	c.clearBinding()

	if removed {
		h.registry.BroadcastToSession(session, &Event{
			Kind:    EventUserLeft,
			Session: session,
			User:    identity,
		}, nil)
		h.log.Info().Str("session", session).Str("identity", identity).Msg("participant left")
	}
	if emptied {
		h.metrics.SessionClosed()
		h.log.Info().Str("session", session).Msg("session retired")
	}
}
