package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/haven-chat/haven/internal/metrics"
	"github.com/haven-chat/haven/internal/models"
	"github.com/haven-chat/haven/internal/store"
)

// Router dispatches inbound client events to the registry, the room index
// and the message store, and emits outbound events to the correct
// connection subset. Per connection the state machine is just Unbound →
// Bound (after join_identity); channel membership is orthogonal.
//
// Concurrent connections invoke the Router simultaneously. Registry and
// Rooms guard their own maps; on top of that the Router holds one mutex per
// channel covering Append plus the recipient enqueue, so two concurrent
// sends to the same channel are observed by every room member in a single
// order — the order their appends committed.
type Router struct {
	store    store.MessageStore
	registry *Registry
	rooms    *Rooms
	logger   zerolog.Logger

	mu       sync.Mutex
	channels map[string]*sync.Mutex
}

// NewRouter creates a router with its own registry and room index.
func NewRouter(st store.MessageStore, logger zerolog.Logger) *Router {
	return &Router{
		store:    st,
		registry: NewRegistry(),
		rooms:    NewRooms(),
		logger:   logger.With().Str("component", "relay").Logger(),
		channels: make(map[string]*sync.Mutex),
	}
}

// Connect acknowledges a freshly registered transport session.
func (rt *Router) Connect(c Conn) {
	c.Send(EventConnected, connectedEvent{SessionID: c.ID()})
	rt.logger.Info().Str("session", c.ID()).Msg("connection established")
}

// Disconnect tears down everything a session owned: room memberships first,
// firing the usual leave notifications, then the identity binding. Safe to
// call for sessions that never bound an identity.
func (rt *Router) Disconnect(c Conn) {
	user := rt.registry.Identity(c)
	for _, channelID := range rt.rooms.LeaveAll(c) {
		if user != nil {
			rt.broadcast(channelID, EventUserLeft, channelUserEvent{User: user, ChannelID: channelID}, nil)
		}
	}
	if left := rt.registry.Unbind(c); left != nil {
		for _, other := range rt.registry.Conns() {
			rt.deliver(other, EventUserDisconnected, userEvent{User: left})
		}
		rt.logger.Info().Str("session", c.ID()).Str("user", left.Username).Msg("user disconnected")
	}
}

// Dispatch routes one raw inbound frame. Any failure is answered with a
// scoped error event to c and nothing else; no other connection hears
// about it.
func (rt *Router) Dispatch(ctx context.Context, c Conn, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		rt.sendError(c, "malformed frame")
		return
	}
	metrics.EventsTotal.WithLabelValues(frame.Event).Inc()

	var err error
	switch frame.Event {
	case EventJoinIdentity:
		err = rt.handleJoinIdentity(c, frame.Data)
	case EventJoinChannel:
		err = rt.handleJoinChannel(ctx, c, frame.Data)
	case EventLeaveChannel:
		err = rt.handleLeaveChannel(c, frame.Data)
	case EventSendMessage:
		err = rt.handleSendMessage(ctx, c, frame.Data)
	case EventTypingStart:
		err = rt.handleTyping(c, frame.Data, true)
	case EventTypingStop:
		err = rt.handleTyping(c, frame.Data, false)
	default:
		err = fmt.Errorf("%w: unknown event %q", ErrBadPayload, frame.Event)
	}
	if err != nil {
		rt.logger.Debug().Err(err).Str("session", c.ID()).Str("event", frame.Event).Msg("event rejected")
		rt.sendError(c, err.Error())
	}
}

func (rt *Router) handleJoinIdentity(c Conn, data json.RawMessage) error {
	var p joinIdentityPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ErrBadPayload
	}
	if p.User == nil {
		return missingField("user")
	}
	if p.User.ID == "" {
		return missingField("user.id")
	}
	if p.User.Username == "" {
		return missingField("user.username")
	}

	rt.registry.Bind(c, p.User)

	for _, other := range rt.registry.Conns() {
		if other == c {
			continue
		}
		rt.deliver(other, EventUserConnected, userEvent{User: p.User})
	}
	c.Send(EventOnlineUsers, onlineUsersEvent{Users: rt.registry.Users()})

	rt.logger.Info().Str("session", c.ID()).Str("user", p.User.Username).Msg("identity bound")
	return nil
}

func (rt *Router) handleJoinChannel(ctx context.Context, c Conn, data json.RawMessage) error {
	user := rt.registry.Identity(c)
	if user == nil {
		return ErrNotAuthenticated
	}
	p, err := parseChannel(data)
	if err != nil {
		return err
	}

	// The channel lock spans the membership change, the history load and
	// the history reply, so a concurrent send cannot slip a message into
	// the gap between the snapshot the joiner receives and the first
	// new_message it sees.
	lock := rt.channelLock(p.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	changed := rt.rooms.Join(c, p.ChannelID)

	msgs, err := rt.store.Load(ctx, p.ChannelID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	rt.deliver(c, EventChannelMessages, channelMessagesEvent{ChannelID: p.ChannelID, Messages: msgs})

	if changed {
		rt.broadcast(p.ChannelID, EventUserJoined, channelUserEvent{User: user, ChannelID: p.ChannelID}, c)
		rt.logger.Info().Str("user", user.Username).Str("channel", p.ChannelID).Msg("joined channel")
	}
	return nil
}

func (rt *Router) handleLeaveChannel(c Conn, data json.RawMessage) error {
	user := rt.registry.Identity(c)
	if user == nil {
		return ErrNotAuthenticated
	}
	p, err := parseChannel(data)
	if err != nil {
		return err
	}

	if rt.rooms.Leave(c, p.ChannelID) {
		rt.broadcast(p.ChannelID, EventUserLeft, channelUserEvent{User: user, ChannelID: p.ChannelID}, nil)
		rt.logger.Info().Str("user", user.Username).Str("channel", p.ChannelID).Msg("left channel")
	}
	return nil
}

func (rt *Router) handleSendMessage(ctx context.Context, c Conn, data json.RawMessage) error {
	user := rt.registry.Identity(c)
	if user == nil {
		return ErrNotAuthenticated
	}
	var p sendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ErrBadPayload
	}
	if p.ChannelID == "" {
		return missingField("channel_id")
	}

	_, err := rt.SendMessage(ctx, user, p.ChannelID, p.Message.Content, p.Message.Kind, p.Message.File)
	return err
}

func (rt *Router) handleTyping(c Conn, data json.RawMessage, typing bool) error {
	user := rt.registry.Identity(c)
	if user == nil {
		return ErrNotAuthenticated
	}
	p, err := parseChannel(data)
	if err != nil {
		return err
	}

	// Nothing is persisted and delivery is best-effort; a dropped typing
	// frame is not an error.
	rt.broadcast(p.ChannelID, EventUserTyping, typingEvent{User: user, ChannelID: p.ChannelID, Typing: typing}, c)
	return nil
}

// SendMessage validates, persists and fans out one message. The message is
// durably appended before any room member hears about it; on append failure
// nothing is broadcast and the caller reports a scoped error to the sender.
// The sender is not excluded from the fan-out — everyone in the room,
// sender included, receives the same echo.
//
// Both the websocket send_message path and the HTTP history POST go through
// here, so the two entry points share one per-channel lock scope.
func (rt *Router) SendMessage(ctx context.Context, user *models.User, channelID, content string, kind models.MessageKind, file *models.FileRef) (*models.Message, error) {
	if channelID == "" {
		return nil, missingField("channel_id")
	}
	if !models.ValidChannelID(channelID) {
		return nil, store.ErrInvalidChannel
	}

	msg := models.NewMessage(user, channelID, content, kind, file)

	lock := rt.channelLock(channelID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	if err := rt.store.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	metrics.StoreAppendDuration.Observe(time.Since(start).Seconds())
	metrics.MessagesPosted.WithLabelValues(string(msg.Kind)).Inc()

	rt.broadcast(channelID, EventNewMessage, newMessageEvent{ChannelID: channelID, Message: msg}, nil)
	return msg, nil
}

// broadcast enqueues event for every current member of channelID except
// exclude. Send only queues onto each connection's buffered channel — the
// actual socket write happens on that connection's write loop — so holding
// a channel lock across broadcast never blocks on network I/O. A failed
// enqueue is logged and skipped; it neither aborts the rest of the fan-out
// nor rolls back the append.
func (rt *Router) broadcast(channelID, event string, data any, exclude Conn) {
	members := rt.rooms.Members(channelID)
	n := 0
	for _, m := range members {
		if m == exclude {
			continue
		}
		rt.deliver(m, event, data)
		n++
	}
	metrics.BroadcastFanout.Observe(float64(n))
}

func (rt *Router) deliver(c Conn, event string, data any) {
	if !c.Send(event, data) {
		metrics.DroppedFrames.Inc()
		rt.logger.Warn().Str("session", c.ID()).Str("event", event).Msg("dropped frame for slow or closed connection")
	}
}

func (rt *Router) sendError(c Conn, message string) {
	c.Send(EventError, errorEvent{Message: message})
}

// channelLock returns the mutex that serializes all send/join activity for
// one channel, creating it on first use.
func (rt *Router) channelLock(channelID string) *sync.Mutex {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	l, ok := rt.channels[channelID]
	if !ok {
		l = &sync.Mutex{}
		rt.channels[channelID] = l
	}
	return l
}

func parseChannel(data json.RawMessage) (channelPayload, error) {
	var p channelPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, ErrBadPayload
	}
	if p.ChannelID == "" {
		return p, missingField("channel_id")
	}
	if !models.ValidChannelID(p.ChannelID) {
		return p, store.ErrInvalidChannel
	}
	return p, nil
}
