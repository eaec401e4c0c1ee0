// Package haven provides a small websocket client for the Haven chat relay.
// It is self-contained: the wire types here mirror the server's JSON
// contract without importing server internals.
package haven

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event names understood by the relay.
const (
	EventJoinIdentity = "join_identity"
	EventJoinChannel  = "join_channel"
	EventLeaveChannel = "leave_channel"
	EventSendMessage  = "send_message"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"

	EventConnected        = "connected"
	EventOnlineUsers      = "online_users"
	EventChannelMessages  = "channel_messages"
	EventNewMessage       = "new_message"
	EventUserTyping       = "user_typing"
	EventUserConnected    = "user_connected"
	EventUserDisconnected = "user_disconnected"
	EventError            = "error"
)

// User is the identity asserted on join_identity.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Message mirrors the server's message JSON.
type Message struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Username  string          `json:"username"`
	Content   string          `json:"content"`
	Type      string          `json:"type"`
	File      json.RawMessage `json:"file"`
	Timestamp time.Time       `json:"timestamp"`
	ChannelID string          `json:"channel_id"`
}

// Frame is the wire envelope for both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client is a connected Haven session.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

// Dial connects to a Haven server. rawURL may use an http(s) or ws(s)
// scheme; the /ws path is appended when missing.
func Dial(ctx context.Context, rawURL string) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Listen reads frames until the connection closes and hands each one to
// handler. It returns the read error that ended the loop.
func (c *Client) Listen(handler func(Frame)) error {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		handler(frame)
	}
}

// JoinIdentity asserts the client's identity.
func (c *Client) JoinIdentity(u User) error {
	return c.send(EventJoinIdentity, map[string]any{"user": u})
}

// JoinChannel subscribes to a channel; the server replies with the full
// channel history.
func (c *Client) JoinChannel(channelID string) error {
	return c.send(EventJoinChannel, map[string]any{"channel_id": channelID})
}

// LeaveChannel unsubscribes from a channel.
func (c *Client) LeaveChannel(channelID string) error {
	return c.send(EventLeaveChannel, map[string]any{"channel_id": channelID})
}

// SendText sends a text message to a channel.
func (c *Client) SendText(channelID, content string) error {
	return c.send(EventSendMessage, map[string]any{
		"channel_id": channelID,
		"message":    map[string]any{"content": content, "type": "text"},
	})
}

// Typing signals a typing start or stop to the channel.
func (c *Client) Typing(channelID string, typing bool) error {
	event := EventTypingStop
	if typing {
		event = EventTypingStart
	}
	return c.send(event, map[string]any{"channel_id": channelID})
}

func (c *Client) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}
