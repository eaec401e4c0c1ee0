package relay

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/haven-chat/haven/internal/store"
)

// fakeConn records every frame the relay enqueues for it.
type fakeConn struct {
	id   string
	full bool // simulate a dead or backed-up connection

	mu     sync.Mutex
	frames []Frame
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(event string, data any) bool {
	if c.full {
		return false
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, Frame{Event: event, Data: payload})
	return true
}

// captured returns all frames with the given event name, in receive order.
func (c *fakeConn) captured(event string) []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Frame
	for _, f := range c.frames {
		if f.Event == event {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) count(event string) int {
	return len(c.captured(event))
}

func newTestRouter(t *testing.T) (*Router, store.MessageStore) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return NewRouter(st, zerolog.Nop()), st
}

func frame(t *testing.T, event string, data any) []byte {
	t.Helper()
	raw, err := EncodeFrame(event, data)
	if err != nil {
		t.Fatalf("encode %s: %v", event, err)
	}
	return raw
}

func bind(t *testing.T, rt *Router, c Conn, id, username string) {
	t.Helper()
	rt.Dispatch(context.Background(), c, frame(t, EventJoinIdentity, map[string]any{
		"user": map[string]any{"id": id, "username": username},
	}))
}

func join(t *testing.T, rt *Router, c Conn, channelID string) {
	t.Helper()
	rt.Dispatch(context.Background(), c, frame(t, EventJoinChannel, map[string]any{"channel_id": channelID}))
}

func sendText(t *testing.T, rt *Router, c Conn, channelID, content string) {
	t.Helper()
	rt.Dispatch(context.Background(), c, frame(t, EventSendMessage, map[string]any{
		"channel_id": channelID,
		"message":    map[string]any{"content": content, "type": "text"},
	}))
}
