package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/haven-chat/haven/internal/relay"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Client adapts one gorilla websocket connection to relay.Conn. All socket
// writes happen on the write pump; Send only enqueues, so the relay can
// fan out under its channel locks without touching the network.
type Client struct {
	id      string
	conn    *websocket.Conn
	router  *relay.Router
	logger  zerolog.Logger
	onClose func(*Client)

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(id string, conn *websocket.Conn, router *relay.Router, logger zerolog.Logger, onClose func(*Client)) *Client {
	return &Client{
		id:      id,
		conn:    conn,
		router:  router,
		logger:  logger.With().Str("session", id).Logger(),
		onClose: onClose,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
	}
}

// ID returns the session handle assigned at upgrade time.
func (c *Client) ID() string {
	return c.id
}

// Send enqueues one frame for the write pump. It reports false when the
// connection is closing or the buffer is full; a full buffer means the
// client stopped reading and the frame is dropped rather than blocking the
// relay.
func (c *Client) Send(event string, data any) bool {
	frame, err := relay.EncodeFrame(event, data)
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("encode frame")
		return false
	}
	select {
	case <-c.done:
		return false
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// teardown runs exactly once regardless of which pump exits first. It
// closes the socket, detaches the session from the relay (room cleanup and
// the user_disconnected broadcast happen there) and unregisters from the
// handler.
func (c *Client) teardown() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
		c.router.Disconnect(c)
		if c.onClose != nil {
			c.onClose(c)
		}
		c.logger.Info().Msg("connection closed")
	})
}

func (c *Client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("unexpected websocket close")
			}
			return
		}
		c.router.Dispatch(context.Background(), c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
