package relay

import (
	"encoding/json"

	"github.com/haven-chat/haven/internal/models"
)

// Inbound event names.
const (
	EventJoinIdentity = "join_identity"
	EventJoinChannel  = "join_channel"
	EventLeaveChannel = "leave_channel"
	EventSendMessage  = "send_message"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"
)

// Outbound event names.
const (
	EventConnected        = "connected"
	EventUserConnected    = "user_connected"
	EventOnlineUsers      = "online_users"
	EventChannelMessages  = "channel_messages"
	EventUserJoined       = "user_joined_channel"
	EventUserLeft         = "user_left_channel"
	EventNewMessage       = "new_message"
	EventUserTyping       = "user_typing"
	EventUserDisconnected = "user_disconnected"
	EventError            = "error"
)

// Frame is the wire envelope for both directions: a named event plus its
// JSON payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EncodeFrame marshals an outbound frame.
func EncodeFrame(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: payload})
}

// Inbound payloads.

type joinIdentityPayload struct {
	User *models.User `json:"user"`
}

type channelPayload struct {
	ChannelID string `json:"channel_id"`
}

type sendMessagePayload struct {
	ChannelID string `json:"channel_id"`
	Message   struct {
		Content string             `json:"content"`
		Kind    models.MessageKind `json:"type"`
		File    *models.FileRef    `json:"file"`
	} `json:"message"`
}

// Outbound payloads.

type connectedEvent struct {
	SessionID string `json:"session_id"`
}

type userEvent struct {
	User *models.User `json:"user"`
}

type onlineUsersEvent struct {
	Users []models.User `json:"users"`
}

type channelMessagesEvent struct {
	ChannelID string           `json:"channel_id"`
	Messages  []models.Message `json:"messages"`
}

type channelUserEvent struct {
	User      *models.User `json:"user"`
	ChannelID string       `json:"channel_id"`
}

type newMessageEvent struct {
	ChannelID string          `json:"channel_id"`
	Message   *models.Message `json:"message"`
}

type typingEvent struct {
	User      *models.User `json:"user"`
	ChannelID string       `json:"channel_id"`
	Typing    bool         `json:"typing"`
}

type errorEvent struct {
	Message string `json:"message"`
}
