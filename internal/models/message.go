package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageKind distinguishes plain text messages from file attachments.
type MessageKind string

const (
	MessageText MessageKind = "text"
	MessageFile MessageKind = "file"
)

// Message is one entry in a channel's append-only log. Messages are
// immutable once created; the ID is assigned server-side and never reused.
type Message struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Username  string      `json:"username"`
	Content   string      `json:"content"`
	Kind      MessageKind `json:"type"`
	File      *FileRef    `json:"file"`
	Timestamp time.Time   `json:"timestamp"`
	ChannelID string      `json:"channel_id"`
}

// NewMessage builds a message from a sender identity. An empty kind
// defaults to text, matching what browser clients omit.
func NewMessage(user *User, channelID, content string, kind MessageKind, file *FileRef) *Message {
	if kind == "" {
		kind = MessageText
	}
	return &Message{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Content:   content,
		Kind:      kind,
		File:      file,
		Timestamp: time.Now().UTC(),
		ChannelID: channelID,
	}
}
