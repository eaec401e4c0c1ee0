// Package store persists per-channel message logs. Every backend keeps
// insertion order: Load returns messages in the order Append committed them.
package store

import (
	"context"
	"errors"

	"github.com/haven-chat/haven/internal/models"
)

// ErrInvalidChannel is returned when a channel ID fails validation before
// any storage is touched.
var ErrInvalidChannel = errors.New("invalid channel id")

// MessageStore is the append-only per-channel message log.
// FileStore, SQLiteStore and PostgresStore implement this interface.
//
// Load must not fail for a channel that has never been written to; it
// returns an empty slice. Append must durably persist the message before
// returning. A single Append is atomic with respect to concurrent Loads,
// but the store does not order concurrent Appends to the same channel —
// the relay router serializes those per channel.
type MessageStore interface {
	Load(ctx context.Context, channelID string) ([]models.Message, error)
	Append(ctx context.Context, msg *models.Message) error
	Ping(ctx context.Context) error
	Close() error
}
