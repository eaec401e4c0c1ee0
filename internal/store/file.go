package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/haven-chat/haven/internal/models"
)

// FileStore keeps one JSON array file per channel under dir. Appends are
// whole-log replace-on-write: the updated log is written to a temp file and
// renamed over the old one, so readers always see a complete log.
type FileStore struct {
	dir string
	mu  sync.Mutex // one read-modify-write cycle at a time
}

// NewFileStore creates the channel log directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create channel dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(channelID string) string {
	return filepath.Join(s.dir, channelID+".json")
}

// Load returns the full persisted log, or an empty slice for a channel
// that has never been written to.
func (s *FileStore) Load(ctx context.Context, channelID string) ([]models.Message, error) {
	if !models.ValidChannelID(channelID) {
		return nil, ErrInvalidChannel
	}
	data, err := os.ReadFile(s.path(channelID))
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Message{}, nil
		}
		return nil, fmt.Errorf("read channel log: %w", err)
	}
	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decode channel log: %w", err)
	}
	return msgs, nil
}

// Append adds msg to the end of its channel's log and persists the whole
// log before returning.
func (s *FileStore) Append(ctx context.Context, msg *models.Message) error {
	if !models.ValidChannelID(msg.ChannelID) {
		return ErrInvalidChannel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.Load(ctx, msg.ChannelID)
	if err != nil {
		return err
	}
	msgs = append(msgs, *msg)

	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode channel log: %w", err)
	}

	// Write to a temp file in the same directory, then rename. Rename is
	// atomic on POSIX, so a concurrent Load never sees a partial log.
	tmp, err := os.CreateTemp(s.dir, msg.ChannelID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write channel log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync channel log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmpName, s.path(msg.ChannelID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace channel log: %w", err)
	}
	return nil
}

// Ping checks that the log directory is still accessible.
func (s *FileStore) Ping(ctx context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error {
	return nil
}
