package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/haven-chat/haven/internal/models"
)

// SQLiteStore persists channel logs in a SQLite database. The AUTOINCREMENT
// seq column preserves append order.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// If dbPath is empty, defaults to "./data/haven.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/haven.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE NOT NULL,
		channel_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		content TEXT NOT NULL,
		kind TEXT NOT NULL,
		file TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id, seq);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Load returns a channel's messages in append order.
func (s *SQLiteStore) Load(ctx context.Context, channelID string) ([]models.Message, error) {
	if !models.ValidChannelID(channelID) {
		return nil, ErrInvalidChannel
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, username, content, kind, file, created_at
		FROM messages WHERE channel_id = ? ORDER BY seq
	`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var (
			msg       models.Message
			file      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Username, &msg.Content, &msg.Kind, &file, &createdAt); err != nil {
			return nil, err
		}
		msg.ChannelID = channelID
		if file.Valid {
			if err := json.Unmarshal([]byte(file.String), &msg.File); err != nil {
				return nil, fmt.Errorf("decode file ref: %w", err)
			}
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		msg.Timestamp = ts
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// Append inserts msg at the end of its channel's log.
func (s *SQLiteStore) Append(ctx context.Context, msg *models.Message) error {
	if !models.ValidChannelID(msg.ChannelID) {
		return ErrInvalidChannel
	}

	var file any
	if msg.File != nil {
		data, err := json.Marshal(msg.File)
		if err != nil {
			return fmt.Errorf("encode file ref: %w", err)
		}
		file = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, channel_id, user_id, username, content, kind, file, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.ChannelID, msg.UserID, msg.Username, msg.Content, string(msg.Kind), file,
		msg.Timestamp.UTC().Format(time.RFC3339Nano))
	return err
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
