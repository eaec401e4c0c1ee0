package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haven-chat/haven/internal/models"
)

// PostgresStore persists channel logs in PostgreSQL. The BIGSERIAL seq
// column preserves append order.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by a pgx connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		seq BIGSERIAL PRIMARY KEY,
		id UUID UNIQUE NOT NULL,
		channel_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		content TEXT NOT NULL,
		kind TEXT NOT NULL,
		file JSONB,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages (channel_id, seq);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Load returns a channel's messages in append order.
func (s *PostgresStore) Load(ctx context.Context, channelID string) ([]models.Message, error) {
	if !models.ValidChannelID(channelID) {
		return nil, ErrInvalidChannel
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, username, content, kind, file, created_at
		FROM messages WHERE channel_id = $1 ORDER BY seq
	`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var (
			msg  models.Message
			file []byte
		)
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Username, &msg.Content, &msg.Kind, &file, &msg.Timestamp); err != nil {
			return nil, err
		}
		msg.ChannelID = channelID
		if len(file) > 0 {
			if err := json.Unmarshal(file, &msg.File); err != nil {
				return nil, fmt.Errorf("decode file ref: %w", err)
			}
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// Append inserts msg at the end of its channel's log.
func (s *PostgresStore) Append(ctx context.Context, msg *models.Message) error {
	if !models.ValidChannelID(msg.ChannelID) {
		return ErrInvalidChannel
	}

	var file []byte
	if msg.File != nil {
		var err error
		file, err = json.Marshal(msg.File)
		if err != nil {
			return fmt.Errorf("encode file ref: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, channel_id, user_id, username, content, kind, file, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, msg.ID, msg.ChannelID, msg.UserID, msg.Username, msg.Content, string(msg.Kind), file, msg.Timestamp)
	return err
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
