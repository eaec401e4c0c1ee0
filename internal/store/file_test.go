package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/haven-chat/haven/internal/models"
)

func testMessage(channelID, content string) *models.Message {
	return models.NewMessage(&models.User{ID: "u1", Username: "alice"}, channelID, content, models.MessageText, nil)
}

func TestFileStoreLoadUnknownChannel(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	msgs, err := s.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("unknown channel should load as empty slice, got %v", msgs)
	}
}

func TestFileStoreAppendPreservesOrder(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	var want []string
	for i := 0; i < 5; i++ {
		msg := testMessage("general", fmt.Sprintf("msg-%d", i))
		if err := s.Append(ctx, msg); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		want = append(want, msg.ID)
	}

	msgs, err := s.Load(ctx, "general")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != len(want) {
		t.Fatalf("loaded %d messages, want %d", len(msgs), len(want))
	}
	for i, msg := range msgs {
		if msg.ID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, msg.ID, want[i])
		}
	}
}

func TestFileStoreChannelsAreIsolated(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := s.Append(ctx, testMessage("a", "for a")); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, testMessage("b", "for b")); err != nil {
		t.Fatal(err)
	}

	msgs, err := s.Load(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Content != "for a" {
		t.Errorf("channel a log = %v", msgs)
	}
}

func TestFileStoreRejectsInvalidChannelID(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "has space", "has/slash"} {
		if _, err := s.Load(ctx, id); !errors.Is(err, ErrInvalidChannel) {
			t.Errorf("Load(%q) = %v, want ErrInvalidChannel", id, err)
		}
		if err := s.Append(ctx, testMessage(id, "x")); !errors.Is(err, ErrInvalidChannel) {
			t.Errorf("Append(%q) = %v, want ErrInvalidChannel", id, err)
		}
	}
}

func TestFileStoreLogOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := s.Append(ctx, testMessage("general", "hello")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "general.json"))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		t.Fatalf("log is not a JSON array: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Errorf("on-disk log = %v", msgs)
	}

	// No leftover temp files after a clean append.
	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestFileStoreConcurrentAppends(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Append(ctx, testMessage("busy", fmt.Sprintf("m-%d", i))); err != nil {
				t.Errorf("Append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	msgs, err := s.Load(ctx, "busy")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != n {
		t.Errorf("lost appends: %d of %d survived", len(msgs), n)
	}
}
