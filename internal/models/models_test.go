package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestUserExtraRoundTrip(t *testing.T) {
	in := []byte(`{"id":"u1","username":"alice","avatar":"a.png","status":{"emoji":"🦀"}}`)

	var u User
	if err := json.Unmarshal(in, &u); err != nil {
		t.Fatal(err)
	}
	if u.ID != "u1" || u.Username != "alice" {
		t.Errorf("core fields: %+v", u)
	}
	if len(u.Extra) != 2 {
		t.Fatalf("Extra = %v, want avatar and status", u.Extra)
	}

	out, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if got["avatar"] != "a.png" {
		t.Errorf("avatar lost in round trip: %v", got)
	}
	if got["id"] != "u1" || got["username"] != "alice" {
		t.Errorf("core fields lost in round trip: %v", got)
	}
}

func TestUserWithoutExtra(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"id":"u1","username":"alice"}`), &u); err != nil {
		t.Fatal(err)
	}
	if u.Extra != nil {
		t.Errorf("Extra should stay nil, got %v", u.Extra)
	}
}

func TestNewMessageDefaults(t *testing.T) {
	user := &User{ID: "u1", Username: "alice"}
	msg := NewMessage(user, "general", "hi", "", nil)

	if msg.Kind != MessageText {
		t.Errorf("empty kind should default to text, got %q", msg.Kind)
	}
	if msg.ID == "" {
		t.Error("ID not assigned")
	}
	if msg.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp not UTC: %v", msg.Timestamp)
	}
	if msg.UserID != "u1" || msg.Username != "alice" || msg.ChannelID != "general" {
		t.Errorf("sender fields: %+v", msg)
	}

	other := NewMessage(user, "general", "hi", MessageText, nil)
	if other.ID == msg.ID {
		t.Error("message IDs must be unique")
	}
}

func TestMessageJSONShape(t *testing.T) {
	msg := NewMessage(&User{ID: "u1", Username: "alice"}, "general", "hi", MessageText, nil)

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "user_id", "username", "content", "type", "file", "timestamp", "channel_id"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing wire field %q", key)
		}
	}
	// file is present and explicitly null for text messages.
	if string(got["file"]) != "null" {
		t.Errorf("file = %s, want null", got["file"])
	}
}

func TestValidChannelID(t *testing.T) {
	valid := []string{"general", "dev-ops", "room_42", "A1"}
	for _, id := range valid {
		if !ValidChannelID(id) {
			t.Errorf("%q should be valid", id)
		}
	}
	invalid := []string{"", "has space", "a/b", "../up", "💬", strings.Repeat("a", 65)}
	for _, id := range invalid {
		if ValidChannelID(id) {
			t.Errorf("%q should be invalid", id)
		}
	}
}
