package relay

import (
	"sort"
	"testing"
)

func TestRoomsJoinIdempotent(t *testing.T) {
	rooms := NewRooms()
	c := &fakeConn{id: "s1"}

	if !rooms.Join(c, "general") {
		t.Fatal("first join reported no change")
	}
	if rooms.Join(c, "general") {
		t.Error("rejoin reported a change")
	}
	if got := len(rooms.Members("general")); got != 1 {
		t.Errorf("Members = %d, want 1", got)
	}
}

func TestRoomsLeave(t *testing.T) {
	rooms := NewRooms()
	c := &fakeConn{id: "s1"}

	if rooms.Leave(c, "general") {
		t.Error("leaving a never-joined channel reported a change")
	}

	rooms.Join(c, "general")
	if !rooms.Leave(c, "general") {
		t.Error("leave reported no change")
	}
	if rooms.Members("general") != nil {
		t.Error("empty member set was not pruned")
	}
	if got := rooms.Channels(c); len(got) != 0 {
		t.Errorf("inverse index not cleared: %v", got)
	}
}

func TestRoomsLeaveAll(t *testing.T) {
	rooms := NewRooms()
	c1 := &fakeConn{id: "s1"}
	c2 := &fakeConn{id: "s2"}

	rooms.Join(c1, "general")
	rooms.Join(c1, "random")
	rooms.Join(c2, "general")

	left := rooms.LeaveAll(c1)
	sort.Strings(left)
	if len(left) != 2 || left[0] != "general" || left[1] != "random" {
		t.Fatalf("LeaveAll = %v, want [general random]", left)
	}

	if got := rooms.Members("random"); got != nil {
		t.Errorf("random still has members: %v", got)
	}
	members := rooms.Members("general")
	if len(members) != 1 || members[0] != Conn(c2) {
		t.Errorf("general members = %v, want just s2", members)
	}
	if again := rooms.LeaveAll(c1); len(again) != 0 {
		t.Errorf("second LeaveAll = %v, want empty", again)
	}
}

func TestRoomsChannels(t *testing.T) {
	rooms := NewRooms()
	c := &fakeConn{id: "s1"}

	rooms.Join(c, "a")
	rooms.Join(c, "b")

	got := rooms.Channels(c)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Channels = %v, want [a b]", got)
	}
}
