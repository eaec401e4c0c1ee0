package relay

import "sync"

// Rooms tracks which connections occupy which channels. It keeps both
// directions of the index — channel to member set and connection to joined
// channels — so disconnect cleanup is an explicit operation instead of a
// transport side effect. Membership is purely in-memory and never persisted.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[Conn]struct{}
	joined  map[Conn]map[string]struct{}
}

// NewRooms creates an empty membership index.
func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[string]map[Conn]struct{}),
		joined:  make(map[Conn]map[string]struct{}),
	}
}

// Join adds c to channelID's member set and reports whether the membership
// actually changed. Rejoining a channel is a no-op and returns false, which
// is what keeps the user_joined_channel notification from double-firing.
func (r *Rooms) Join(c Conn, channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[channelID]; !ok {
		r.members[channelID] = make(map[Conn]struct{})
	}
	if _, ok := r.members[channelID][c]; ok {
		return false
	}
	r.members[channelID][c] = struct{}{}

	if _, ok := r.joined[c]; !ok {
		r.joined[c] = make(map[string]struct{})
	}
	r.joined[c][channelID] = struct{}{}
	return true
}

// Leave removes c from channelID's member set. It reports whether c was a
// member; leaving a channel never joined is a no-op.
func (r *Rooms) Leave(c Conn, channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(c, channelID)
}

func (r *Rooms) leaveLocked(c Conn, channelID string) bool {
	members, ok := r.members[channelID]
	if !ok {
		return false
	}
	if _, ok := members[c]; !ok {
		return false
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.members, channelID)
	}

	if channels, ok := r.joined[c]; ok {
		delete(channels, channelID)
		if len(channels) == 0 {
			delete(r.joined, c)
		}
	}
	return true
}

// LeaveAll removes c from every channel it occupies and returns the list of
// channels left, so the caller can fire the usual leave notifications.
func (r *Rooms) LeaveAll(c Conn) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels := make([]string, 0, len(r.joined[c]))
	for channelID := range r.joined[c] {
		channels = append(channels, channelID)
	}
	for _, channelID := range channels {
		r.leaveLocked(c, channelID)
	}
	return channels
}

// Members returns a snapshot of channelID's current member set. Callers
// deliver to the snapshot after this returns, so broadcast never holds the
// membership lock.
func (r *Rooms) Members(channelID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.members[channelID]
	if !ok {
		return nil
	}
	conns := make([]Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}

// Channels returns a snapshot of the channels c currently occupies.
func (r *Rooms) Channels(c Conn) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]string, 0, len(r.joined[c]))
	for channelID := range r.joined[c] {
		channels = append(channels, channelID)
	}
	return channels
}
