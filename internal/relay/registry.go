package relay

import (
	"sync"

	"github.com/haven-chat/haven/internal/models"
)

// Registry maps each live connection to its asserted identity. A connection
// stays unbound until its first join_identity event. The registry is
// constructed once per server lifetime and injected into the Router; it is
// never ambient state.
type Registry struct {
	mu    sync.RWMutex
	users map[Conn]*models.User
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[Conn]*models.User)}
}

// Bind associates user with c. Rebinding is allowed; the last write wins.
func (r *Registry) Bind(c Conn, user *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[c] = user
}

// Unbind removes c's entry and returns the identity that was bound, or nil
// if c never bound one. Calling it twice returns nil the second time, which
// is what keeps the user_disconnected broadcast at-most-once.
func (r *Registry) Unbind(c Conn) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := r.users[c]
	delete(r.users, c)
	return user
}

// Identity returns the identity bound to c, or nil.
func (r *Registry) Identity(c Conn) *models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users[c]
}

// Users returns a snapshot of all currently bound identities.
func (r *Registry) Users() []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users
}

// Conns returns a snapshot of all currently bound connections.
func (r *Registry) Conns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]Conn, 0, len(r.users))
	for c := range r.users {
		conns = append(conns, c)
	}
	return conns
}
