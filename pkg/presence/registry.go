package presence

import (
	"sort"
	"sync"

	"chatline/pkg/socket"
)

// Registry maps user identities to their active live connection. Entries
// are created on connect and destroyed on disconnect; nothing is persisted,
// so everyone appears offline after a restart until they reconnect.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*socket.Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*socket.Conn)}
}

// Connect registers a connection for the identity. A reconnect replaces the
// previous entry (last writer wins); the old connection is orphaned, not
// closed, and receives no more routed events.
func (r *Registry) Connect(userID string, c *socket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = c
}

// Disconnect removes the identity's entry, but only when it still refers to
// the given connection. A stale disconnect from an orphaned connection must
// not evict the replacement.
func (r *Registry) Disconnect(userID string, c *socket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[userID]; ok && cur == c {
		delete(r.conns, userID)
	}
}

// Get returns the identity's live connection, or nil when offline.
func (r *Registry) Get(userID string) *socket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[userID]
}

// Online returns the sorted ids of every connected user.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns the current connections for broadcast fan-out.
func (r *Registry) Snapshot() []*socket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*socket.Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
