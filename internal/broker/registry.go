package broker

import (
	"fmt"
	"sync"
	"time"

	"github.com/relaypoint/push-service/internal/domain"
)

// Registry is the authoritative store of live connections plus the
// userID -> {connectionID} secondary index. Registry membership is the source
// of truth: room and user indices are derived views.
//
// All operations are O(1) map work under one mutex; no I/O and no sink calls
// are ever made while the lock is held.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*domain.Connection
	users map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*domain.Connection),
		users: make(map[string]map[string]struct{}),
	}
}

// Add inserts a new connection and links it to its user's set. A colliding
// connection ID means the ID generator is broken, so this fails loudly.
func (r *Registry) Add(conn *domain.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[conn.ID]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateConnection, conn.ID)
	}
	r.conns[conn.ID] = conn

	set, ok := r.users[conn.UserID]
	if !ok {
		set = make(map[string]struct{})
		r.users[conn.UserID] = set
	}
	set[conn.ID] = struct{}{}

	return nil
}

// Remove deletes and returns the record, unlinking it from its user's set and
// pruning the set if it becomes empty. Removing an absent ID is a no-op:
// disconnect may run more than once for the same connection.
func (r *Registry) Remove(connID string) (*domain.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	delete(r.conns, connID)

	if set, ok := r.users[conn.UserID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.users, conn.UserID)
		}
	}

	return conn, true
}

func (r *Registry) Get(connID string) (*domain.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	return conn, ok
}

// ConnectionsForUser returns a snapshot copy; it does not track later mutations.
func (r *Registry) ConnectionsForUser(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.users[userID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) UpdateHeartbeat(connID string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return false
	}
	conn.LastHeartbeatAt = at
	return true
}

// AllStale returns every connection whose last heartbeat is older than
// now-threshold. Only the heartbeat sweep calls this.
func (r *Registry) AllStale(threshold time.Duration, now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-threshold)
	var stale []string
	for id, conn := range r.conns {
		if conn.LastHeartbeatAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	return stale
}

// AllIDs returns a snapshot of every registered connection ID.
func (r *Registry) AllIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.conns)
}
