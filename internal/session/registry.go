package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scribeai/scribe/internal/metrics"
)

// Registry is the concurrency-safe owner of all live session state. It is
// the only structure mutated (insert/delete) by arbitrary concurrent
// callers; everything per-session is serialized by the State's own lock.
type Registry struct {
	store Store

	mu       sync.RWMutex
	sessions map[string]*State
	newID    func() string
	now      func() time.Time
}

func NewRegistry(store Store) *Registry {
	return &Registry{
		store:    store,
		sessions: make(map[string]*State),
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create allocates a fresh session in Recording state and persists the
// initial record. The in-memory entry is rolled back if the store write
// fails.
func (r *Registry) Create(ctx context.Context, ownerID string, source Source) (*State, error) {
	id := r.newID()
	now := r.now()
	st := newState(id, ownerID, source, now)

	r.mu.Lock()
	if _, exists := r.sessions[id]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("create session %s: %w", id, ErrDuplicateInit)
	}
	r.sessions[id] = st
	r.mu.Unlock()

	if err := r.store.CreateSession(id, ownerID, string(source), now); err != nil {
		r.mu.Lock()
		delete(r.sessions, id)
		r.mu.Unlock()
		return nil, fmt.Errorf("create session %s: %w", id, err)
	}

	metrics.SessionStarted()
	metrics.SetActiveSessions(r.Active())
	return st, nil
}

// Get looks up a live session.
func (r *Registry) Get(id string) (*State, error) {
	r.mu.RLock()
	st, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

// Remove evicts a session from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	metrics.SetActiveSessions(r.Active())
}

// Active returns the number of live sessions.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// IDs returns a snapshot of all live session ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// StartReaper runs a background scan that finalizes abandoned sessions
// (no activity for reapAfter) and evicts terminal ones once their outcome
// has aged past reapAfter. Finalization of an abandoned session goes
// through onExpire so it follows the exact same single-writer path as a
// client stop request.
func (r *Registry) StartReaper(ctx context.Context, reapAfter time.Duration, onExpire func(ctx context.Context, id string)) {
	if reapAfter <= 0 {
		reapAfter = 10 * time.Minute
	}

	interval := reapAfter / 4
	if interval < time.Second {
		interval = time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.reap(ctx, reapAfter, onExpire)
			}
		}
	}()
}

func (r *Registry) reap(ctx context.Context, reapAfter time.Duration, onExpire func(ctx context.Context, id string)) {
	cutoff := r.now().Add(-reapAfter)

	r.mu.RLock()
	snapshot := make([]*State, 0, len(r.sessions))
	for _, st := range r.sessions {
		snapshot = append(snapshot, st)
	}
	r.mu.RUnlock()

	for _, st := range snapshot {
		if !st.LastSeen().Before(cutoff) {
			continue
		}

		if st.Status().Terminal() {
			r.Remove(st.ID)
			continue
		}

		slog.Info("reaping abandoned session", "session_id", st.ID, "idle", reapAfter)
		if onExpire != nil {
			onExpire(ctx, st.ID)
		}
	}
}
