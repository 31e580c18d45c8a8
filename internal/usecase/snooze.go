package usecase

import "sync"

// SnoozeRegistry holds the opportunities the user snoozed in this session.
// Snoozing is not stored server side.
type SnoozeRegistry struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewSnoozeRegistry() *SnoozeRegistry {
	return &SnoozeRegistry{ids: map[string]struct{}{}}
}

func (r *SnoozeRegistry) Snooze(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[id] = struct{}{}
}

func (r *SnoozeRegistry) Unsnooze(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ids, id)
}

func (r *SnoozeRegistry) IsSnoozed(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[id]
	return ok
}

// Forget drops ids that are no longer on the board.
func (r *SnoozeRegistry) Forget(keep map[string]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.ids {
		if !keep[id] {
			delete(r.ids, id)
		}
	}
}
