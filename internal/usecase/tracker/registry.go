package tracker

import (
	"context"
	"sort"
	"sync"
	"time"

	"pa-agent/internal/domain/entity"
)

type liveEntry struct {
	req    entity.TrackingRequest
	cancel context.CancelCauseFunc
}

// Registry holds the tracking requests that have not reached a terminal
// state yet. Readers get copies.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*liveEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*liveEntry)}
}

func (r *Registry) Add(req entity.TrackingRequest, cancel context.CancelCauseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[req.RequestID] = &liveEntry{req: req, cancel: cancel}
}

// SetStatus moves a live request to status. Terminal statuses stamp
// FinishedAt.
func (r *Registry) SetStatus(id string, status entity.TaskStatus, errMsg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.req.Status = status
	e.req.Error = errMsg
	if status.Terminal() {
		now := time.Now()
		e.req.FinishedAt = &now
	}
	return true
}

func (r *Registry) Get(id string) (entity.TrackingRequest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return entity.TrackingRequest{}, false
	}
	return e.req, true
}

// List returns the live requests, oldest first.
func (r *Registry) List() []entity.TrackingRequest {
	r.mu.RLock()
	out := make([]entity.TrackingRequest, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.req)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].RequestID < out[j].RequestID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Cancel signals the run behind id. It reports whether id was live.
func (r *Registry) Cancel(id string, cause error) bool {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	e.cancel(cause)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
