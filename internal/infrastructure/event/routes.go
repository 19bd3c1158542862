package event

import (
	"slices"
	"sync"

	"github.com/erp/salescore/internal/domain/shared"
)

// anyEvent keys handlers that subscribed without naming event types
const anyEvent = "*"

// routes maps an event type to its subscribers. Lookups copy nothing;
// writers replace the slice so a publish in flight keeps a stable view.
type routes struct {
	mu    sync.RWMutex
	table map[string][]shared.EventHandler
}

func newRoutes() *routes {
	return &routes{table: make(map[string][]shared.EventHandler)}
}

func (r *routes) add(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = []string{anyEvent}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, eventType := range eventTypes {
		current := r.table[eventType]
		if slices.Contains(current, handler) {
			continue
		}
		r.table[eventType] = append(slices.Clip(current), handler)
	}
}

func (r *routes) remove(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for eventType, current := range r.table {
		kept := slices.DeleteFunc(slices.Clone(current), func(h shared.EventHandler) bool { return h == handler })
		if len(kept) == 0 {
			delete(r.table, eventType)
			continue
		}
		r.table[eventType] = kept
	}
}

// match returns the typed subscribers of eventType followed by the catch-all ones
func (r *routes) match(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	typed, catchAll := r.table[eventType], r.table[anyEvent]
	if eventType == anyEvent {
		return typed
	}
	return append(slices.Clip(typed), catchAll...)
}

// count is the number of distinct subscribed handlers
func (r *routes) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[shared.EventHandler]struct{})
	for _, handlers := range r.table {
		for _, h := range handlers {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}
