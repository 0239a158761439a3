package ratelimiter

import (
	"sync"
)

// Registry maps model names to their limiters.
type Registry interface {
	Lookup(model string) (Limiter, bool)
	Set(model string, limiter Limiter)
	Remove(model string)
}

type mapRegistry struct {
	limiters map[string]Limiter
	mu       sync.RWMutex
}

// NewRegistry creates an empty in-memory registry.
func NewRegistry() Registry {
	return &mapRegistry{
		limiters: make(map[string]Limiter),
	}
}

func (r *mapRegistry) Lookup(model string) (Limiter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limiter, ok := r.limiters[model]
	return limiter, ok
}

func (r *mapRegistry) Set(model string, limiter Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter == nil {
		delete(r.limiters, model)
		return
	}
	r.limiters[model] = limiter
}

func (r *mapRegistry) Remove(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.limiters, model)
}
