// Package throttle provides the narrow per-(operation, requester)
// locks and rate limits that keep one user's overlapping bulk requests
// from racing past quota checks.
package throttle

import (
	"sync"

	"golang.org/x/time/rate"
)

// Scope names the operation being guarded.
type Scope string

// ScopeRequest guards the resolve-and-enqueue path. Single and playlist
// requests share it: playlist-ness is only known after resolution, and
// the quota race being closed is the same either way.
const ScopeRequest Scope = "request"

type key struct {
	scope Scope
	id    string
}

// KeyedMutex hands out one mutex per (scope, id) pair. The mapping is
// explicit so lock scopes stay auditable; keys are never derived from
// string concatenation.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[key]*sync.Mutex
}

// NewKeyedMutex creates an empty keyed mutex table.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[key]*sync.Mutex)}
}

// Lock acquires the mutex for (scope, id), creating it on first use,
// and returns the matching unlock function.
func (k *KeyedMutex) Lock(scope Scope, id string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key{scope, id}]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key{scope, id}] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Limiters maintains one token bucket per requester, gating how fast a
// single user may fire quota-checked operations.
type Limiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewLimiters creates a limiter table with the given per-requester rate.
func NewLimiters(limit rate.Limit, burst int) *Limiters {
	return &Limiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Allow reports whether the requester may proceed now.
func (l *Limiters) Allow(requesterID string) bool {
	return l.get(requesterID).Allow()
}

func (l *Limiters) get(requesterID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[requesterID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[requesterID] = lim
	}
	return lim
}
