// Package registry maps tenant identity to its scheduler instance with
// a single-creation guarantee per tenant.
package registry

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/DoriNori7/BnuuyBotGithub/internal/app/player"
	"github.com/DoriNori7/BnuuyBotGithub/internal/resolve"
	"github.com/DoriNori7/BnuuyBotGithub/internal/voice"
)

// ErrNotFound is returned by non-creating lookups for unknown tenants.
var ErrNotFound = errors.New("no scheduler for tenant")

// Deps bundles the collaborators every scheduler is built with.
type Deps struct {
	Resolver resolve.Resolver
	Store    player.SnapshotStore
	Fallback player.Fallback
	Config   player.Config
}

// SchedulerRegistry holds at most one live scheduler per tenant. The
// registry lock guards only check-and-create and eviction, never a
// scheduler's subsequent lifetime, so tenants run fully in parallel.
type SchedulerRegistry struct {
	mu         sync.Mutex
	schedulers map[string]*player.Scheduler
	deps       Deps
}

// New creates an empty registry.
func New(deps Deps) *SchedulerRegistry {
	return &SchedulerRegistry{
		schedulers: make(map[string]*player.Scheduler),
		deps:       deps,
	}
}

// GetOrCreate returns the tenant's scheduler, constructing it on first
// use. Concurrent callers racing to create serialize on the registry
// lock so exactly one instance is built and everyone observes it.
//
// When resume is true and this call constructs the scheduler, the
// tenant's persisted snapshot is loaded into the fresh queue. The flag
// is deliberately one-shot: it has no effect on an existing scheduler.
func (r *SchedulerRegistry) GetOrCreate(ctx context.Context, tenantID string, transport voice.Transport, resume bool) (*player.Scheduler, error) {
	r.mu.Lock()
	if s, ok := r.schedulers[tenantID]; ok && s.State() != player.StateDead {
		r.mu.Unlock()
		return s, nil
	}

	s := player.NewScheduler(tenantID, transport, r.deps.Resolver, r.deps.Store, r.deps.Fallback, r.deps.Config)
	r.schedulers[tenantID] = s
	r.mu.Unlock()

	if resume && r.deps.Store != nil {
		snap, err := r.deps.Store.Load(ctx, tenantID)
		if err != nil {
			zlog.Warn().Err(err).Str("tenant", tenantID).Msg("registry: snapshot load failed, starting empty")
		} else if snap != nil {
			s.Restore(snap)
			zlog.Info().Str("tenant", tenantID).Int("entries", len(snap.Entries)).
				Msg("registry: restored queue from snapshot")
		}
	}
	return s, nil
}

// Get returns the tenant's scheduler without creating one.
func (r *SchedulerRegistry) Get(tenantID string) (*player.Scheduler, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedulers[tenantID]
	if !ok || s.State() == player.StateDead {
		return nil, ErrNotFound
	}
	return s, nil
}

// Evict kills the tenant's scheduler and removes it from the map.
func (r *SchedulerRegistry) Evict(tenantID string) {
	r.mu.Lock()
	s, ok := r.schedulers[tenantID]
	delete(r.schedulers, tenantID)
	r.mu.Unlock()

	if ok {
		s.Kill()
	}
}

// Sweep drops schedulers that have died outside Evict. Returns how many
// were removed.
func (r *SchedulerRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.schedulers {
		if s.State() == player.StateDead {
			delete(r.schedulers, id)
			removed++
		}
	}
	return removed
}

// All returns the live schedulers.
func (r *SchedulerRegistry) All() []*player.Scheduler {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*player.Scheduler, 0, len(r.schedulers))
	for _, s := range r.schedulers {
		out = append(out, s)
	}
	return out
}

// Shutdown evicts every scheduler. Used on process exit.
func (r *SchedulerRegistry) Shutdown() {
	r.mu.Lock()
	all := make([]*player.Scheduler, 0, len(r.schedulers))
	for _, s := range r.schedulers {
		all = append(all, s)
	}
	r.schedulers = make(map[string]*player.Scheduler)
	r.mu.Unlock()

	for _, s := range all {
		s.Kill()
	}
}
