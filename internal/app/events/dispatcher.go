// Package events provides fan-out of scheduler events to host
// application listeners.
package events

import (
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/DoriNori7/BnuuyBotGithub/internal/app/player"
)

// Listener receives scheduler events. Registered once at construction
// time; there is no dynamic handler lookup by name.
type Listener func(player.Event)

// subscription is one listener with its delivery queue.
type subscription struct {
	id string
	ch chan player.Event
}

// Dispatcher fans scheduler events out to subscribers. Each subscriber
// has its own buffered queue drained by one goroutine, so events are
// delivered to a subscriber in publish order and a slow subscriber
// cannot stall the schedulers.
type Dispatcher struct {
	mu   sync.RWMutex
	subs map[string]*subscription
	wg   sync.WaitGroup
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[string]*subscription)}
}

// Subscribe registers a listener and returns its subscription ID.
func (d *Dispatcher) Subscribe(fn Listener) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	sub := &subscription{
		id: uuid.New().String(),
		ch: make(chan player.Event, 64),
	}
	d.subs[sub.id] = sub

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for e := range sub.ch {
			fn(e)
		}
	}()
	return sub.id
}

// Unsubscribe removes a subscription and stops its delivery goroutine.
func (d *Dispatcher) Unsubscribe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if sub, ok := d.subs[id]; ok {
		delete(d.subs, id)
		close(sub.ch)
	}
}

// Publish hands an event to every subscriber queue without blocking.
func (d *Dispatcher) Publish(e player.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sub := range d.subs {
		select {
		case sub.ch <- e:
		default:
			zlog.Warn().Str("tenant", e.TenantID).Str("event", e.Type.String()).
				Msg("events: subscriber queue full, dropping event")
		}
	}
}

// Attach pumps a scheduler's event channel into the dispatcher until
// the scheduler dies.
func (d *Dispatcher) Attach(s *player.Scheduler) {
	go func() {
		for e := range s.Events() {
			d.Publish(e)
		}
	}()
}

// Close removes all subscriptions and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	for id, sub := range d.subs {
		delete(d.subs, id)
		close(sub.ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
