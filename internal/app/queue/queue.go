// Package queue provides the ordered playback queue owned by a scheduler.
package queue

import (
	"math/rand"
	"time"

	"github.com/DoriNori7/BnuuyBotGithub/internal/domain/entry"
)

// PlaybackQueue is an ordered, mutable collection of entries.
// Insertion order is play order. The queue performs no locking of its
// own: it is owned by exactly one scheduler, which serializes access
// under its per-tenant lock.
type PlaybackQueue struct {
	entries []entry.Entry
}

// New creates an empty playback queue.
func New() *PlaybackQueue {
	return &PlaybackQueue{entries: make([]entry.Entry, 0)}
}

// Len returns the number of queued entries.
func (q *PlaybackQueue) Len() int {
	return len(q.entries)
}

// Append adds one entry to the tail of the queue.
func (q *PlaybackQueue) Append(e entry.Entry) {
	q.entries = append(q.entries, e)
}

// ImportMany appends all given entries in order. Validation happens
// before this is called; the append itself is all-or-nothing.
func (q *PlaybackQueue) ImportMany(es []entry.Entry) {
	q.entries = append(q.entries, es...)
}

// PeekHead returns the head entry without removing it.
func (q *PlaybackQueue) PeekHead() (entry.Entry, bool) {
	if len(q.entries) == 0 {
		return entry.Entry{}, false
	}
	return q.entries[0], true
}

// PopHead removes and returns the head entry.
func (q *PlaybackQueue) PopHead() (entry.Entry, bool) {
	if len(q.entries) == 0 {
		return entry.Entry{}, false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e, true
}

// RemoveAt removes the entry at the given zero-based position and
// returns it.
func (q *PlaybackQueue) RemoveAt(i int) (entry.Entry, bool) {
	if i < 0 || i >= len(q.entries) {
		return entry.Entry{}, false
	}
	e := q.entries[i]
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	return e, true
}

// RemoveAllBy removes every entry requested by the given requester and
// returns the number removed.
func (q *PlaybackQueue) RemoveAllBy(requesterID string) int {
	kept := q.entries[:0]
	removed := 0
	for _, e := range q.entries {
		if e.RequesterID == requesterID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return removed
}

// Clear removes all entries and returns the number removed.
func (q *PlaybackQueue) Clear() int {
	n := len(q.entries)
	q.entries = q.entries[:0]
	return n
}

// Shuffle randomizes the order of the remaining entries (Fisher-Yates).
func (q *PlaybackQueue) Shuffle() {
	rand.Shuffle(len(q.entries), func(i, j int) {
		q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
	})
}

// CountFor returns the number of queued entries requested by the given
// requester. Used for per-user quota enforcement.
func (q *PlaybackQueue) CountFor(requesterID string) int {
	n := 0
	for _, e := range q.entries {
		if e.RequesterID == requesterID {
			n++
		}
	}
	return n
}

// EstimateTimeUntil returns the estimated wait before the entry at the
// given position starts playing: the sum of the durations of all entries
// strictly before it, plus the remaining duration of the currently
// playing entry. Entries with unknown duration contribute zero, so the
// estimate is a lower bound rather than an exact figure.
func (q *PlaybackQueue) EstimateTimeUntil(position int, currentRemaining time.Duration) time.Duration {
	total := currentRemaining
	if position > len(q.entries) {
		position = len(q.entries)
	}
	for _, e := range q.entries[:position] {
		total += e.Duration()
	}
	return total
}

// Entries returns a copy of the queued entries in play order.
func (q *PlaybackQueue) Entries() []entry.Entry {
	out := make([]entry.Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Restore replaces the queue contents with the given entries.
func (q *PlaybackQueue) Restore(es []entry.Entry) {
	q.entries = make([]entry.Entry, len(es))
	copy(q.entries, es)
}
