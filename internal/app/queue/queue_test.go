package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoriNori7/BnuuyBotGithub/internal/domain/entry"
)

func mkEntry(url, requester string, seconds int) entry.Entry {
	return entry.Entry{
		SourceURL:        url,
		Title:            url,
		DurationSeconds:  seconds,
		RequesterID:      requester,
		RequestChannelID: "chan",
	}
}

func TestPlaybackQueue_Order(t *testing.T) {
	q := New()
	q.Append(mkEntry("a", "u1", 10))
	q.Append(mkEntry("b", "u2", 20))
	q.Append(mkEntry("c", "u1", 30))

	assert.Equal(t, 3, q.Len())

	head, ok := q.PeekHead()
	require.True(t, ok)
	assert.Equal(t, "a", head.SourceURL)
	assert.Equal(t, 3, q.Len(), "peek must not remove")

	popped, ok := q.PopHead()
	require.True(t, ok)
	assert.Equal(t, "a", popped.SourceURL)

	popped, ok = q.PopHead()
	require.True(t, ok)
	assert.Equal(t, "b", popped.SourceURL)
	assert.Equal(t, 1, q.Len())
}

func TestPlaybackQueue_PopEmpty(t *testing.T) {
	q := New()
	_, ok := q.PopHead()
	assert.False(t, ok)
	_, ok = q.PeekHead()
	assert.False(t, ok)
}

func TestPlaybackQueue_RemoveAt(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		wantOK    bool
		wantURL   string
		wantOrder []string
	}{
		{name: "Middle", index: 1, wantOK: true, wantURL: "b", wantOrder: []string{"a", "c"}},
		{name: "First", index: 0, wantOK: true, wantURL: "a", wantOrder: []string{"b", "c"}},
		{name: "Last", index: 2, wantOK: true, wantURL: "c", wantOrder: []string{"a", "b"}},
		{name: "Negative", index: -1, wantOK: false, wantOrder: []string{"a", "b", "c"}},
		{name: "OutOfRange", index: 3, wantOK: false, wantOrder: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New()
			q.Append(mkEntry("a", "u1", 10))
			q.Append(mkEntry("b", "u1", 10))
			q.Append(mkEntry("c", "u1", 10))

			e, ok := q.RemoveAt(tt.index)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantURL, e.SourceURL)
			}
			got := make([]string, 0, q.Len())
			for _, e := range q.Entries() {
				got = append(got, e.SourceURL)
			}
			assert.Equal(t, tt.wantOrder, got)
		})
	}
}

func TestPlaybackQueue_RemoveAllBy(t *testing.T) {
	q := New()
	q.Append(mkEntry("a", "u1", 10))
	q.Append(mkEntry("b", "u2", 10))
	q.Append(mkEntry("c", "u1", 10))
	q.Append(mkEntry("d", "u1", 10))

	removed := q.RemoveAllBy("u1")
	assert.Equal(t, 3, removed)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 0, q.CountFor("u1"))
	assert.Equal(t, 1, q.CountFor("u2"))

	assert.Equal(t, 0, q.RemoveAllBy("unknown"))
}

func TestPlaybackQueue_CountFor(t *testing.T) {
	q := New()
	assert.Equal(t, 0, q.CountFor("u1"))

	q.Append(mkEntry("a", "u1", 10))
	q.Append(mkEntry("b", "u1", 10))
	q.Append(mkEntry("c", "u2", 10))
	// Autoplaylist filler has no requester and counts for nobody.
	q.Append(entry.Entry{SourceURL: "filler"})

	assert.Equal(t, 2, q.CountFor("u1"))
	assert.Equal(t, 1, q.CountFor("u2"))
	assert.Equal(t, 1, q.CountFor(""))
}

func TestPlaybackQueue_ImportMany(t *testing.T) {
	q := New()
	q.Append(mkEntry("a", "u1", 10))
	q.ImportMany([]entry.Entry{
		mkEntry("b", "u2", 10),
		mkEntry("c", "u2", 10),
	})

	got := make([]string, 0, q.Len())
	for _, e := range q.Entries() {
		got = append(got, e.SourceURL)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestPlaybackQueue_Clear(t *testing.T) {
	q := New()
	q.Append(mkEntry("a", "u1", 10))
	q.Append(mkEntry("b", "u1", 10))

	assert.Equal(t, 2, q.Clear())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.Clear())
}

func TestPlaybackQueue_Shuffle(t *testing.T) {
	q := New()
	urls := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, u := range urls {
		q.Append(mkEntry(u, "u1", 10))
	}

	q.Shuffle()

	// Same multiset, any order.
	got := make([]string, 0, q.Len())
	for _, e := range q.Entries() {
		got = append(got, e.SourceURL)
	}
	assert.ElementsMatch(t, urls, got)
}

func TestPlaybackQueue_EstimateTimeUntil(t *testing.T) {
	q := New()
	q.Append(mkEntry("a", "u1", 60))
	q.Append(mkEntry("b", "u1", 0)) // unknown duration contributes zero
	q.Append(mkEntry("c", "u1", 30))

	tests := []struct {
		name      string
		position  int
		remaining time.Duration
		want      time.Duration
	}{
		{name: "Head with nothing playing", position: 0, remaining: 0, want: 0},
		{name: "Head behind current", position: 0, remaining: 10 * time.Second, want: 10 * time.Second},
		{name: "Past one entry", position: 1, remaining: 10 * time.Second, want: 70 * time.Second},
		{name: "Unknown duration skipped", position: 2, remaining: 0, want: 60 * time.Second},
		{name: "Whole queue", position: 3, remaining: 0, want: 90 * time.Second},
		{name: "Position beyond queue clamps", position: 10, remaining: 0, want: 90 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, q.EstimateTimeUntil(tt.position, tt.remaining))
		})
	}
}

func TestPlaybackQueue_Restore(t *testing.T) {
	q := New()
	q.Append(mkEntry("old", "u1", 10))

	q.Restore([]entry.Entry{mkEntry("a", "u2", 10), mkEntry("b", "u2", 10)})

	assert.Equal(t, 2, q.Len())
	head, _ := q.PeekHead()
	assert.Equal(t, "a", head.SourceURL)
}
