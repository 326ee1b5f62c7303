package persist

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoriNori7/BnuuyBotGithub/internal/domain/entry"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// mkEntry carries only the durable fields; runtime-only state is
// covered separately.
func mkEntry(url string) entry.Entry {
	return entry.Entry{
		SourceURL:        url,
		Title:            url,
		DurationSeconds:  120,
		RequesterID:      "user-1",
		RequestChannelID: "chan-1",
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cur := mkEntry("current")
	snap := entry.Snapshot{
		Entries:      []entry.Entry{mkEntry("a"), mkEntry("b")},
		CurrentEntry: &cur,
	}
	require.NoError(t, s.Save(ctx, "guild-a", snap))

	got, err := s.Load(ctx, "guild-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.Entries, got.Entries)
	require.NotNil(t, got.CurrentEntry)
	assert.Equal(t, cur, *got.CurrentEntry)
}

func TestStore_RuntimeFieldsNotPersisted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := mkEntry("a")
	e.DownloadState = entry.DownloadReady
	e.AddedAt = time.Now()
	require.NoError(t, s.Save(ctx, "guild-a", entry.Snapshot{Entries: []entry.Entry{e}}))

	got, err := s.Load(ctx, "guild-a")
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)

	// Download state and the added-at timestamp are runtime-only and do
	// not survive the round trip.
	assert.Equal(t, entry.DownloadPending, got.Entries[0].DownloadState)
	assert.True(t, got.Entries[0].AddedAt.IsZero())
}

func TestStore_LoadAbsent(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Load(context.Background(), "guild-unknown")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_EmptySnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "guild-a", entry.Snapshot{}))

	got, err := s.Load(ctx, "guild-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Entries)
	assert.Nil(t, got.CurrentEntry)
}

func TestStore_Upsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "guild-a", entry.Snapshot{Entries: []entry.Entry{mkEntry("old")}}))
	require.NoError(t, s.Save(ctx, "guild-a", entry.Snapshot{Entries: []entry.Entry{mkEntry("new")}}))

	got, err := s.Load(ctx, "guild-a")
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "new", got.Entries[0].SourceURL)
}

func TestStore_TenantsIsolated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "guild-a", entry.Snapshot{Entries: []entry.Entry{mkEntry("a")}}))
	require.NoError(t, s.Save(ctx, "guild-b", entry.Snapshot{Entries: []entry.Entry{mkEntry("b")}}))

	a, err := s.Load(ctx, "guild-a")
	require.NoError(t, err)
	assert.Equal(t, "a", a.Entries[0].SourceURL)

	b, err := s.Load(ctx, "guild-b")
	require.NoError(t, err)
	assert.Equal(t, "b", b.Entries[0].SourceURL)

	ids, err := s.Tenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"guild-a", "guild-b"}, ids)
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "guild-a", entry.Snapshot{Entries: []entry.Entry{mkEntry("a")}}))
	require.NoError(t, s.Delete(ctx, "guild-a"))

	got, err := s.Load(ctx, "guild-a")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting an absent tenant is a no-op.
	require.NoError(t, s.Delete(ctx, "guild-unknown"))
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshots.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "guild-a", entry.Snapshot{Entries: []entry.Entry{mkEntry("a")}}))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Load(ctx, "guild-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Entries[0].SourceURL)
}
