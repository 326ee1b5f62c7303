package player

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/DoriNori7/BnuuyBotGithub/internal/app/guard"
	"github.com/DoriNori7/BnuuyBotGithub/internal/app/queue"
	"github.com/DoriNori7/BnuuyBotGithub/internal/app/throttle"
	"github.com/DoriNori7/BnuuyBotGithub/internal/domain/entry"
	"github.com/DoriNori7/BnuuyBotGithub/internal/resolve"
	"github.com/DoriNori7/BnuuyBotGithub/internal/voice"
)

// Errors
var (
	ErrDead       = errors.New("scheduler is not active")
	ErrNotPlaying = errors.New("no entry playing")
	ErrBadVolume  = errors.New("volume must be in (0,1]")
)

// SnapshotStore is the persistence collaborator consumed by the
// scheduler. Save failures are logged and skipped, never fatal.
type SnapshotStore interface {
	Save(ctx context.Context, tenantID string, snap entry.Snapshot) error
	Load(ctx context.Context, tenantID string) (*entry.Snapshot, error)
}

// Fallback supplies the shared autoplaylist pool. Refill returns a copy
// of the shared list for this tenant's working cache, or nil when the
// pool is empty or disabled. Remove durably drops an unplayable URL.
type Fallback interface {
	Refill() []string
	Remove(url string) error
}

// Config holds scheduler tuning.
type Config struct {
	SkipRatio          float64 // Fraction of active listeners required to skip
	MaxSkips           int     // Hard cap on required skip votes
	DefaultVolume      float64 // Initial volume, (0,1]
	AutoplaylistRandom bool    // Random vs FIFO fallback selection
	RequestsPerMinute  int     // Per-requester request rate, 0 disables
	RequestBurst       int

	// KaraokeExempt reports whether a requester's entries still play in
	// karaoke mode. The permission decision comes from the host; nil
	// means nobody is exempt.
	KaraokeExempt func(requesterID string) bool
}

// SkipStatus reports the outcome of a skip request.
type SkipStatus struct {
	Skipped   bool
	Votes     int // Distinct votes so far, 0 after a skip
	Required  int
	Remaining int // Votes still needed
}

// RequestStatus reports the outcome of a resolve-and-enqueue request.
type RequestStatus struct {
	Result   guard.Result
	Added    int
	Dropped  int
	Playlist bool
	Title    string
}

// Scheduler is the per-tenant playback state machine. It owns one
// playback queue, drives playback through the voice transport, and
// emits lifecycle events in order on its event channel.
type Scheduler struct {
	mu sync.Mutex

	id       string
	tenantID string
	cfg      Config

	state   State
	queue   *queue.PlaybackQueue
	current *entry.Entry
	votes   *SkipVoteTracker
	volume  float64
	karaoke bool

	// Remaining-time accounting for the current entry.
	startedAt     time.Time
	pausedAt      *time.Time
	pausedElapsed time.Duration

	// Generation token: bumped on every playback start, stop, skip and
	// kill so a stale transport-completion callback cannot advance the
	// queue twice.
	gen uint64

	transport voice.Transport
	handle    voice.Handle
	resolver  resolve.Resolver
	store     SnapshotStore
	fallback  Fallback
	localPool []string // Tenant working copy of the shared autoplaylist

	locks    *throttle.KeyedMutex
	limiters *throttle.Limiters

	eventCh chan Event
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler for one tenant. It starts Stopped.
func NewScheduler(tenantID string, transport voice.Transport, resolver resolve.Resolver, store SnapshotStore, fallback Fallback, cfg Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	volume := cfg.DefaultVolume
	if volume <= 0 || volume > 1 {
		volume = 0.15
	}

	s := &Scheduler{
		id:        uuid.New().String(),
		tenantID:  tenantID,
		cfg:       cfg,
		state:     StateStopped,
		queue:     queue.New(),
		votes:     NewSkipVoteTracker(),
		volume:    volume,
		transport: transport,
		resolver:  resolver,
		store:     store,
		fallback:  fallback,
		locks:     throttle.NewKeyedMutex(),
		eventCh:   make(chan Event, 32),
		ctx:       ctx,
		cancel:    cancel,
	}
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.RequestBurst
		if burst < 1 {
			burst = 1
		}
		s.limiters = throttle.NewLimiters(rate.Limit(float64(cfg.RequestsPerMinute)/60), burst)
	}
	return s
}

// ID returns the scheduler instance ID.
func (s *Scheduler) ID() string {
	return s.id
}

// TenantID returns the owning tenant.
func (s *Scheduler) TenantID() string {
	return s.tenantID
}

// Events returns the event channel. Closed when the scheduler dies.
func (s *Scheduler) Events() <-chan Event {
	return s.eventCh
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the currently playing (or paused) entry.
func (s *Scheduler) Current() (*entry.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, false
	}
	e := *s.current
	return &e, true
}

// Volume returns the current volume.
func (s *Scheduler) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume updates the volume; must be in (0,1].
func (s *Scheduler) SetVolume(v float64) error {
	if v <= 0 || v > 1 {
		return ErrBadVolume
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
	return nil
}

// Karaoke returns whether karaoke mode is on.
func (s *Scheduler) Karaoke() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.karaoke
}

// SetKaraoke toggles karaoke mode. While on, entries from
// non-exempt requesters are dropped at dequeue time.
func (s *Scheduler) SetKaraoke(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.karaoke = on
}

// QueueLen returns the number of queued entries.
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// QueueEntries returns a copy of the queued entries.
func (s *Scheduler) QueueEntries() []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Entries()
}

// EstimateTimeUntil returns the estimated wait before the entry at the
// given queue position starts playing.
func (s *Scheduler) EstimateTimeUntil(position int) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.EstimateTimeUntil(position, s.remainingLocked())
}

// RemoveAt removes the queued entry at the given position.
func (s *Scheduler) RemoveAt(i int) (entry.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.RemoveAt(i)
}

// RemoveAllBy removes every queued entry by the given requester.
func (s *Scheduler) RemoveAllBy(requesterID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.RemoveAllBy(requesterID)
}

// Shuffle randomizes the queued entries.
func (s *Scheduler) Shuffle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Shuffle()
}

// ClearQueue drops all queued entries and returns how many were removed.
func (s *Scheduler) ClearQueue() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Clear()
}

// Restore loads a persisted snapshot into the queue. The entry that was
// playing at save time goes back to the head so it restarts on the next
// play transition. Intended to be called once, at creation.
func (s *Scheduler) Restore(snap *entry.Snapshot) {
	if snap == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	es := make([]entry.Entry, 0, len(snap.Entries)+1)
	if snap.CurrentEntry != nil {
		es = append(es, *snap.CurrentEntry)
	}
	es = append(es, snap.Entries...)
	s.queue.Restore(es)
}

// Request resolves a query and enqueues the result, expanding playlist
// results into a bulk import. The per-requester lock closes the window
// where two concurrent requests both pass the quota check before either
// commits.
func (s *Scheduler) Request(ctx context.Context, query, requesterID, channelID string, wantDownload bool, perms guard.Permissions) (RequestStatus, error) {
	unlock := s.locks.Lock(throttle.ScopeRequest, requesterID)
	defer unlock()

	if s.limiters != nil && !s.limiters.Allow(requesterID) {
		return RequestStatus{Result: guard.Reject(guard.CodeRateLimited)}, nil
	}

	// Cheap pre-check before paying for resolution.
	s.mu.Lock()
	if s.state == StateDead {
		s.mu.Unlock()
		return RequestStatus{}, ErrDead
	}
	if res := perms.CheckEnqueue(s.queue.CountFor(requesterID)); !res.Accepted {
		s.mu.Unlock()
		return RequestStatus{Result: res}, nil
	}
	s.mu.Unlock()

	// Resolution honors both the caller's deadline and the scheduler's
	// lifetime, so a kill unwinds an in-flight resolve.
	rctx, rcancel := context.WithCancel(ctx)
	defer rcancel()
	stop := context.AfterFunc(s.ctx, rcancel)
	defer stop()

	result, err := s.resolver.Resolve(rctx, query, wantDownload)
	if err != nil {
		return RequestStatus{}, err
	}
	if len(result.Entries) == 0 {
		return RequestStatus{}, resolve.NewExtractionError(query, errors.New("no playable entries"))
	}

	now := time.Now()
	es := make([]entry.Entry, 0, len(result.Entries))
	for _, m := range result.Entries {
		es = append(es, entry.Entry{
			SourceURL:        m.SourceURL,
			Title:            m.Title,
			DurationSeconds:  m.DurationSeconds,
			RequesterID:      requesterID,
			RequestChannelID: channelID,
			DownloadState:    entry.DownloadReady,
			AddedAt:          now,
		})
	}

	if result.IsPlaylist() {
		added, dropped, res, err := s.ImportMany(ctx, es, perms)
		return RequestStatus{Result: res, Added: added, Dropped: dropped, Playlist: true, Title: result.Title}, err
	}

	res, err := s.Enqueue(ctx, es[0], perms)
	st := RequestStatus{Result: res, Title: es[0].Title}
	if res.Accepted {
		st.Added = 1
	}
	return st, err
}

// Enqueue adds one entry after quota and duration checks. Rejections
// are reported in the result, not as errors; nothing is mutated on a
// rejection.
func (s *Scheduler) Enqueue(ctx context.Context, e entry.Entry, perms guard.Permissions) (guard.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDead {
		return guard.Result{}, ErrDead
	}
	if res := perms.CheckEnqueue(s.queue.CountFor(e.RequesterID)); !res.Accepted {
		return res, nil
	}
	if perms.ExceedsDuration(e) {
		return guard.Reject(guard.CodeSongTooLong), nil
	}

	s.queue.Append(e)
	s.sendLocked(Event{Type: EventEntryAdded, TenantID: s.tenantID, Entry: &e, State: s.state})
	if e.Persistable() {
		s.saveSnapshotLocked(ctx)
	}

	if s.state == StateStopped {
		if err := s.playNextLocked(ctx); err != nil {
			zlog.Warn().Err(err).Str("tenant", s.tenantID).Msg("player: autostart after enqueue failed")
		}
	}
	return guard.Accept(), nil
}

// ImportMany validates and appends a bulk result atomically: both size
// limits are checked before any entry lands, then entries over the
// duration cap are dropped with a count. An import that empties to zero
// net entries fails with ErrAllSongsOverLimit rather than silently
// succeeding.
func (s *Scheduler) ImportMany(ctx context.Context, es []entry.Entry, perms guard.Permissions) (added, dropped int, res guard.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDead {
		return 0, 0, guard.Result{}, ErrDead
	}
	if len(es) == 0 {
		return 0, 0, guard.Accept(), nil
	}

	requesterID := es[0].RequesterID
	if res := perms.CheckImport(s.queue.CountFor(requesterID), len(es)); !res.Accepted {
		return 0, 0, res, nil
	}

	kept, dropped := perms.FilterByDuration(es)
	if len(kept) == 0 {
		return 0, dropped, guard.Reject(guard.CodeAllSongsOverLimit), guard.ErrAllSongsOverLimit
	}

	s.queue.ImportMany(kept)
	s.sendLocked(Event{Type: EventEntryAdded, TenantID: s.tenantID, Entry: &kept[0], State: s.state})
	if kept[0].Persistable() {
		s.saveSnapshotLocked(ctx)
	}

	if s.state == StateStopped {
		if err := s.playNextLocked(ctx); err != nil {
			zlog.Warn().Err(err).Str("tenant", s.tenantID).Msg("player: autostart after import failed")
		}
	}

	// A speculatively started entry may itself be over the cap; it is
	// force-skipped rather than allowed to finish.
	if s.current != nil && perms.ExceedsDuration(*s.current) {
		zlog.Info().Str("tenant", s.tenantID).Str("title", s.current.Title).
			Msg("player: current entry over duration cap, force skipping")
		s.skipCurrentLocked(ctx)
	}

	return len(kept), dropped, guard.Accept(), nil
}

// Play starts or resumes playback.
func (s *Scheduler) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateDead:
		return ErrDead
	case StatePlaying:
		return nil
	case StatePaused:
		return s.resumeLocked()
	default:
		return s.playNextLocked(ctx)
	}
}

// Pause suspends playback. Idempotent: pausing an already paused
// scheduler changes nothing and emits nothing.
func (s *Scheduler) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateDead:
		return ErrDead
	case StatePaused:
		return nil
	case StateStopped:
		return ErrNotPlaying
	}

	now := time.Now()
	s.pausedAt = &now
	s.state = StatePaused
	if p, ok := s.handle.(voice.Pausable); ok {
		if err := p.Pause(); err != nil {
			zlog.Warn().Err(err).Str("tenant", s.tenantID).Msg("player: transport pause failed")
		}
	}
	s.sendLocked(Event{Type: EventPause, TenantID: s.tenantID, Entry: s.current, State: s.state})
	return nil
}

// Resume continues paused playback. Idempotent if already playing.
func (s *Scheduler) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDead {
		return ErrDead
	}
	if s.state == StatePlaying {
		return nil
	}
	if s.state != StatePaused {
		return ErrNotPlaying
	}
	return s.resumeLocked()
}

func (s *Scheduler) resumeLocked() error {
	if s.pausedAt != nil {
		s.pausedElapsed += time.Since(*s.pausedAt)
		s.pausedAt = nil
	}
	s.state = StatePlaying
	if p, ok := s.handle.(voice.Pausable); ok {
		if err := p.Resume(); err != nil {
			zlog.Warn().Err(err).Str("tenant", s.tenantID).Msg("player: transport resume failed")
		}
	}
	s.sendLocked(Event{Type: EventResume, TenantID: s.tenantID, Entry: s.current, State: s.state})
	return nil
}

// Stop ends playback and clears the current entry. The queue is kept.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDead {
		return ErrDead
	}
	if s.state == StateStopped {
		return nil
	}
	s.stopPlaybackLocked()
	s.state = StateStopped
	s.sendLocked(Event{Type: EventStop, TenantID: s.tenantID, State: s.state})
	return nil
}

// Skip arbitrates a skip request. A force skip (the permission decision
// comes from the caller) advances immediately; otherwise the vote is
// registered and the entry ends once the distinct-vote threshold is met.
func (s *Scheduler) Skip(ctx context.Context, voterID string, force bool, activeMembers int) (SkipStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDead {
		return SkipStatus{}, ErrDead
	}
	if s.current == nil {
		return SkipStatus{}, ErrNotPlaying
	}

	if force {
		s.skipCurrentLocked(ctx)
		return SkipStatus{Skipped: true}, nil
	}

	votes := s.votes.AddVoter(voterID)
	required := RequiredVotes(activeMembers, s.cfg.SkipRatio, s.cfg.MaxSkips)
	if votes >= required {
		s.skipCurrentLocked(ctx)
		return SkipStatus{Skipped: true, Required: required}, nil
	}
	return SkipStatus{Votes: votes, Required: required, Remaining: required - votes}, nil
}

// Kill tears the scheduler down: cancels in-flight resolver work,
// releases the voice transport, and transitions to the terminal Dead
// state. Idempotent and safe to call concurrently with play or skip.
func (s *Scheduler) Kill() {
	// Cancel outside the lock so an in-flight resolution holding the
	// lock unwinds instead of deadlocking the kill.
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDead {
		return
	}
	s.gen++
	if s.handle != nil {
		_ = s.handle.Stop()
		s.handle = nil
	}
	if err := s.transport.Close(); err != nil {
		zlog.Warn().Err(err).Str("tenant", s.tenantID).Msg("player: transport close failed")
	}
	s.current = nil
	s.state = StateDead
	close(s.eventCh)
	zlog.Info().Str("tenant", s.tenantID).Msg("player: scheduler killed")
}

// stopPlaybackLocked ends the current playback without emitting events
// or changing state. Bumps the generation so the transport watcher for
// the old entry is ignored.
func (s *Scheduler) stopPlaybackLocked() {
	s.gen++
	if s.handle != nil {
		_ = s.handle.Stop()
		s.handle = nil
	}
	s.current = nil
	s.votes.Reset()
	s.pausedAt = nil
	s.pausedElapsed = 0
}

// skipCurrentLocked ends the current entry as if it had finished and
// advances to the next one.
func (s *Scheduler) skipCurrentLocked(ctx context.Context) {
	skipped := s.current
	s.stopPlaybackLocked()
	s.sendLocked(Event{Type: EventFinishedPlaying, TenantID: s.tenantID, Entry: skipped, State: s.state})
	if err := s.playNextLocked(ctx); err != nil {
		zlog.Warn().Err(err).Str("tenant", s.tenantID).Msg("player: advance after skip failed")
	}
}

// playNextLocked pulls the next entry (queue first, autoplaylist
// fallback second) and starts it. With nothing to play the scheduler
// transitions to Stopped; an empty queue is a normal state, not an
// error.
func (s *Scheduler) playNextLocked(ctx context.Context) error {
	for {
		if s.ctx.Err() != nil {
			return nil
		}

		e, ok := s.queue.PopHead()
		if ok && s.karaoke && e.RequesterID != "" && !s.karaokeExempt(e.RequesterID) {
			zlog.Debug().Str("tenant", s.tenantID).Str("title", e.Title).
				Msg("player: karaoke mode, dropping non-exempt entry")
			continue
		}
		if !ok {
			e, ok = s.takeFallbackLocked(ctx)
		}
		if !ok {
			s.state = StateStopped
			s.sendLocked(Event{Type: EventStop, TenantID: s.tenantID, State: s.state})
			return nil
		}

		if err := s.startPlaybackLocked(ctx, e); err != nil {
			s.sendLocked(Event{Type: EventError, TenantID: s.tenantID, Entry: &e, State: s.state, Err: err})
			continue
		}
		return nil
	}
}

func (s *Scheduler) karaokeExempt(requesterID string) bool {
	return s.cfg.KaraokeExempt != nil && s.cfg.KaraokeExempt(requesterID)
}

// takeFallbackLocked consumes one URL from the tenant's autoplaylist
// working copy, refilling from the shared source when exhausted, and
// resolves it into an entry. URLs that fail resolution are removed from
// the shared source so no tenant retries them.
func (s *Scheduler) takeFallbackLocked(ctx context.Context) (entry.Entry, bool) {
	if s.fallback == nil || s.resolver == nil {
		return entry.Entry{}, false
	}
	for {
		if s.ctx.Err() != nil {
			return entry.Entry{}, false
		}
		if len(s.localPool) == 0 {
			s.localPool = s.fallback.Refill()
			if len(s.localPool) == 0 {
				return entry.Entry{}, false
			}
		}

		idx := 0
		if s.cfg.AutoplaylistRandom {
			idx = rand.Intn(len(s.localPool))
		}
		url := s.localPool[idx]
		s.localPool = append(s.localPool[:idx], s.localPool[idx+1:]...)

		result, err := s.resolver.Resolve(s.ctx, url, false)
		if err != nil || len(result.Entries) == 0 {
			if s.ctx.Err() != nil {
				return entry.Entry{}, false
			}
			zlog.Warn().Err(err).Str("tenant", s.tenantID).Str("url", url).
				Msg("player: autoplaylist url failed resolution")
			if rmErr := s.fallback.Remove(url); rmErr != nil {
				zlog.Warn().Err(rmErr).Str("url", url).Msg("player: autoplaylist removal failed")
			}
			continue
		}

		m := result.Entries[0]
		return entry.Entry{
			SourceURL:       m.SourceURL,
			Title:           m.Title,
			DurationSeconds: m.DurationSeconds,
			DownloadState:   entry.DownloadReady,
			AddedAt:         time.Now(),
		}, true
	}
}

// startPlaybackLocked makes e the current entry and begins streaming.
func (s *Scheduler) startPlaybackLocked(ctx context.Context, e entry.Entry) error {
	handle, err := s.transport.Begin(s.ctx, e, s.volume)
	if err != nil {
		return errors.Wrap(err, "transport begin failed")
	}

	s.current = &e
	s.handle = handle
	s.votes.Reset()
	s.state = StatePlaying
	s.startedAt = time.Now()
	s.pausedAt = nil
	s.pausedElapsed = 0
	s.gen++
	gen := s.gen

	go s.watchPlayback(handle, gen, e)

	s.sendLocked(Event{Type: EventPlay, TenantID: s.tenantID, Entry: &e, State: s.state})
	s.saveSnapshotLocked(ctx)
	return nil
}

// watchPlayback waits for the transport to report completion and
// advances the queue. Runs outside the lock; the generation token keeps
// it from acting after a stop, skip or kill.
func (s *Scheduler) watchPlayback(h voice.Handle, gen uint64, e entry.Entry) {
	var perr error
	select {
	case perr = <-h.Done():
	case <-s.ctx.Done():
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDead || gen != s.gen {
		return
	}

	s.stopPlaybackLocked()
	if perr != nil {
		// Transport failure still advances; a broken entry must not
		// wedge the whole tenant.
		s.sendLocked(Event{Type: EventError, TenantID: s.tenantID, Entry: &e, State: s.state, Err: perr})
	} else {
		s.sendLocked(Event{Type: EventFinishedPlaying, TenantID: s.tenantID, Entry: &e, State: s.state})
	}
	if err := s.playNextLocked(s.ctx); err != nil {
		zlog.Warn().Err(err).Str("tenant", s.tenantID).Msg("player: advance after completion failed")
	}
}

// remainingLocked returns how much of the current entry is left,
// adjusted for pause time. Zero for unknown durations.
func (s *Scheduler) remainingLocked() time.Duration {
	if s.current == nil || s.current.DurationSeconds == 0 {
		return 0
	}
	elapsed := time.Since(s.startedAt) - s.pausedElapsed
	if s.pausedAt != nil {
		elapsed -= time.Since(*s.pausedAt)
	}
	remaining := s.current.Duration() - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SaveSnapshot persists the current entry plus the remaining queue.
func (s *Scheduler) SaveSnapshot(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveSnapshotLocked(ctx)
}

// saveSnapshotLocked writes the snapshot, excluding autoplaylist
// filler. Failures are logged and skipped; the next triggering event
// retries.
func (s *Scheduler) saveSnapshotLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	snap := entry.Snapshot{Entries: make([]entry.Entry, 0, s.queue.Len())}
	for _, e := range s.queue.Entries() {
		if e.Persistable() {
			snap.Entries = append(snap.Entries, e)
		}
	}
	if s.current != nil && s.current.Persistable() {
		cur := *s.current
		snap.CurrentEntry = &cur
	}
	if err := s.store.Save(ctx, s.tenantID, snap); err != nil {
		zlog.Warn().Err(err).Str("tenant", s.tenantID).Msg("player: snapshot save failed")
	}
}

// sendLocked emits an event without blocking. Must be called with the
// lock held; events stay ordered because every emit happens under it.
func (s *Scheduler) sendLocked(e Event) {
	if s.state == StateDead {
		return
	}
	select {
	case s.eventCh <- e:
	default:
		zlog.Warn().Str("tenant", s.tenantID).Str("event", e.Type.String()).
			Msg("player: event channel full, dropping event")
	}
}
