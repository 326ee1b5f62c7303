// Package voice defines the voice transport collaborator boundary.
// The scheduler hands it a resolved entry and waits for completion; it
// does not manage audio decoding or the underlying connection.
package voice

import (
	"context"
	"sync"
	"time"

	"github.com/DoriNori7/BnuuyBotGithub/internal/domain/entry"
)

// Handle represents one in-flight playback on the transport.
type Handle interface {
	// Done is closed (or receives one error) when playback finishes.
	// A nil receive or a plain close means natural completion.
	Done() <-chan error
	// Stop ends playback early. The Done channel still completes.
	Stop() error
}

// Transport accepts entries for streaming.
type Transport interface {
	Begin(ctx context.Context, e entry.Entry, volume float64) (Handle, error)
	// Close releases the underlying connection. Called on scheduler kill.
	Close() error
}

// Pausable is an optional handle capability. Transports that cannot
// pause keep streaming; the scheduler still tracks paused time itself.
type Pausable interface {
	Pause() error
	Resume() error
}

// NopTransport is a transport that "plays" entries by sleeping for
// their duration (with a floor so zero-duration entries still
// complete). Used by the daemon shell when no real transport is mounted
// and by tests.
type NopTransport struct {
	// MinPlay caps the floor for entries with unknown duration.
	MinPlay time.Duration
}

func (t *NopTransport) Begin(ctx context.Context, e entry.Entry, volume float64) (Handle, error) {
	d := e.Duration()
	if d <= 0 {
		d = t.MinPlay
	}
	h := &nopHandle{done: make(chan error, 1)}
	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		case <-h.stopCh():
		}
		h.finish(nil)
	}()
	return h, nil
}

func (t *NopTransport) Close() error {
	return nil
}

type nopHandle struct {
	done     chan error
	stopOnce sync.Once
	stop     chan struct{}
	stopMu   sync.Mutex
	finished sync.Once
}

func (h *nopHandle) stopCh() chan struct{} {
	h.stopMu.Lock()
	defer h.stopMu.Unlock()
	if h.stop == nil {
		h.stop = make(chan struct{})
	}
	return h.stop
}

func (h *nopHandle) Done() <-chan error {
	return h.done
}

func (h *nopHandle) Stop() error {
	h.stopOnce.Do(func() { close(h.stopCh()) })
	return nil
}

func (h *nopHandle) finish(err error) {
	h.finished.Do(func() {
		h.done <- err
		close(h.done)
	})
}
