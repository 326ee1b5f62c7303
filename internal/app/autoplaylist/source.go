// Package autoplaylist provides the shared pool of filler media
// consumed when a tenant's queue is empty.
package autoplaylist

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	zlog "github.com/rs/zerolog/log"
)

// Source is the shared, durable autoplaylist: an ordered list of URLs
// backed by a newline-delimited file. It is the one piece of
// cross-tenant mutable state and carries its own lock, separate from
// any per-tenant lock.
//
// When the list drains to empty the source latches disabled for the
// process; appending a URL or calling Enable lifts the latch.
type Source struct {
	mu       sync.Mutex
	path     string
	urls     []string
	disabled bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Load reads the autoplaylist file and returns a source over it. A
// missing file yields an empty, disabled source rather than an error.
func Load(path string) (*Source, error) {
	s := &Source{path: path, done: make(chan struct{})}
	if err := s.reload(); err != nil {
		if !os.IsNotExist(errors.UnwrapAll(err)) {
			return nil, err
		}
		s.disabled = true
	}
	return s, nil
}

func (s *Source) reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.Wrap(err, "failed to open autoplaylist file")
	}
	defer f.Close()

	urls := make([]string, 0)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "failed to read autoplaylist file")
	}

	s.mu.Lock()
	s.urls = urls
	if len(urls) > 0 {
		s.disabled = false
	}
	s.mu.Unlock()
	return nil
}

// Watch starts picking up external edits to the autoplaylist file.
func (s *Source) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "failed to watch autoplaylist directory")
	}
	s.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := s.reload(); err != nil {
					zlog.Warn().Err(err).Msg("autoplaylist: reload after file change failed")
				} else {
					zlog.Info().Int("urls", s.Len()).Msg("autoplaylist: reloaded after file change")
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				zlog.Warn().Err(err).Msg("autoplaylist: watcher error")
			case <-s.done:
				return
			}
		}
	}()
	return nil
}

// Close stops the watcher.
func (s *Source) Close() error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Len returns the number of URLs in the shared pool.
func (s *Source) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// Refill returns a copy of the shared pool for a tenant's working copy.
// Returns nil when the pool is empty; the first empty refill latches
// the source disabled so tenants stop retrying until it is replenished.
func (s *Source) Refill() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return nil
	}
	if len(s.urls) == 0 {
		s.disabled = true
		zlog.Warn().Msg("autoplaylist: shared source exhausted, fallback disabled")
		return nil
	}
	out := make([]string, len(s.urls))
	copy(out, s.urls)
	return out
}

// Enabled reports whether the fallback is currently available.
func (s *Source) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.disabled
}

// Enable lifts the disabled latch, e.g. after the file was replenished.
func (s *Source) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = false
}

// Append adds a URL to the shared pool and persists it. Re-enables a
// disabled source.
func (s *Source) Append(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]string, 0, len(s.urls)+1)
	next = append(next, s.urls...)
	next = append(next, url)
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.urls = next
	s.disabled = false
	return nil
}

// Remove durably deletes a URL from the shared pool so no tenant
// retries it, across restarts included. The removal is computed on a
// copy and committed atomically under the source lock.
func (s *Source) Remove(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]string, 0, len(s.urls))
	found := false
	for _, u := range s.urls {
		if u == url {
			found = true
			continue
		}
		next = append(next, u)
	}
	if !found {
		return nil
	}
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.urls = next
	zlog.Info().Str("url", url).Msg("autoplaylist: removed unplayable url")
	return nil
}

// writeLocked rewrites the backing file atomically (temp file + rename).
// Must be called with the source lock held.
func (s *Source) writeLocked(urls []string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create autoplaylist directory")
	}
	tmp, err := os.CreateTemp(dir, ".autoplaylist-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, u := range urls {
		if _, err := w.WriteString(u + "\n"); err != nil {
			_ = tmp.Close()
			return errors.Wrap(err, "failed to write autoplaylist")
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to flush autoplaylist")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "failed to replace autoplaylist file")
	}
	return nil
}
