// Package guard provides admission checks for queue mutations: per-user
// quotas, playlist import limits, and song duration caps.
package guard

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/DoriNori7/BnuuyBotGithub/internal/domain/entry"
)

// Rejection codes reported to the caller.
const (
	CodeMaxSongsReached   = "max_songs_reached"
	CodePlaylistTooLong   = "playlist_too_long"
	CodeAllSongsOverLimit = "all_songs_exceeded_limit"
	CodeSongTooLong       = "song_too_long"
	CodeRateLimited       = "rate_limited"
)

// ErrAllSongsOverLimit is returned when a duration cap empties a bulk
// import to zero net entries.
var ErrAllSongsOverLimit = errors.New("all songs exceeded the duration limit")

// Permissions holds the quota limits applied to a requester. A zero
// value for any field means that limit is not enforced.
type Permissions struct {
	MaxSongs             int `yaml:"max_songs" mapstructure:"max_songs" default:"0" validate:"gte=0"`
	MaxPlaylistLength    int `yaml:"max_playlist_length" mapstructure:"max_playlist_length" default:"0" validate:"gte=0"`
	MaxSongLengthSeconds int `yaml:"max_song_length_seconds" mapstructure:"max_song_length_seconds" default:"0" validate:"gte=0"`
}

// DecodePermissions builds a Permissions from a free-form settings map,
// applying defaults and validation.
func DecodePermissions(settings map[string]any) (Permissions, error) {
	var p Permissions
	if err := mapstructure.Decode(settings, &p); err != nil {
		return Permissions{}, errors.Wrap(err, "failed to decode permissions")
	}
	if err := defaults.Set(&p); err != nil {
		return Permissions{}, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(p); err != nil {
		return Permissions{}, errors.Wrap(err, "validation failed")
	}
	return p, nil
}

// Result represents the outcome of an admission check.
type Result struct {
	Accepted bool
	Code     string
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// CheckEnqueue decides whether a requester already holding queuedCount
// entries may add one more.
func (p Permissions) CheckEnqueue(queuedCount int) Result {
	if p.MaxSongs > 0 && queuedCount >= p.MaxSongs {
		return Reject(CodeMaxSongsReached)
	}
	return Accept()
}

// CheckImport decides whether a requester already holding queuedCount
// entries may import n more in one bulk operation. Both limits are
// checked before any entry is appended.
func (p Permissions) CheckImport(queuedCount, n int) Result {
	if p.MaxPlaylistLength > 0 && n > p.MaxPlaylistLength {
		return Reject(CodePlaylistTooLong)
	}
	if p.MaxSongs > 0 && queuedCount+n > p.MaxSongs {
		return Reject(CodeMaxSongsReached)
	}
	return Accept()
}

// ExceedsDuration reports whether an entry is over the song length cap.
// Entries with unknown duration are never over the cap.
func (p Permissions) ExceedsDuration(e entry.Entry) bool {
	return p.MaxSongLengthSeconds > 0 && e.DurationSeconds > p.MaxSongLengthSeconds
}

// FilterByDuration drops entries over the song length cap from a bulk
// import, returning the survivors and the drop count. Callers treat a
// fully emptied import as a failure, not a silent success.
func (p Permissions) FilterByDuration(es []entry.Entry) (kept []entry.Entry, dropped int) {
	kept = make([]entry.Entry, 0, len(es))
	for _, e := range es {
		if p.ExceedsDuration(e) {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	return kept, dropped
}
