// Package entry provides the playable Entry domain entity.
package entry

import "time"

// DownloadState represents the resolution/download state of an entry.
type DownloadState int

const (
	DownloadPending   DownloadState = iota // Not yet handed to the resolver
	DownloadResolving                      // Resolver is working on it
	DownloadReady                          // Playable
	DownloadFailed                         // Resolution failed
)

// String returns the string representation of the download state.
func (s DownloadState) String() string {
	switch s {
	case DownloadPending:
		return "pending"
	case DownloadResolving:
		return "resolving"
	case DownloadReady:
		return "ready"
	case DownloadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Entry represents one playable media item.
// Immutable after creation; owned by exactly one queue until played or removed.
type Entry struct {
	SourceURL        string        `json:"sourceURL"`
	Title            string        `json:"title"`
	DurationSeconds  int           `json:"durationSeconds"` // 0 if unknown or live
	RequesterID      string        `json:"requesterID,omitempty"`
	RequestChannelID string        `json:"requestChannelID,omitempty"`
	DownloadState    DownloadState `json:"-"`
	AddedAt          time.Time     `json:"-"`
}

// Duration returns the entry duration as a time.Duration.
// Zero for entries with unknown duration.
func (e Entry) Duration() time.Duration {
	return time.Duration(e.DurationSeconds) * time.Second
}

// FromAutoplaylist reports whether the entry originated from the shared
// autoplaylist rather than a user request.
func (e Entry) FromAutoplaylist() bool {
	return e.RequesterID == ""
}

// Persistable reports whether the entry participates in snapshot writes.
// Autoplaylist filler is intentionally excluded so a restart does not
// replay it.
func (e Entry) Persistable() bool {
	return e.RequesterID != "" && e.RequestChannelID != ""
}

// Snapshot is the durable representation of a tenant's queue plus the
// entry playing at the time of the write.
type Snapshot struct {
	Entries      []Entry `json:"entries"`
	CurrentEntry *Entry  `json:"currentEntry"`
}
