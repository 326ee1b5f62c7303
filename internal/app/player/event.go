package player

import "github.com/DoriNori7/BnuuyBotGithub/internal/domain/entry"

// EventType represents a scheduler lifecycle event kind.
type EventType int

const (
	EventPlay            EventType = iota // An entry started streaming
	EventResume                           // Paused playback resumed
	EventPause                            // Playback paused
	EventStop                             // Playback stopped, queue empty or explicit stop
	EventFinishedPlaying                  // The current entry completed
	EventEntryAdded                       // One or more entries were enqueued
	EventError                            // Playback or resolution failed for an entry
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventPlay:
		return "play"
	case EventResume:
		return "resume"
	case EventPause:
		return "pause"
	case EventStop:
		return "stop"
	case EventFinishedPlaying:
		return "finished-playing"
	case EventEntryAdded:
		return "entry-added"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is the tagged union delivered to the host application. Events
// for one tenant are delivered in emission order; no ordering holds
// across tenants.
type Event struct {
	Type     EventType
	TenantID string
	Entry    *entry.Entry // The entry involved, nil for some events
	State    State
	Err      error // Set for EventError
}
