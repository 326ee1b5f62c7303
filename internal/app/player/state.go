// Package player provides the per-tenant music scheduler: a state
// machine that owns one playback queue and drives sequential playback
// through the voice transport.
package player

// State represents the scheduler lifecycle state.
type State int

const (
	StateStopped State = iota // Nothing playing, queue may hold entries
	StatePlaying              // An entry is streaming
	StatePaused               // Streaming suspended, current entry retained
	StateDead                 // Terminal; scheduler is evicted and never reused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}
