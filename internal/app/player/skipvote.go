package player

import "math"

// SkipVoteTracker accumulates distinct voter identities against the
// currently playing entry. It is reset on every play transition, so
// votes never carry over between entries.
type SkipVoteTracker struct {
	voters map[string]struct{}
}

// NewSkipVoteTracker creates an empty tracker.
func NewSkipVoteTracker() *SkipVoteTracker {
	return &SkipVoteTracker{voters: make(map[string]struct{})}
}

// AddVoter registers a voter and returns the distinct vote count. A
// voter contributes at most one vote no matter how often they vote.
func (t *SkipVoteTracker) AddVoter(id string) int {
	t.voters[id] = struct{}{}
	return len(t.voters)
}

// Count returns the distinct vote count.
func (t *SkipVoteTracker) Count() int {
	return len(t.voters)
}

// Reset clears all votes.
func (t *SkipVoteTracker) Reset() {
	t.voters = make(map[string]struct{})
}

// RequiredVotes computes the vote threshold for the given listener
// count: min(maxSkips, ceil(ratio * members)), clamped to at least 1 so
// an empty channel cannot make skipping impossible.
func RequiredVotes(activeMembers int, ratio float64, maxSkips int) int {
	required := int(math.Ceil(ratio * float64(activeMembers)))
	if maxSkips > 0 && required > maxSkips {
		required = maxSkips
	}
	if required < 1 {
		required = 1
	}
	return required
}
