package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkipVoteTracker_DuplicateVotes(t *testing.T) {
	tr := NewSkipVoteTracker()

	assert.Equal(t, 1, tr.AddVoter("alice"))
	assert.Equal(t, 1, tr.AddVoter("alice"), "same voter counts once")
	assert.Equal(t, 2, tr.AddVoter("bob"))
	assert.Equal(t, 2, tr.Count())
}

func TestSkipVoteTracker_Reset(t *testing.T) {
	tr := NewSkipVoteTracker()
	tr.AddVoter("alice")
	tr.AddVoter("bob")

	tr.Reset()
	assert.Equal(t, 0, tr.Count())
	assert.Equal(t, 1, tr.AddVoter("alice"))
}

func TestRequiredVotes(t *testing.T) {
	tests := []struct {
		name     string
		members  int
		ratio    float64
		maxSkips int
		want     int
	}{
		// The pinned worked example: 4 listeners at ratio 0.5 need 2
		// votes, under the cap of 3.
		{name: "Ratio times members", members: 4, ratio: 0.5, maxSkips: 3, want: 2},
		{name: "Capped by max skips", members: 20, ratio: 0.5, maxSkips: 3, want: 3},
		{name: "Ceil rounds up", members: 5, ratio: 0.5, maxSkips: 10, want: 3},
		{name: "Empty channel clamps to one", members: 0, ratio: 0.5, maxSkips: 3, want: 1},
		{name: "Single listener", members: 1, ratio: 0.5, maxSkips: 3, want: 1},
		{name: "Zero max skips means uncapped", members: 10, ratio: 1.0, maxSkips: 0, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiredVotes(tt.members, tt.ratio, tt.maxSkips))
		})
	}
}
