package poll

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentages(t *testing.T) {
	tests := []struct {
		name         string
		a, b         int
		wantA, wantB int
	}{
		{"no votes", 0, 0, 0, 0},
		{"three to one", 3, 1, 75, 25},
		{"even", 1, 1, 50, 50},
		{"one to two", 1, 2, 33, 67},
		{"all on a", 4, 0, 100, 0},
		// 1/8 = 12.5 and 7/8 = 87.5 both round up: the pair sums to 101.
		{"independent rounding overshoots", 1, 7, 13, 88},
		{"one to five", 1, 5, 17, 83},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotA, gotB := Percentages(tt.a, tt.b)
			assert.Equal(t, tt.wantA, gotA)
			assert.Equal(t, tt.wantB, gotB)
		})
	}
}

func TestPercentages_NotNormalised(t *testing.T) {
	a, b := Percentages(1, 7)
	assert.Equal(t, 101, a+b)
}

func TestPoll_DecodeBackendPayload(t *testing.T) {
	payload := `{
		"id": 4, "voting_poll_id": "ab12cd3", "poll_due_date": "2026-11-15",
		"poll_has_ended": false, "author": 9,
		"poll_a": {"poll_id": "ab12cd3A", "poll_A": "Cats", "image_A": "https://img/a.png", "vote_A": 3,
			"voter": [{"id": 1, "username": "quietfox"}]},
		"poll_b": {"poll_id": "ab12cd3B", "poll_B": "Dogs", "image_B": "https://img/b.png", "vote_B": 1,
			"voter": [{"id": 2, "username": "loudowl", "email": "o@x.test"}]}
	}`

	var p Poll
	require.NoError(t, json.Unmarshal([]byte(payload), &p))

	assert.True(t, p.Complete())
	assert.Equal(t, "ab12cd3", p.PollID)
	assert.True(t, p.HasVoted(SideA, "quietfox"))
	assert.False(t, p.HasVoted(SideB, "quietfox"))
	assert.True(t, p.HasVoted(SideB, "loudowl"))
	assert.False(t, p.HasVoted(SideA, ""))

	due, err := p.Due()
	require.NoError(t, err)
	assert.Equal(t, 15, due.Day())

	assert.Equal(t, Tally{VotesA: 3, VotesB: 1, PercentA: 75, PercentB: 25}, TallyOf(&p))
}

func TestPoll_MissingOption(t *testing.T) {
	p := Poll{PollID: "x", A: &OptionA{Votes: 2}}

	assert.False(t, p.Complete())
	_, ok := p.Option(SideB)
	assert.False(t, ok)
	assert.Equal(t, Tally{}, TallyOf(&p))
}

func TestParseSide(t *testing.T) {
	s, ok := ParseSide("a")
	assert.True(t, ok)
	assert.Equal(t, SideA, s)
	assert.Equal(t, SideB, s.Other())

	_, ok = ParseSide("c")
	assert.False(t, ok)
}
