package services

import (
	"testing"
	"time"

	"battle-pollster/internal/domain/poll"

	"github.com/stretchr/testify/assert"
)

func TestDueReached(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	honolulu := time.FixedZone("HST", -10*60*60)
	now := time.Date(2026, 3, 10, 20, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  string
		loc  *time.Location
		want bool
	}{
		{"due today", "2026-03-10", time.UTC, true},
		{"due yesterday", "2026-03-09", time.UTC, false},
		{"due tomorrow", "2026-03-11", time.UTC, false},
		{"tomorrow in utc is today in tokyo", "2026-03-11", tokyo, true},
		{"today in utc is still yesterday in honolulu", "2026-03-10", honolulu, false},
		{"unparseable date", "soon", time.UTC, false},
		{"empty date", "", time.UTC, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &poll.Poll{DueDate: tt.due}
			assert.Equal(t, tt.want, DueReached(p, now, tt.loc))
		})
	}
}

func TestShouldExpire(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, ShouldExpire(&poll.Poll{DueDate: "2026-03-10"}, now, time.UTC))
	assert.False(t, ShouldExpire(&poll.Poll{DueDate: "2026-03-10", HasEnded: true}, now, time.UTC))
	assert.False(t, ShouldExpire(&poll.Poll{DueDate: "2026-04-01"}, now, time.UTC))
	assert.False(t, ShouldExpire(&poll.Poll{DueDate: "2026-03-01"}, now, time.UTC))
	assert.False(t, ShouldExpire(nil, now, time.UTC))

	assert.True(t, Expired(&poll.Poll{DueDate: "2026-04-01", HasEnded: true}, now, time.UTC))
	assert.False(t, Expired(&poll.Poll{DueDate: "2026-04-01"}, now, time.UTC))
}
