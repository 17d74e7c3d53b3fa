package services

import (
	"time"

	"battle-pollster/internal/domain/poll"
)

// DueReached compares calendar days in loc: the due date is reached only on
// the due day itself. An unparseable date is never reached.
func DueReached(p *poll.Poll, now time.Time, loc *time.Location) bool {
	if p == nil {
		return false
	}
	due, err := p.Due()
	if err != nil {
		return false
	}
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return today.Equal(due)
}

// Expired reports whether voting on p is closed for a viewer in loc.
func Expired(p *poll.Poll, now time.Time, loc *time.Location) bool {
	return p != nil && (p.HasEnded || DueReached(p, now, loc))
}

// ShouldExpire reports whether the backend still has to be told that p ended.
func ShouldExpire(p *poll.Poll, now time.Time, loc *time.Location) bool {
	return p != nil && !p.HasEnded && DueReached(p, now, loc)
}
