package poll

import "math"

// Tally holds the vote counts and per-side percentages of a poll.
type Tally struct {
	VotesA   int `json:"votes_a"`
	VotesB   int `json:"votes_b"`
	PercentA int `json:"percent_a"`
	PercentB int `json:"percent_b"`
}

// Percentages rounds each side independently. The two values are not
// normalised, so they may sum to 99 or 101.
func Percentages(votesA, votesB int) (int, int) {
	total := votesA + votesB
	if total <= 0 {
		return 0, 0
	}
	return roundPercent(votesA, total), roundPercent(votesB, total)
}

func roundPercent(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}

// TallyOf computes the tally of a complete poll; incomplete polls tally to zero.
func TallyOf(p *Poll) Tally {
	if !p.Complete() {
		return Tally{}
	}
	pa, pb := Percentages(p.A.Votes, p.B.Votes)
	return Tally{VotesA: p.A.Votes, VotesB: p.B.Votes, PercentA: pa, PercentB: pb}
}
