package poll

import (
	"time"
)

// DueDateLayout is the calendar-date format the backend uses for poll_due_date.
const DueDateLayout = "2006-01-02"

// Side names one of the two options of a poll.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// ParseSide accepts "a", "A", "b" or "B".
func ParseSide(s string) (Side, bool) {
	switch s {
	case "a", "A":
		return SideA, true
	case "b", "B":
		return SideB, true
	}
	return "", false
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Voter is one entry of an option's voter list.
type Voter struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// OptionA mirrors the backend's poll_a payload.
type OptionA struct {
	VotingID string  `json:"poll_id"`
	Label    string  `json:"poll_A"`
	ImageURL string  `json:"image_A"`
	Votes    int     `json:"vote_A"`
	Voters   []Voter `json:"voter"`
}

// OptionB mirrors the backend's poll_b payload.
type OptionB struct {
	VotingID string  `json:"poll_id"`
	Label    string  `json:"poll_B"`
	ImageURL string  `json:"image_B"`
	Votes    int     `json:"vote_B"`
	Voters   []Voter `json:"voter"`
}

// Poll is a two-option poll as returned by GET /poll/:id and GET /poll_list.
type Poll struct {
	ID       int64    `json:"id"`
	PollID   string   `json:"voting_poll_id"`
	DueDate  string   `json:"poll_due_date"`
	HasEnded bool     `json:"poll_has_ended"`
	Author   int64    `json:"author"`
	A        *OptionA `json:"poll_a"`
	B        *OptionB `json:"poll_b"`
}

// Complete reports whether both options are present.
func (p *Poll) Complete() bool {
	return p != nil && p.A != nil && p.B != nil
}

// Option is a side-neutral view of one option.
type Option struct {
	Side     Side
	VotingID string
	Label    string
	ImageURL string
	Votes    int
	Voters   []Voter
}

// Option returns the requested side, or false when the backend sent no data for it.
func (p *Poll) Option(side Side) (Option, bool) {
	switch side {
	case SideA:
		if p.A == nil {
			return Option{}, false
		}
		return Option{Side: SideA, VotingID: p.A.VotingID, Label: p.A.Label, ImageURL: p.A.ImageURL, Votes: p.A.Votes, Voters: p.A.Voters}, true
	case SideB:
		if p.B == nil {
			return Option{}, false
		}
		return Option{Side: SideB, VotingID: p.B.VotingID, Label: p.B.Label, ImageURL: p.B.ImageURL, Votes: p.B.Votes, Voters: p.B.Voters}, true
	}
	return Option{}, false
}

// HasVoted reports whether username is on the voter list of side.
// Membership is matched by username, the only voter key the backend exposes.
func (p *Poll) HasVoted(side Side, username string) bool {
	if username == "" {
		return false
	}
	opt, ok := p.Option(side)
	if !ok {
		return false
	}
	for _, v := range opt.Voters {
		if v.Username == username {
			return true
		}
	}
	return false
}

// Due parses the due date as a calendar day. Only the year, month and day of
// the returned time are meaningful.
func (p *Poll) Due() (time.Time, error) {
	return time.Parse(DueDateLayout, p.DueDate)
}

// NewPoll is the payload for POST /poll_list.
type NewPoll struct {
	LabelA string `json:"poll_A"`
	ImageA string `json:"image_A"`
	LabelB string `json:"poll_B"`
	ImageB string `json:"image_B"`
}
