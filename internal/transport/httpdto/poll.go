package httpdto

type TallyDTO struct {
	VotesA   int `json:"votes_a"`
	VotesB   int `json:"votes_b"`
	PercentA int `json:"percent_a"`
	PercentB int `json:"percent_b"`
}

// PollSummaryDTO is one card of the dashboard.
type PollSummaryDTO struct {
	ID      string   `json:"id"`
	LabelA  string   `json:"label_a"`
	LabelB  string   `json:"label_b"`
	ImageA  string   `json:"image_a"`
	ImageB  string   `json:"image_b"`
	DueDate string   `json:"due_date"`
	Ended   bool     `json:"ended"`
	Tally   TallyDTO `json:"tally"`
	URL     string   `json:"url"`
}

type DashboardDTO struct {
	Username string           `json:"username"`
	Polls    []PollSummaryDTO `json:"polls"`
	Empty    bool             `json:"empty"`
}

type CreatedPollDTO struct {
	ID       string `json:"id"`
	Redirect string `json:"redirect"`
}

type DeletedPollDTO struct {
	ID string `json:"id"`
}

type OptionDTO struct {
	VotingID string `json:"voting_id"`
	Label    string `json:"label"`
	ImageURL string `json:"image_url"`
	Votes    int    `json:"votes"`
	Percent  int    `json:"percent"`
	Voted    bool   `json:"voted"`
	CanVote  bool   `json:"can_vote"`
}

// VotingViewDTO is the voting page.
type VotingViewDTO struct {
	PollID        string    `json:"poll_id"`
	State         string    `json:"state"`
	DueDate       string    `json:"due_date"`
	Authenticated bool      `json:"authenticated"`
	Username      string    `json:"username,omitempty"`
	A             OptionDTO `json:"a"`
	B             OptionDTO `json:"b"`
	AlreadyVoted  bool      `json:"already_voted"`
	Message       string    `json:"message,omitempty"`
	LiveURL       string    `json:"live_url"`
}
