package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"battle-pollster/internal/domain/poll"
)

// VoteResult reports what the backend did. A repeated vote on the same side
// is a toggle: the backend removes the vote and answers 200 instead of 201.
type VoteResult struct {
	Voted   bool
	Message string
}

// Vote casts a vote for side on pollID using the option's voting identifier.
func (c *Client) Vote(ctx context.Context, csrf string, side poll.Side, pollID, votingID string) (VoteResult, error) {
	var segment string
	switch side {
	case poll.SideA:
		segment = "vote_a"
	case poll.SideB:
		segment = "vote_b"
	default:
		return VoteResult{}, &Error{Op: "vote", Kind: KindValidation, Message: fmt.Sprintf("unknown side %q", side)}
	}
	if csrf == "" {
		return VoteResult{}, missingCSRF("vote")
	}

	path := fmt.Sprintf("/vote/%s/%s/%s", segment, url.PathEscape(pollID), url.PathEscape(votingID))
	var res messageResponse
	status, err := c.do(ctx, "vote", http.MethodPost, path, csrf, struct{}{}, &res)
	if err != nil {
		return VoteResult{}, err
	}
	return VoteResult{Voted: status == http.StatusCreated, Message: res.Message}, nil
}
