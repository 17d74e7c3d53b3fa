package api

import (
	"context"
	"net/http"
	"net/url"

	"battle-pollster/internal/domain/poll"
)

type pollListResponse struct {
	Polls []poll.Poll `json:"polls"`
}

type pollResponse struct {
	Message poll.Poll `json:"message"`
}

type expireRequest struct {
	PollExpired bool `json:"poll_expired"`
}

// ListPolls returns the current user's polls in backend order.
func (c *Client) ListPolls(ctx context.Context) ([]poll.Poll, error) {
	var res pollListResponse
	if _, err := c.do(ctx, "poll_list", http.MethodGet, "/poll_list", "", nil, &res); err != nil {
		return nil, err
	}
	if res.Polls == nil {
		res.Polls = []poll.Poll{}
	}
	return res.Polls, nil
}

// CreatePoll submits a new poll and returns its public identifier.
func (c *Client) CreatePoll(ctx context.Context, csrf string, in poll.NewPoll) (string, error) {
	if csrf == "" {
		return "", missingCSRF("create_poll")
	}
	var res messageResponse
	if _, err := c.do(ctx, "create_poll", http.MethodPost, "/poll_list", csrf, in, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

func (c *Client) GetPoll(ctx context.Context, pollID string) (*poll.Poll, error) {
	var res pollResponse
	if _, err := c.do(ctx, "get_poll", http.MethodGet, "/poll/"+url.PathEscape(pollID), "", nil, &res); err != nil {
		return nil, err
	}
	return &res.Message, nil
}

func (c *Client) DeletePoll(ctx context.Context, csrf, pollID string) error {
	if csrf == "" {
		return missingCSRF("delete_poll")
	}
	_, err := c.do(ctx, "delete_poll", http.MethodDelete, "/poll/"+url.PathEscape(pollID), csrf, nil, nil)
	return err
}

// ExpirePoll sets the ended flag. The backend treats repeated calls as no-ops.
func (c *Client) ExpirePoll(ctx context.Context, csrf, pollID string) error {
	if csrf == "" {
		return missingCSRF("expire_poll")
	}
	_, err := c.do(ctx, "expire_poll", http.MethodPut, "/poll/"+url.PathEscape(pollID), csrf, expireRequest{PollExpired: true}, nil)
	return err
}
