package services

import (
	"context"
	"time"

	"battle-pollster/internal/api"
	"battle-pollster/internal/domain/poll"
	"battle-pollster/internal/domain/session"
)

// Backend is the slice of the poll API a workspace talks to. *api.Client
// implements it.
type Backend interface {
	IsAuth(ctx context.Context) (session.Session, error)
	Login(ctx context.Context, csrf string, creds api.Credentials) (string, error)
	Register(ctx context.Context, csrf string, creds api.Credentials) (string, error)
	Logout(ctx context.Context, csrf string) error
	ListPolls(ctx context.Context) ([]poll.Poll, error)
	CreatePoll(ctx context.Context, csrf string, p poll.NewPoll) (string, error)
	GetPoll(ctx context.Context, id string) (*poll.Poll, error)
	DeletePoll(ctx context.Context, csrf, id string) error
	ExpirePoll(ctx context.Context, csrf, id string) error
	Vote(ctx context.Context, csrf string, side poll.Side, pollID, votingID string) (api.VoteResult, error)
	AccessExpiry() (time.Time, bool)
}

var _ Backend = (*api.Client)(nil)
