package pollster_errors

import (
	"errors"
)

// Common errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrRateLimited  = errors.New("rate limited")
	ErrUpstream     = errors.New("upstream error")
	ErrNetwork      = errors.New("network error")
	ErrNotUploaded  = errors.New("file not uploaded")
	ErrMissingCSRF  = errors.New("missing csrf token")
	ErrPollExpired  = errors.New("poll has ended")
	ErrAlreadyVoted = errors.New("already voted on the other option")
)
