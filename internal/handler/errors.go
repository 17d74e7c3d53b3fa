package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"battle-pollster/internal/api"
	"battle-pollster/internal/services"
	"battle-pollster/internal/transport/httpdto"
	pollster_errors "battle-pollster/pkg/errors"

	"github.com/gin-gonic/gin"
)

const signInPath = "/signin"

type errorClass struct {
	status  int
	code    string
	message string
}

// classify maps an error to its HTTP status, response code and the message
// shown when nothing more specific is available.
func classify(err error) errorClass {
	switch {
	case errors.Is(err, pollster_errors.ErrPollExpired):
		return errorClass{http.StatusConflict, "POLL_EXPIRED", "this poll has ended"}
	case errors.Is(err, pollster_errors.ErrAlreadyVoted):
		return errorClass{http.StatusConflict, "ALREADY_VOTED", "you already voted for the other option"}
	case errors.Is(err, pollster_errors.ErrNotUploaded):
		return errorClass{http.StatusBadGateway, "UPLOAD_FAILED", "image upload failed, please try again"}
	case errors.Is(err, pollster_errors.ErrUnauthorized):
		return errorClass{http.StatusUnauthorized, "UNAUTHORIZED", "please sign in"}
	case errors.Is(err, pollster_errors.ErrNotFound):
		return errorClass{http.StatusNotFound, "NOT_FOUND", "not found"}
	case errors.Is(err, pollster_errors.ErrInvalidInput):
		return errorClass{http.StatusBadRequest, "INVALID_INPUT", "invalid input"}
	case errors.Is(err, pollster_errors.ErrRateLimited):
		return errorClass{http.StatusTooManyRequests, "RATE_LIMITED", "too many requests"}
	case errors.Is(err, context.DeadlineExceeded):
		return errorClass{http.StatusGatewayTimeout, "TIMEOUT", "the server took too long to answer"}
	case errors.Is(err, pollster_errors.ErrNetwork):
		return errorClass{http.StatusBadGateway, "NETWORK_ERROR", "could not reach the server"}
	case errors.Is(err, pollster_errors.ErrUpstream):
		return errorClass{http.StatusBadGateway, "UPSTREAM_ERROR", "the server could not complete the request"}
	default:
		return errorClass{http.StatusInternalServerError, "INTERNAL_ERROR", "something went wrong"}
	}
}

// userMessage prefers messages written for the user: a Notice, then the
// backend's own message.
func userMessage(err error, fallback string) string {
	var notice *services.Notice
	if errors.As(err, &notice) && notice.Message != "" {
		return notice.Message
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func writeError(c *gin.Context, err error) {
	var fields services.FieldErrors
	if errors.As(err, &fields) {
		c.JSON(http.StatusUnprocessableEntity, httpdto.NewValidationResponse(firstMessage(fields), fields))
		return
	}

	class := classify(err)
	var notice *services.Notice
	if errors.As(err, &notice) && class.status == http.StatusInternalServerError {
		class.status, class.code = http.StatusBadGateway, "REQUEST_FAILED"
	}
	if class.status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	res := httpdto.NewErrorResponse(userMessage(err, class.message), class.code)
	if class.status == http.StatusUnauthorized {
		res.Redirect = signInPath
	}
	c.JSON(class.status, res)
}

func firstMessage(fields services.FieldErrors) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return "invalid input"
	}
	return fields[keys[0]]
}
