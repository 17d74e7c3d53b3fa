package handler

import (
	"errors"
	"net/http"
	"time"

	"battle-pollster/internal/domain/poll"
	"battle-pollster/internal/services"
	"battle-pollster/internal/transport/httpdto"
	"battle-pollster/internal/websocket"
	pollster_errors "battle-pollster/pkg/errors"

	"github.com/gin-gonic/gin"
)

// VotingHandler serves the public voting page of a poll.
type VotingHandler struct {
	live     *websocket.Handler
	fallback *time.Location
}

func NewVotingHandler(live *websocket.Handler, fallback *time.Location) *VotingHandler {
	return &VotingHandler{live: live, fallback: fallback}
}

func (h *VotingHandler) View(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	pollID := c.Param("poll")
	view, err := ws.Voting.Open(c.Request.Context(), pollID, viewerLocation(c, h.fallback))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(votingViewDTO(pollID, view)))
}

// Vote casts for side "a" or "b". Refusals that still have a poll to show
// return the view alongside the error.
func (h *VotingHandler) Vote(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	side, ok := poll.ParseSide(c.Param("side"))
	if !ok {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("side must be a or b", "INVALID_REQUEST"))
		return
	}

	pollID := c.Param("poll")
	view, err := ws.Voting.Cast(c.Request.Context(), pollID, side, viewerLocation(c, h.fallback))
	if err == nil {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(votingViewDTO(pollID, view)))
		return
	}

	var notice *services.Notice
	switch {
	case errors.As(err, &notice):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, httpdto.NewFailureResponse(votingViewDTO(pollID, view), notice.Message, "VOTE_FAILED"))
	case view.Poll != nil && (errors.Is(err, pollster_errors.ErrAlreadyVoted) || errors.Is(err, pollster_errors.ErrPollExpired)):
		class := classify(err)
		c.JSON(class.status, httpdto.NewFailureResponse(votingViewDTO(pollID, view), class.message, class.code))
	default:
		writeError(c, err)
	}
}

// Live streams fresh tallies of the poll over a websocket.
func (h *VotingHandler) Live(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	pollID := c.Param("poll")

	var initial []byte
	if view, err := ws.Voting.Open(c.Request.Context(), pollID, viewerLocation(c, h.fallback)); err == nil {
		initial, _ = websocket.EncodeTally(pollID, view.Tally)
	}
	h.live.Connect(c, ws.ID, pollID, initial)
}
