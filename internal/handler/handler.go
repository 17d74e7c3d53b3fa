// Package handler provides the HTTP handlers of the web front.
package handler

import (
	"net/http"
	"time"

	"battle-pollster/internal/domain/poll"
	"battle-pollster/internal/middleware"
	"battle-pollster/internal/services"
	"battle-pollster/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// TimezoneHeader carries the viewer's IANA zone name.
const TimezoneHeader = "X-Timezone"

func workspace(c *gin.Context) (*services.Workspace, bool) {
	ws, ok := middleware.WorkspaceFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("no browser session", "INTERNAL_ERROR"))
		return nil, false
	}
	return ws, true
}

// viewerLocation resolves the X-Timezone header, falling back when it is
// absent or unknown.
func viewerLocation(c *gin.Context, fallback *time.Location) *time.Location {
	if name := c.GetHeader(TimezoneHeader); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.Local
	}
	return fallback
}

func votingPath(pollID string) string {
	return "/voting/" + pollID
}

func tallyDTO(t poll.Tally) httpdto.TallyDTO {
	return httpdto.TallyDTO{VotesA: t.VotesA, VotesB: t.VotesB, PercentA: t.PercentA, PercentB: t.PercentB}
}

func pollSummaryDTO(p poll.Poll) httpdto.PollSummaryDTO {
	dto := httpdto.PollSummaryDTO{
		ID:      p.PollID,
		DueDate: p.DueDate,
		Ended:   p.HasEnded,
		Tally:   tallyDTO(poll.TallyOf(&p)),
		URL:     votingPath(p.PollID),
	}
	if p.A != nil {
		dto.LabelA, dto.ImageA = p.A.Label, p.A.ImageURL
	}
	if p.B != nil {
		dto.LabelB, dto.ImageB = p.B.Label, p.B.ImageURL
	}
	return dto
}

func votingViewDTO(pollID string, v services.VotingView) httpdto.VotingViewDTO {
	dto := httpdto.VotingViewDTO{
		PollID:        pollID,
		State:         string(v.State),
		Authenticated: v.Session.Authenticated,
		Username:      v.Session.Username,
		AlreadyVoted:  v.Liked,
		Message:       v.Message,
		LiveURL:       votingPath(pollID) + "/live",
	}
	if !v.Poll.Complete() {
		return dto
	}
	p := v.Poll
	dto.DueDate = p.DueDate
	dto.A = httpdto.OptionDTO{
		VotingID: p.A.VotingID,
		Label:    p.A.Label,
		ImageURL: p.A.ImageURL,
		Votes:    v.Tally.VotesA,
		Percent:  v.Tally.PercentA,
		Voted:    v.VotedA,
		CanVote:  v.CanVoteA,
	}
	dto.B = httpdto.OptionDTO{
		VotingID: p.B.VotingID,
		Label:    p.B.Label,
		ImageURL: p.B.ImageURL,
		Votes:    v.Tally.VotesB,
		Percent:  v.Tally.PercentB,
		Voted:    v.VotedB,
		CanVote:  v.CanVoteB,
	}
	return dto
}
