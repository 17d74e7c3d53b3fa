package handler

import (
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"battle-pollster/internal/services"
	"battle-pollster/internal/storage"
	"battle-pollster/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the signed-in user's poll list and poll management.
type DashboardHandler struct{}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Home renders the dashboard. Visitors without a session are sent to /signin.
func (h *DashboardHandler) Home(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sess, err := ws.Sessions.RequireAuth(ctx)
	if err != nil {
		c.Redirect(http.StatusSeeOther, signInPath)
		return
	}

	polls, err := ws.Dashboard.List(ctx, sess)
	if err != nil {
		writeError(c, err)
		return
	}

	dto := httpdto.DashboardDTO{
		Username: sess.Username,
		Polls:    make([]httpdto.PollSummaryDTO, 0, len(polls)),
		Empty:    len(polls) == 0,
	}
	for _, p := range polls {
		dto.Polls = append(dto.Polls, pollSummaryDTO(p))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(dto))
}

// CreatePoll accepts multipart fields poll_a, poll_b and files image_a, image_b.
func (h *DashboardHandler) CreatePoll(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sess, err := ws.Sessions.RequireAuth(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	imageA, closeA := formImage(c, "image_a")
	defer closeA()
	imageB, closeB := formImage(c, "image_b")
	defer closeB()

	id, err := ws.Dashboard.Create(ctx, sess, services.CreatePollInput{
		LabelA: c.PostForm("poll_a"),
		LabelB: c.PostForm("poll_b"),
		ImageA: imageA,
		ImageB: imageB,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.CreatedPollDTO{ID: id, Redirect: votingPath(id)}))
}

func (h *DashboardHandler) DeletePoll(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sess, err := ws.Sessions.RequireAuth(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	id := c.Param("id")
	if err := ws.Dashboard.Delete(ctx, sess, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.DeletedPollDTO{ID: id}))
}

// formImage opens an uploaded file. A missing field yields a nil image,
// which validation reports.
func formImage(c *gin.Context, field string) (*storage.Image, func()) {
	hdr, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}
	}
	f, err := hdr.Open()
	if err != nil {
		return nil, func() {}
	}
	return &storage.Image{
		Filename:    hdr.Filename,
		ContentType: contentType(hdr),
		Body:        f,
	}, func() { _ = f.Close() }
}

func contentType(hdr *multipart.FileHeader) string {
	if ct := hdr.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return mime.TypeByExtension(filepath.Ext(hdr.Filename))
}
