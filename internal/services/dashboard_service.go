package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"battle-pollster/internal/cache"
	"battle-pollster/internal/domain/poll"
	"battle-pollster/internal/domain/session"
	"battle-pollster/internal/storage"
	pollster_errors "battle-pollster/pkg/errors"
	"battle-pollster/pkg/logger"

	"go.uber.org/zap"
)

// MaxCombinedLabelLength bounds the trimmed labels of both options together.
const MaxCombinedLabelLength = 34

type CreatePollInput struct {
	LabelA string
	LabelB string
	ImageA *storage.Image
	ImageB *storage.Image
}

func (in CreatePollInput) Validate() error {
	a, b := strings.TrimSpace(in.LabelA), strings.TrimSpace(in.LabelB)
	fields := FieldErrors{}
	if a == "" {
		fields["poll_a"] = "please add poll A"
	}
	if b == "" {
		fields["poll_b"] = "please add poll B"
	}
	if msg := imageProblem(in.ImageA, "A"); msg != "" {
		fields["image_a"] = msg
	}
	if msg := imageProblem(in.ImageB, "B"); msg != "" {
		fields["image_b"] = msg
	}
	if n := utf8.RuneCountInString(a) + utf8.RuneCountInString(b); n > MaxCombinedLabelLength {
		fields["poll"] = fmt.Sprintf("poll A and poll B combined should not exceed %d characters, current length: %d", MaxCombinedLabelLength, n)
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

func imageProblem(img *storage.Image, side string) string {
	if img == nil || img.Body == nil {
		return "please add an image for poll " + side
	}
	if storage.ValidateContentType(img.ContentType) != nil {
		return "image for poll " + side + " must be a picture"
	}
	return ""
}

type pendingDelete struct {
	poll  poll.Poll
	index int
}

// DashboardService manages the signed-in user's own polls.
type DashboardService struct {
	backend     Backend
	cache       cache.Store
	uploads     *UploadService
	workspaceID string
	logger      *logger.Logger

	// mu guards edits of the visible list and pending.
	mu      sync.Mutex
	pending map[string]pendingDelete
}

func NewDashboardService(backend Backend, store cache.Store, uploads *UploadService, workspaceID string, l *logger.Logger) *DashboardService {
	if l == nil {
		l = logger.NewNop()
	}
	return &DashboardService{
		backend:     backend,
		cache:       store,
		uploads:     uploads,
		workspaceID: workspaceID,
		logger:      l,
		pending:     map[string]pendingDelete{},
	}
}

// List fetches the user's polls in backend order and makes them the visible
// list. Polls with a delete in flight stay hidden.
func (s *DashboardService) List(ctx context.Context, sess session.Session) ([]poll.Poll, error) {
	if !sess.Authenticated {
		return nil, pollster_errors.ErrUnauthorized
	}
	polls, err := s.backend.ListPolls(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	visible := make([]poll.Poll, 0, len(polls))
	for _, p := range polls {
		if _, hidden := s.pending[p.PollID]; !hidden {
			visible = append(visible, p)
		}
	}
	s.store(ctx, visible)
	return visible, nil
}

// Visible returns the last list shown to the user without a network call.
func (s *DashboardService) Visible(ctx context.Context) ([]poll.Poll, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Create uploads both images, then submits the poll and returns its id.
func (s *DashboardService) Create(ctx context.Context, sess session.Session, in CreatePollInput) (string, error) {
	if !sess.Authenticated {
		return "", pollster_errors.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return "", err
	}

	urlA, urlB, err := s.uploads.UploadPair(ctx, *in.ImageA, *in.ImageB)
	if err != nil {
		return "", &Notice{Message: "image upload failed, please try again", Err: err}
	}

	id, err := s.backend.CreatePoll(ctx, sess.CSRFToken, poll.NewPoll{
		LabelA: strings.TrimSpace(in.LabelA),
		ImageA: urlA,
		LabelB: strings.TrimSpace(in.LabelB),
		ImageB: urlB,
	})
	if err != nil {
		return "", err
	}
	if err := s.cache.Delete(ctx, cache.PollListKey(s.workspaceID)); err != nil {
		s.logger.WarnCtx(ctx, "invalidate poll list", zap.Error(err))
	}
	s.logger.InfoCtx(ctx, "poll created", zap.String("poll_id", id))
	return id, nil
}

// Delete hides the poll from the visible list before asking the backend to
// remove it, and puts it back where it was if the backend refuses.
func (s *DashboardService) Delete(ctx context.Context, sess session.Session, id string) error {
	if !sess.Authenticated {
		return pollster_errors.ErrUnauthorized
	}

	s.mu.Lock()
	if visible, ok := s.load(ctx); ok {
		for i, p := range visible {
			if p.PollID == id {
				s.pending[id] = pendingDelete{poll: p, index: i}
				visible = append(visible[:i], visible[i+1:]...)
				s.store(ctx, visible)
				break
			}
		}
	}
	s.mu.Unlock()

	err := s.backend.DeletePoll(ctx, sess.CSRFToken, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed, hadPending := s.pending[id]
	delete(s.pending, id)
	if err == nil {
		if cerr := s.cache.Delete(ctx, cache.PollKey(s.workspaceID, id)); cerr != nil {
			s.logger.WarnCtx(ctx, "invalidate poll", zap.Error(cerr))
		}
		s.logger.InfoCtx(ctx, "poll deleted", zap.String("poll_id", id))
		return nil
	}
	if hadPending {
		s.restore(ctx, removed)
	}
	return err
}

func (s *DashboardService) restore(ctx context.Context, removed pendingDelete) {
	visible, _ := s.load(ctx)
	for _, p := range visible {
		if p.PollID == removed.poll.PollID {
			return
		}
	}
	i := removed.index
	if i > len(visible) {
		i = len(visible)
	}
	visible = append(visible, poll.Poll{})
	copy(visible[i+1:], visible[i:])
	visible[i] = removed.poll
	s.store(ctx, visible)
}

func (s *DashboardService) load(ctx context.Context) ([]poll.Poll, bool) {
	var visible []poll.Poll
	ok, err := s.cache.Get(ctx, cache.PollListKey(s.workspaceID), &visible)
	if err != nil {
		s.logger.WarnCtx(ctx, "read poll list", zap.Error(err))
		return nil, false
	}
	return visible, ok
}

func (s *DashboardService) store(ctx context.Context, visible []poll.Poll) {
	if err := s.cache.Set(ctx, cache.PollListKey(s.workspaceID), visible); err != nil {
		s.logger.WarnCtx(ctx, "cache poll list", zap.Error(err))
	}
}
