package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"battle-pollster/internal/cache"
	"battle-pollster/internal/domain/poll"
	"battle-pollster/internal/domain/session"
	pollster_errors "battle-pollster/pkg/errors"
	"battle-pollster/pkg/logger"

	"go.uber.org/zap"
)

type ViewState string

const (
	StateLoading                       ViewState = "loading"
	StateOpenUnauthenticated           ViewState = "open_unauthenticated"
	StateOpenAuthenticated             ViewState = "open_authenticated"
	StateOpenAuthenticatedCanVoteA     ViewState = "open_authenticated_can_vote_a"
	StateOpenAuthenticatedCanVoteB     ViewState = "open_authenticated_can_vote_b"
	StateOpenAuthenticatedAlreadyVoted ViewState = "open_authenticated_already_voted"
	StateExpired                       ViewState = "expired"
)

const (
	defaultExpireTimeout = 10 * time.Second
	voteFailedMessage    = "vote failed, please try again"
)

// TallyPublisher receives fresh tallies after a successful vote.
type TallyPublisher interface {
	PublishTally(pollID string, t poll.Tally)
}

// VotingView is everything the voting page renders.
type VotingView struct {
	State    ViewState
	Poll     *poll.Poll
	Session  session.Session
	Tally    poll.Tally
	VotedA   bool
	VotedB   bool
	CanVoteA bool
	CanVoteB bool
	// Liked is set once this workspace has cast a vote on either option.
	Liked   bool
	Message string
}

type VotingService struct {
	backend     Backend
	sessions    *SessionService
	cache       cache.Store
	publisher   TallyPublisher
	workspaceID string
	logger      *logger.Logger

	now           func() time.Time
	expireTimeout time.Duration

	mu       sync.Mutex
	liked    map[string]struct{}
	expiring map[string]struct{}
	wg       sync.WaitGroup
}

func NewVotingService(backend Backend, sessions *SessionService, store cache.Store, publisher TallyPublisher, workspaceID string, l *logger.Logger) *VotingService {
	if l == nil {
		l = logger.NewNop()
	}
	return &VotingService{
		backend:       backend,
		sessions:      sessions,
		cache:         store,
		publisher:     publisher,
		workspaceID:   workspaceID,
		logger:        l,
		now:           time.Now,
		expireTimeout: defaultExpireTimeout,
		liked:         map[string]struct{}{},
		expiring:      map[string]struct{}{},
	}
}

// Open loads the poll and the session and derives the page state. A poll
// whose due date has been reached but is not flagged yet gets one expire
// call in the background.
func (s *VotingService) Open(ctx context.Context, pollID string, loc *time.Location) (VotingView, error) {
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.logger.WarnCtx(ctx, "session check failed, viewing anonymously", zap.Error(err))
		sess = session.Anonymous
	}

	p, err := s.fetchPoll(ctx, pollID)
	if err != nil {
		return VotingView{State: StateLoading, Session: sess}, err
	}
	if !p.Complete() {
		return VotingView{State: StateLoading, Session: sess}, fmt.Errorf("poll %s has no options: %w", pollID, pollster_errors.ErrNotFound)
	}

	now := s.now()
	if ShouldExpire(p, now, loc) {
		s.expire(ctx, pollID, sess)
	}
	return s.derive(p, sess, now, loc), nil
}

// Cast votes for side. The voter lists of the loaded poll decide whether the
// other side was already chosen; the backend has the final word.
func (s *VotingService) Cast(ctx context.Context, pollID string, side poll.Side, loc *time.Location) (VotingView, error) {
	sess, err := s.sessions.RequireAuth(ctx)
	if err != nil {
		return VotingView{State: StateLoading, Session: sess}, err
	}

	p, err := s.loadedPoll(ctx, pollID)
	if err != nil {
		return VotingView{State: StateLoading, Session: sess}, err
	}
	opt, ok := p.Option(side)
	if !ok || !p.Complete() {
		return VotingView{State: StateLoading, Session: sess}, fmt.Errorf("poll %s has no option %s: %w", pollID, side, pollster_errors.ErrNotFound)
	}

	now := s.now()
	if Expired(p, now, loc) {
		return s.derive(p, sess, now, loc), pollster_errors.ErrPollExpired
	}
	if p.HasVoted(side.Other(), sess.Username) {
		return s.derive(p, sess, now, loc), pollster_errors.ErrAlreadyVoted
	}

	res, err := s.backend.Vote(ctx, sess.CSRFToken, side, pollID, opt.VotingID)
	s.like(opt.VotingID)
	if err != nil {
		s.logger.WarnCtx(ctx, "vote failed", zap.String("poll_id", pollID), zap.String("side", string(side)), zap.Error(err))
		return s.derive(p, sess, now, loc), &Notice{Message: voteFailedMessage, Err: err}
	}

	fresh, err := s.fetchPoll(ctx, pollID)
	if err == nil && !fresh.Complete() {
		err = fmt.Errorf("poll %s has no options: %w", pollID, pollster_errors.ErrNotFound)
	}
	if err != nil {
		s.logger.WarnCtx(ctx, "refetch poll after vote", zap.String("poll_id", pollID), zap.Error(err))
		if derr := s.cache.Delete(ctx, cache.PollKey(s.workspaceID, pollID)); derr != nil {
			s.logger.WarnCtx(ctx, "invalidate poll", zap.Error(derr))
		}
		fresh = p
	} else if s.publisher != nil {
		s.publisher.PublishTally(pollID, poll.TallyOf(fresh))
	}

	view := s.derive(fresh, sess, now, loc)
	view.Message = res.Message
	return view, nil
}

// Liked lists the voting identifiers this workspace has voted on.
func (s *VotingService) Liked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.liked))
	for id := range s.liked {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Wait blocks until background expire calls have finished.
func (s *VotingService) Wait() {
	s.wg.Wait()
}

func (s *VotingService) derive(p *poll.Poll, sess session.Session, now time.Time, loc *time.Location) VotingView {
	v := VotingView{Poll: p, Session: sess, Tally: poll.TallyOf(p)}
	expired := Expired(p, now, loc)
	if sess.Authenticated {
		v.VotedA = p.HasVoted(poll.SideA, sess.Username)
		v.VotedB = p.HasVoted(poll.SideB, sess.Username)
	}
	v.Liked = s.isLiked(p.A.VotingID) || s.isLiked(p.B.VotingID)
	v.CanVoteA = sess.Authenticated && !expired && !v.VotedB
	v.CanVoteB = sess.Authenticated && !expired && !v.VotedA

	switch {
	case expired:
		v.State = StateExpired
	case !sess.Authenticated:
		v.State = StateOpenUnauthenticated
	case v.Liked:
		v.State = StateOpenAuthenticatedAlreadyVoted
	case v.VotedA:
		v.State = StateOpenAuthenticatedCanVoteA
	case v.VotedB:
		v.State = StateOpenAuthenticatedCanVoteB
	default:
		v.State = StateOpenAuthenticated
	}
	return v
}

// expire is attempted only with a session that can mutate; an anonymous
// view leaves the poll for a later signed-in view to expire.
func (s *VotingService) expire(ctx context.Context, pollID string, sess session.Session) {
	if !sess.CanMutate() {
		return
	}
	s.mu.Lock()
	if _, issued := s.expiring[pollID]; issued {
		s.mu.Unlock()
		return
	}
	s.expiring[pollID] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.expireTimeout)
		defer cancel()

		if err := s.backend.ExpirePoll(ctx, sess.CSRFToken, pollID); err != nil {
			s.logger.WarnCtx(ctx, "expire poll", zap.String("poll_id", pollID), zap.Error(err))
			return
		}
		if err := s.cache.Delete(ctx, cache.PollKey(s.workspaceID, pollID)); err != nil {
			s.logger.WarnCtx(ctx, "invalidate poll", zap.Error(err))
		}
		s.logger.InfoCtx(ctx, "poll expired", zap.String("poll_id", pollID))
	}()
}

func (s *VotingService) fetchPoll(ctx context.Context, pollID string) (*poll.Poll, error) {
	p, err := s.backend.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cache.PollKey(s.workspaceID, pollID), p); err != nil {
		s.logger.WarnCtx(ctx, "cache poll", zap.Error(err))
	}
	return p, nil
}

// loadedPoll prefers the copy the page was rendered from.
func (s *VotingService) loadedPoll(ctx context.Context, pollID string) (*poll.Poll, error) {
	var p poll.Poll
	found, err := s.cache.Get(ctx, cache.PollKey(s.workspaceID, pollID), &p)
	if err != nil {
		s.logger.WarnCtx(ctx, "read cached poll", zap.Error(err))
	}
	if found {
		return &p, nil
	}
	return s.fetchPoll(ctx, pollID)
}

func (s *VotingService) like(votingID string) {
	s.mu.Lock()
	s.liked[votingID] = struct{}{}
	s.mu.Unlock()
}

func (s *VotingService) isLiked(votingID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.liked[votingID]
	return ok
}
