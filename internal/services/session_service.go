package services

import (
	"context"
	"fmt"
	"time"

	"battle-pollster/internal/cache"
	"battle-pollster/internal/domain/session"
	pollster_errors "battle-pollster/pkg/errors"
	"battle-pollster/pkg/logger"

	"go.uber.org/zap"
)

// SessionService answers "who is signed in" for one workspace.
type SessionService struct {
	backend     Backend
	cache       cache.Store
	workspaceID string
	logger      *logger.Logger
	now         func() time.Time
}

func NewSessionService(backend Backend, store cache.Store, workspaceID string, l *logger.Logger) *SessionService {
	if l == nil {
		l = logger.NewNop()
	}
	return &SessionService{backend: backend, cache: store, workspaceID: workspaceID, logger: l, now: time.Now}
}

// Current returns the cached session unless the access cookie has expired,
// in which case the backend is asked again.
func (s *SessionService) Current(ctx context.Context) (session.Session, error) {
	key := cache.SessionKey(s.workspaceID)

	if exp, ok := s.backend.AccessExpiry(); ok && !s.now().Before(exp) {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.WarnCtx(ctx, "drop stale session", zap.Error(err))
		}
	} else {
		var cached session.Session
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.WarnCtx(ctx, "read cached session", zap.Error(err))
		}
		if found {
			return cached, nil
		}
	}

	sess, err := s.backend.IsAuth(ctx)
	if err != nil {
		return session.Anonymous, err
	}
	if err := s.cache.Set(ctx, key, sess); err != nil {
		s.logger.WarnCtx(ctx, "cache session", zap.Error(err))
	}
	return sess, nil
}

// RequireAuth is Current for pages that need a signed-in user. Any failure
// to establish the session counts as not signed in.
func (s *SessionService) RequireAuth(ctx context.Context) (session.Session, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return session.Anonymous, fmt.Errorf("check session: %w: %w", pollster_errors.ErrUnauthorized, err)
	}
	if !sess.Authenticated {
		return sess, pollster_errors.ErrUnauthorized
	}
	return sess, nil
}

func (s *SessionService) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, cache.SessionKey(s.workspaceID))
}
