package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"battle-pollster/internal/api"
	"battle-pollster/internal/cache"
	"battle-pollster/pkg/logger"

	"go.uber.org/zap"
)

const minPasswordLength = 8

type SignInInput struct {
	Email    string
	Password string
}

type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// AccountService signs a workspace in and out.
type AccountService struct {
	backend     Backend
	sessions    *SessionService
	cache       cache.Store
	workspaceID string
	logger      *logger.Logger
}

func NewAccountService(backend Backend, sessions *SessionService, store cache.Store, workspaceID string, l *logger.Logger) *AccountService {
	if l == nil {
		l = logger.NewNop()
	}
	return &AccountService{backend: backend, sessions: sessions, cache: store, workspaceID: workspaceID, logger: l}
}

func (in SignInInput) Validate() error {
	fields := FieldErrors{}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = "please enter your email"
	}
	if strings.TrimSpace(in.Password) == "" {
		fields["password"] = "please enter your password"
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

func (in SignUpInput) Validate() error {
	fields := FieldErrors{}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = "please add your email"
	}
	switch {
	case strings.TrimSpace(in.Password) == "":
		fields["password"] = "please add your password"
	case utf8.RuneCountInString(in.Password) < minPasswordLength:
		fields["password"] = "password must be at least 8 characters"
	}
	switch {
	case strings.TrimSpace(in.ConfirmPassword) == "":
		fields["confirm_password"] = "please confirm your password"
	case utf8.RuneCountInString(in.ConfirmPassword) < minPasswordLength:
		fields["confirm_password"] = "password must be at least 8 characters"
	case in.ConfirmPassword != in.Password:
		fields["confirm_password"] = "passwords do not match"
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

func (s *AccountService) SignIn(ctx context.Context, in SignInInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	csrf := s.csrfToken(ctx)
	_, err := s.backend.Login(ctx, csrf, api.Credentials{Email: strings.TrimSpace(in.Email), Password: in.Password})
	if err != nil {
		return err
	}
	s.resetQueries(ctx)
	s.logger.InfoCtx(ctx, "signed in")
	return nil
}

func (s *AccountService) SignUp(ctx context.Context, in SignUpInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	csrf := s.csrfToken(ctx)
	_, err := s.backend.Register(ctx, csrf, api.Credentials{Email: strings.TrimSpace(in.Email), Password: in.Password})
	if err != nil {
		return err
	}
	s.resetQueries(ctx)
	s.logger.InfoCtx(ctx, "signed up")
	return nil
}

// Logout ends the backend session. Cached queries are dropped whether or not
// the call succeeds so the next check goes to the backend.
func (s *AccountService) Logout(ctx context.Context) error {
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		return err
	}
	defer s.resetQueries(ctx)
	return s.backend.Logout(ctx, sess.CSRFToken)
}

// csrfToken returns the token of the current session if one is known.
// Login and register accept requests without one.
func (s *AccountService) csrfToken(ctx context.Context) string {
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.logger.WarnCtx(ctx, "fetch csrf token", zap.Error(err))
		return ""
	}
	return sess.CSRFToken
}

func (s *AccountService) resetQueries(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, cache.WorkspacePrefix(s.workspaceID)); err != nil {
		s.logger.WarnCtx(ctx, "invalidate workspace queries", zap.Error(err))
		if err := s.sessions.Invalidate(ctx); err != nil {
			s.logger.WarnCtx(ctx, "invalidate session", zap.Error(err))
		}
	}
}
