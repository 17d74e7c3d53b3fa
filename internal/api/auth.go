package api

import (
	"context"
	"net/http"

	"battle-pollster/internal/domain/session"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type isAuthResponse struct {
	Message struct {
		CSRF            string  `json:"csrf"`
		IsAuthenticated bool    `json:"IsAuthenticated"`
		Username        *string `json:"username"`
	} `json:"message"`
}

// IsAuth asks the backend who owns the current cookies. It also returns the
// CSRF token that mutating calls must echo back.
func (c *Client) IsAuth(ctx context.Context) (session.Session, error) {
	var res isAuthResponse
	if _, err := c.do(ctx, "isauth", http.MethodGet, "/isauth", "", nil, &res); err != nil {
		return session.Anonymous, err
	}
	s := session.Session{
		Authenticated: res.Message.IsAuthenticated,
		CSRFToken:     res.Message.CSRF,
	}
	if res.Message.Username != nil {
		s.Username = *res.Message.Username
	}
	return s, nil
}

// Login exchanges credentials for session cookies. csrf may be empty when the
// browser has not loaded a page yet.
func (c *Client) Login(ctx context.Context, csrf string, creds Credentials) (string, error) {
	var res messageResponse
	if _, err := c.do(ctx, "login", http.MethodPost, "/login", csrf, creds, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// Register creates an account; the backend signs the new user in immediately.
func (c *Client) Register(ctx context.Context, csrf string, creds Credentials) (string, error) {
	var res messageResponse
	if _, err := c.do(ctx, "register", http.MethodPost, "/register", csrf, creds, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

func (c *Client) Logout(ctx context.Context, csrf string) error {
	if csrf == "" {
		return missingCSRF("logout")
	}
	_, err := c.do(ctx, "logout", http.MethodPost, "/logout", csrf, struct{}{}, nil)
	return err
}
