// Package api is a typed HTTP client for the BattlePollster backend.
//
// Every operation performs exactly one request and returns either the decoded
// payload or an *Error. Nothing is retried. Credentials travel as cookies held
// in the client's own jar, so one Client represents one browser session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"battle-pollster/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CSRFHeader        = "X-CSRF-TOKEN"
	AccessCookieName  = "access_cookie"
	RefreshCookieName = "_refresh"

	maxErrorBody = 64 << 10
)

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
}

type Client struct {
	base   *url.URL
	http   *http.Client
	logger *logger.Logger
}

func NewClient(opts Options, l *logger.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", opts.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		base: base,
		http: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: opts.Transport,
		},
		logger: l,
	}, nil
}

// AccessExpiry reads the exp claim of the access cookie without verifying its
// signature. The backend owns the key; this is only used to decide when a
// cached session is certainly stale.
func (c *Client) AccessExpiry() (time.Time, bool) {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name != AccessCookieName || ck.Value == "" {
			continue
		}
		claims := &jwt.RegisteredClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(ck.Value, claims); err != nil {
			return time.Time{}, false
		}
		if claims.ExpiresAt == nil {
			return time.Time{}, false
		}
		return claims.ExpiresAt.Time, true
	}
	return time.Time{}, false
}

// HasCredentials reports whether the jar holds an access or refresh cookie.
func (c *Client) HasCredentials() bool {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if (ck.Name == AccessCookieName || ck.Name == RefreshCookieName) && ck.Value != "" {
			return true
		}
	}
	return false
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// do sends one request. body is JSON encoded when non-nil; out is decoded
// from 2xx responses when non-nil. The returned status is 0 on transport errors.
func (c *Client) do(ctx context.Context, op, method, path, csrf string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, &Error{Op: op, Kind: KindNetwork, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return 0, &Error{Op: op, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrf != "" {
		req.Header.Set(CSRFHeader, csrf)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Warnf("backend %s %s failed: %v", method, path, err)
		}
		return 0, &Error{Op: op, Kind: KindNetwork, Message: "backend unreachable", Err: err}
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.Infof("backend %s %s %d %s", method, path, resp.StatusCode, time.Since(start).String())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, statusError(op, resp.StatusCode, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return resp.StatusCode, &Error{Op: op, Kind: KindNetwork, Status: resp.StatusCode, Message: "malformed backend response", Err: err}
	}
	return resp.StatusCode, nil
}
