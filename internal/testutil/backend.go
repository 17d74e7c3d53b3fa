// Package testutil provides an in-process stand-in for the poll backend.
//
// The fake follows the backend's wire contract (paths, JSON shapes, status
// codes, cookie credentials, CSRF header) closely enough for the client,
// services and handlers to be exercised end to end in tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"battle-pollster/internal/domain/poll"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	csrfCookie  = "csrftoken"
	tokenSecret = "test-secret"
)

type fakeUser struct {
	id       int64
	email    string
	password string
	username string
}

type failure struct {
	status int
	body   gin.H
}

type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    map[string]*fakeUser
	sessions map[string]*fakeUser
	polls    []*poll.Poll
	authors  map[string]int64
	calls    map[string]int
	failures map[string]failure
	delay    map[string]time.Duration
	nextID   int64
	// AccessTTL is the lifetime stamped into issued access cookies.
	AccessTTL time.Duration
}

// NewBackend starts a fake backend mounted under /api and closes it when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &Backend{
		users:     map[string]*fakeUser{},
		sessions:  map[string]*fakeUser{},
		authors:   map[string]int64{},
		calls:     map[string]int{},
		failures:  map[string]failure{},
		delay:     map[string]time.Duration{},
		AccessTTL: time.Hour,
	}

	r := gin.New()
	r.Use(b.record)
	api := r.Group("/api")
	api.POST("/register", b.register)
	api.POST("/login", b.login)
	api.GET("/isauth", b.isAuth)
	api.POST("/logout", b.requireCSRF, b.logout)
	api.GET("/poll_list", b.listPolls)
	api.POST("/poll_list", b.requireCSRF, b.createPoll)
	api.GET("/poll/:poll", b.getPoll)
	api.PUT("/poll/:poll", b.requireCSRF, b.expirePoll)
	api.DELETE("/poll/:poll", b.requireCSRF, b.deletePoll)
	api.POST("/vote/vote_a/:poll_id/:voting_id", b.requireCSRF, b.vote(poll.SideA))
	api.POST("/vote/vote_b/:poll_id/:voting_id", b.requireCSRF, b.vote(poll.SideB))

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the API base URL to hand to api.NewClient.
func (b *Backend) URL() string {
	return b.Server.URL + "/api"
}

func (b *Backend) AddUser(email, password, username string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.users[email] = &fakeUser{id: b.nextID, email: email, password: password, username: username}
}

// AddPoll stores p as authored by the user with the given email. Missing
// voting identifiers are derived the way the backend derives them.
func (b *Backend) AddPoll(authorEmail string, p poll.Poll) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u, ok := b.users[authorEmail]; ok {
		p.Author = u.id
	}
	if p.A != nil && p.A.VotingID == "" {
		p.A.VotingID = p.PollID + "A"
	}
	if p.B != nil && p.B.VotingID == "" {
		p.B.VotingID = p.PollID + "B"
	}
	b.nextID++
	p.ID = b.nextID
	cp := p
	b.polls = append(b.polls, &cp)
}

// Poll returns a copy of the stored poll.
func (b *Backend) Poll(id string) (poll.Poll, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.polls {
		if p.PollID == id {
			return clonePoll(p), true
		}
	}
	return poll.Poll{}, false
}

// FailNext makes the next request to route ("METHOD /api/path/:param") answer
// with status and body instead of being handled.
func (b *Backend) FailNext(route string, status int, body gin.H) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = failure{status: status, body: body}
}

// Delay holds every request to route for d before handling it.
func (b *Backend) Delay(route string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay[route] = d
}

// Calls reports how many requests reached route.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

func (b *Backend) record(c *gin.Context) {
	route := c.Request.Method + " " + c.FullPath()

	b.mu.Lock()
	b.calls[route]++
	f, failing := b.failures[route]
	delete(b.failures, route)
	d := b.delay[route]
	b.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	if failing {
		c.AbortWithStatusJSON(f.status, f.body)
		return
	}
	c.Next()
}

func (b *Backend) currentUser(c *gin.Context) *fakeUser {
	refresh, err := c.Cookie("_refresh")
	if err != nil || refresh == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[refresh]
}

func (b *Backend) requireCSRF(c *gin.Context) {
	cookie, err := c.Cookie(csrfCookie)
	if err != nil || cookie == "" || c.GetHeader("X-CSRF-TOKEN") != cookie {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "CSRF Failed: CSRF token missing or incorrect."})
		return
	}
	c.Next()
}

func (b *Backend) issueCookies(c *gin.Context, u *fakeUser) {
	claims := jwt.RegisteredClaims{
		Subject:   u.email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(b.AccessTTL)),
	}
	access, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tokenSecret))
	refresh := uuid.NewString()

	b.mu.Lock()
	b.sessions[refresh] = u
	b.mu.Unlock()

	c.SetCookie("access_cookie", access, 3600, "/", "", false, true)
	c.SetCookie("_refresh", refresh, 86400, "/", "", false, true)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (b *Backend) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"email": []string{"This field is required."}})
		return
	}
	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"password": []string{"password must be atleast 8 digits"}})
		return
	}

	b.mu.Lock()
	if _, exists := b.users[req.Email]; exists {
		b.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"email": []string{"user with this email already exists."}})
		return
	}
	b.nextID++
	u := &fakeUser{id: b.nextID, email: req.Email, password: req.Password, username: fmt.Sprintf("user%d", b.nextID)}
	b.users[req.Email] = u
	b.mu.Unlock()

	b.issueCookies(c, u)
	c.JSON(http.StatusCreated, gin.H{"message": "account created"})
}

func (b *Backend) login(c *gin.Context) {
	var req credentials
	_ = c.ShouldBindJSON(&req)

	b.mu.Lock()
	u, ok := b.users[req.Email]
	b.mu.Unlock()
	if !ok || u.password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}
	b.issueCookies(c, u)
	c.JSON(http.StatusOK, gin.H{"message": "login success"})
}

func (b *Backend) isAuth(c *gin.Context) {
	token, err := c.Cookie(csrfCookie)
	if err != nil || token == "" {
		token = strings.ReplaceAll(uuid.NewString(), "-", "")
		c.SetCookie(csrfCookie, token, 86400, "/", "", false, false)
	}

	u := b.currentUser(c)
	msg := gin.H{"csrf": token, "IsAuthenticated": u != nil, "username": nil}
	if u != nil {
		msg["username"] = u.username
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (b *Backend) logout(c *gin.Context) {
	refresh, _ := c.Cookie("_refresh")
	b.mu.Lock()
	_, ok := b.sessions[refresh]
	delete(b.sessions, refresh)
	b.mu.Unlock()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "request not allowed"})
		return
	}
	c.SetCookie("access_cookie", "", -1, "/", "", false, true)
	c.SetCookie("_refresh", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "user logout"})
}

func (b *Backend) listPolls(c *gin.Context) {
	u := b.currentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "request not allowed"})
		return
	}
	b.mu.Lock()
	out := []poll.Poll{}
	for _, p := range b.polls {
		if p.Author == u.id {
			out = append(out, clonePoll(p))
		}
	}
	b.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"polls": out})
}

func (b *Backend) createPoll(c *gin.Context) {
	u := b.currentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "request not allowed"})
		return
	}
	var req poll.NewPoll
	if err := c.ShouldBindJSON(&req); err != nil || req.ImageA == "" || req.ImageB == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"poll_a_errors": gin.H{"image_A": []string{"Enter a valid URL."}},
			"poll_b_errors": gin.H{},
		})
		return
	}

	b.mu.Lock()
	b.nextID++
	id := fmt.Sprintf("p%06d", b.nextID)
	p := &poll.Poll{
		ID:      b.nextID,
		PollID:  id,
		DueDate: time.Now().AddDate(0, 1, 0).Format(poll.DueDateLayout),
		Author:  u.id,
		A:       &poll.OptionA{VotingID: id + "A", Label: req.LabelA, ImageURL: req.ImageA, Voters: []poll.Voter{}},
		B:       &poll.OptionB{VotingID: id + "B", Label: req.LabelB, ImageURL: req.ImageB, Voters: []poll.Voter{}},
	}
	b.polls = append(b.polls, p)
	b.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"message": id})
}

func (b *Backend) findLocked(id string) (int, *poll.Poll) {
	for i, p := range b.polls {
		if p.PollID == id {
			return i, p
		}
	}
	return -1, nil
}

func (b *Backend) getPoll(c *gin.Context) {
	b.mu.Lock()
	_, p := b.findLocked(c.Param("poll"))
	var out poll.Poll
	if p != nil {
		out = clonePoll(p)
	}
	b.mu.Unlock()
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "No VotingPoll matches the given query."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": out})
}

func (b *Backend) expirePoll(c *gin.Context) {
	if b.currentUser(c) == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "request not allowed"})
		return
	}
	var req struct {
		PollExpired bool `json:"poll_expired"`
	}
	_ = c.ShouldBindJSON(&req)

	b.mu.Lock()
	_, p := b.findLocked(c.Param("poll"))
	if p != nil {
		p.HasEnded = req.PollExpired
	}
	b.mu.Unlock()
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "No VotingPoll matches the given query."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "poll expired"})
}

func (b *Backend) deletePoll(c *gin.Context) {
	if b.currentUser(c) == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "request not allowed"})
		return
	}
	b.mu.Lock()
	i, p := b.findLocked(c.Param("poll"))
	if p != nil {
		b.polls = append(b.polls[:i], b.polls[i+1:]...)
	}
	b.mu.Unlock()
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "No VotingPoll matches the given query."})
		return
	}
	c.Status(http.StatusNoContent)
}

func (b *Backend) vote(side poll.Side) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := b.currentUser(c)
		if u == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		_, p := b.findLocked(c.Param("poll_id"))
		if p == nil || !p.Complete() {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}

		voter := poll.Voter{ID: u.id, Username: u.username}
		var votes *int
		var voters *[]poll.Voter
		if side == poll.SideA {
			if p.A.VotingID != c.Param("voting_id") {
				c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
				return
			}
			votes, voters = &p.A.Votes, &p.A.Voters
		} else {
			if p.B.VotingID != c.Param("voting_id") {
				c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
				return
			}
			votes, voters = &p.B.Votes, &p.B.Voters
		}

		for i, v := range *voters {
			if v.Username == voter.Username {
				*voters = append((*voters)[:i], (*voters)[i+1:]...)
				*votes--
				c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("poll - %s unvoted", side)})
				return
			}
		}
		*voters = append(*voters, voter)
		*votes++
		c.JSON(http.StatusCreated, gin.H{"message": fmt.Sprintf("poll - %s voted", side)})
	}
}

func clonePoll(p *poll.Poll) poll.Poll {
	out := *p
	if p.A != nil {
		a := *p.A
		a.Voters = append([]poll.Voter{}, p.A.Voters...)
		out.A = &a
	}
	if p.B != nil {
		bb := *p.B
		bb.Voters = append([]poll.Voter{}, p.B.Voters...)
		out.B = &bb
	}
	return out
}
