package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"battle-pollster/internal/api"
	"battle-pollster/internal/domain/poll"
	"battle-pollster/internal/testutil"
	pollster_errors "battle-pollster/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, b *testutil.Backend) *api.Client {
	t.Helper()
	c, err := api.NewClient(api.Options{BaseURL: b.URL(), Timeout: 2 * time.Second}, nil)
	require.NoError(t, err)
	return c
}

func signedIn(t *testing.T, b *testutil.Backend) (*api.Client, string) {
	t.Helper()
	ctx := context.Background()
	b.AddUser("ana@poll.test", "password1", "quietfox")
	c := newClient(t, b)
	_, err := c.Login(ctx, "", api.Credentials{Email: "ana@poll.test", Password: "password1"})
	require.NoError(t, err)
	s, err := c.IsAuth(ctx)
	require.NoError(t, err)
	require.True(t, s.Authenticated)
	return c, s.CSRFToken
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := api.NewClient(api.Options{BaseURL: "/api"}, nil)
	require.Error(t, err)
}

func TestClient_IsAuth_Anonymous(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newClient(t, b)

	s, err := c.IsAuth(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Authenticated)
	assert.Empty(t, s.Username)
	assert.NotEmpty(t, s.CSRFToken)
	assert.False(t, c.HasCredentials())
}

func TestClient_Login_SetsCookies(t *testing.T) {
	b := testutil.NewBackend(t)
	c, csrf := signedIn(t, b)

	assert.NotEmpty(t, csrf)
	assert.True(t, c.HasCredentials())

	exp, ok := c.AccessExpiry()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
}

func TestClient_Login_InvalidCredentials(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddUser("ana@poll.test", "password1", "quietfox")
	c := newClient(t, b)

	_, err := c.Login(context.Background(), "", api.Credentials{Email: "ana@poll.test", Password: "nope"})
	require.Error(t, err)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindUnauthenticated, apiErr.Kind)
	assert.Equal(t, "invalid credentials", apiErr.Message)
	assert.ErrorIs(t, err, pollster_errors.ErrUnauthorized)
}

func TestClient_Register_FieldErrors(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddUser("ana@poll.test", "password1", "quietfox")
	c := newClient(t, b)

	_, err := c.Register(context.Background(), "", api.Credentials{Email: "ana@poll.test", Password: "password2"})

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindValidation, apiErr.Kind)
	assert.Equal(t, []string{"user with this email already exists."}, apiErr.Fields["email"])
	assert.Equal(t, "user with this email already exists.", apiErr.Message)
	assert.ErrorIs(t, err, pollster_errors.ErrInvalidInput)
}

func TestClient_MutationsWithoutCSRF_NeverReachBackend(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newClient(t, b)
	ctx := context.Background()

	errs := []error{
		c.Logout(ctx, ""),
		c.DeletePoll(ctx, "", "p1"),
		c.ExpirePoll(ctx, "", "p1"),
	}
	_, err := c.CreatePoll(ctx, "", poll.NewPoll{})
	errs = append(errs, err)
	_, err = c.Vote(ctx, "", poll.SideA, "p1", "p1A")
	errs = append(errs, err)

	for _, err := range errs {
		assert.ErrorIs(t, err, pollster_errors.ErrMissingCSRF)
		assert.ErrorIs(t, err, pollster_errors.ErrUnauthorized)
	}
	assert.Zero(t, b.Calls("POST /api/logout"))
	assert.Zero(t, b.Calls("DELETE /api/poll/:poll"))
	assert.Zero(t, b.Calls("PUT /api/poll/:poll"))
	assert.Zero(t, b.Calls("POST /api/poll_list"))
	assert.Zero(t, b.Calls("POST /api/vote/vote_a/:poll_id/:voting_id"))
}

func TestClient_StaleCSRF_IsAuthFailure(t *testing.T) {
	b := testutil.NewBackend(t)
	c, _ := signedIn(t, b)

	err := c.DeletePoll(context.Background(), "stale-token", "p1")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindUnauthenticated, apiErr.Kind)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestClient_PollLifecycle(t *testing.T) {
	b := testutil.NewBackend(t)
	c, csrf := signedIn(t, b)
	ctx := context.Background()

	polls, err := c.ListPolls(ctx)
	require.NoError(t, err)
	assert.Empty(t, polls)
	assert.NotNil(t, polls)

	id, err := c.CreatePoll(ctx, csrf, poll.NewPoll{LabelA: "Cats", ImageA: "https://img/a", LabelB: "Dogs", ImageB: "https://img/b"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	p, err := c.GetPoll(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Cats", p.A.Label)
	assert.Equal(t, id+"B", p.B.VotingID)

	res, err := c.Vote(ctx, csrf, poll.SideA, id, p.A.VotingID)
	require.NoError(t, err)
	assert.True(t, res.Voted)
	assert.Equal(t, "poll - A voted", res.Message)

	res, err = c.Vote(ctx, csrf, poll.SideA, id, p.A.VotingID)
	require.NoError(t, err)
	assert.False(t, res.Voted)

	require.NoError(t, c.ExpirePoll(ctx, csrf, id))
	stored, _ := b.Poll(id)
	assert.True(t, stored.HasEnded)

	require.NoError(t, c.DeletePoll(ctx, csrf, id))
	_, err = c.GetPoll(ctx, id)
	assert.ErrorIs(t, err, pollster_errors.ErrNotFound)
}

func TestClient_ServerError(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newClient(t, b)
	b.FailNext("GET /api/poll/:poll", http.StatusInternalServerError, gin.H{"message": "database is down"})

	_, err := c.GetPoll(context.Background(), "p1")

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindServer, apiErr.Kind)
	assert.Equal(t, "database is down", apiErr.Message)
	assert.ErrorIs(t, err, pollster_errors.ErrUpstream)
}

func TestClient_NetworkError(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newClient(t, b)
	b.Server.Close()

	_, err := c.IsAuth(context.Background())

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindNetwork, apiErr.Kind)
	assert.ErrorIs(t, err, pollster_errors.ErrNetwork)
}

func TestClient_ContextCancelled(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newClient(t, b)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListPolls(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
