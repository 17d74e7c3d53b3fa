package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"battle-pollster/internal/api"
	"battle-pollster/internal/cache"
	"battle-pollster/internal/domain/poll"
	"battle-pollster/internal/storage"
	"battle-pollster/internal/testutil"

	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ana@poll.test"
	testPassword = "password1"
	testUsername = "quietfox"
)

type fakeHost struct {
	mu    sync.Mutex
	calls int
	fail  map[string]error
}

func (h *fakeHost) Upload(ctx context.Context, img storage.Image) (string, error) {
	h.mu.Lock()
	h.calls++
	err := h.fail[img.Filename]
	h.mu.Unlock()
	if err != nil {
		return "", err
	}
	if _, err := io.ReadAll(img.Body); err != nil {
		return "", err
	}
	return "https://img.test/" + img.Filename, nil
}

func (h *fakeHost) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

type recordingPublisher struct {
	mu      sync.Mutex
	tallies map[string][]poll.Tally
}

func (p *recordingPublisher) PublishTally(pollID string, t poll.Tally) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tallies == nil {
		p.tallies = map[string][]poll.Tally{}
	}
	p.tallies[pollID] = append(p.tallies[pollID], t)
}

func (p *recordingPublisher) For(pollID string) []poll.Tally {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tallies[pollID]
}

type harness struct {
	backend   *testutil.Backend
	client    *api.Client
	store     *cache.Memory
	host      *fakeHost
	publisher *recordingPublisher

	sessions  *SessionService
	accounts  *AccountService
	dashboard *DashboardService
	voting    *VotingService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := testutil.NewBackend(t)
	b.AddUser(testEmail, testPassword, testUsername)

	client, err := api.NewClient(api.Options{BaseURL: b.URL(), Timeout: 2 * time.Second}, nil)
	require.NoError(t, err)

	h := &harness{
		backend:   b,
		client:    client,
		store:     cache.NewMemory(time.Hour),
		host:      &fakeHost{fail: map[string]error{}},
		publisher: &recordingPublisher{},
	}
	const ws = "ws-test"
	h.sessions = NewSessionService(client, h.store, ws, nil)
	h.accounts = NewAccountService(client, h.sessions, h.store, ws, nil)
	h.dashboard = NewDashboardService(client, h.store, NewUploadService(h.host), ws, nil)
	h.voting = NewVotingService(client, h.sessions, h.store, h.publisher, ws, nil)
	t.Cleanup(h.voting.Wait)
	return h
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, h.accounts.SignIn(context.Background(), SignInInput{Email: testEmail, Password: testPassword}))
}

// addPoll stores a poll authored by the test user and returns its id.
func (h *harness) addPoll(id, labelA, labelB, due string) string {
	h.backend.AddPoll(testEmail, poll.Poll{
		PollID:  id,
		DueDate: due,
		A:       &poll.OptionA{Label: labelA, ImageURL: "https://img.test/a.png", Voters: []poll.Voter{}},
		B:       &poll.OptionB{Label: labelB, ImageURL: "https://img.test/b.png", Voters: []poll.Voter{}},
	})
	return id
}

func image(name string) *storage.Image {
	return &storage.Image{Filename: name, ContentType: "image/png", Body: strings.NewReader(name)}
}

func inDays(n int) string {
	return time.Now().AddDate(0, 0, n).Format(poll.DueDateLayout)
}

var errUploadRefused = errors.New("upload refused")

func label(n int) string {
	return strings.Repeat("x", n)
}
