package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"battle-pollster/internal/api"
	"battle-pollster/internal/cache"
	"battle-pollster/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspaces(t *testing.T) (*Workspaces, *cache.Memory) {
	t.Helper()
	b := testutil.NewBackend(t)
	store := cache.NewMemory(time.Hour)
	ws := NewWorkspaces(
		WorkspacesConfig{IdleTTL: time.Minute},
		APIBackend(api.Options{BaseURL: b.URL(), Timeout: time.Second}, nil),
		store,
		NewUploadService(&fakeHost{}),
		nil,
		nil,
	)
	return ws, store
}

func TestWorkspaces_GetOrCreate(t *testing.T) {
	ws, _ := newWorkspaces(t)

	w, created, err := ws.GetOrCreate("")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, w.ID)

	again, created, err := ws.GetOrCreate(w.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, w, again)

	other, created, err := ws.GetOrCreate("unknown-id")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, w.ID, other.ID)
	assert.Equal(t, 2, ws.Len())
}

func TestWorkspaces_AreIsolated(t *testing.T) {
	ws, _ := newWorkspaces(t)
	a, err := ws.Create()
	require.NoError(t, err)
	b, err := ws.Create()
	require.NoError(t, err)

	assert.NotSame(t, a.Backend, b.Backend)
	assert.NotSame(t, a.Voting, b.Voting)
}

func TestWorkspaces_SweepDropsIdle(t *testing.T) {
	ws, store := newWorkspaces(t)
	ctx := context.Background()
	start := time.Now()
	ws.now = func() time.Time { return start }

	idle, err := ws.Create()
	require.NoError(t, err)
	_, err = idle.Sessions.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	ws.now = func() time.Time { return start.Add(50 * time.Second) }
	active, err := ws.Create()
	require.NoError(t, err)

	ws.now = func() time.Time { return start.Add(90 * time.Second) }
	assert.Equal(t, 1, ws.Sweep(ctx))

	_, ok := ws.Get(idle.ID)
	assert.False(t, ok)
	_, ok = ws.Get(active.ID)
	assert.True(t, ok)
	assert.Zero(t, store.Len())
}

func TestWorkspaces_BackendFactoryError(t *testing.T) {
	boom := errors.New("no backend")
	ws := NewWorkspaces(WorkspacesConfig{}, func() (Backend, error) { return nil, boom }, cache.NewMemory(time.Hour), nil, nil, nil)

	_, _, err := ws.GetOrCreate("")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, ws.Len())
}
