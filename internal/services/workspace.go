package services

import (
	"context"
	"sync"
	"time"

	"battle-pollster/internal/api"
	"battle-pollster/internal/cache"
	"battle-pollster/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Workspace is the server-side half of one browser: its own backend
// cookies, query cache namespace and liked set.
type Workspace struct {
	ID        string
	Backend   Backend
	Sessions  *SessionService
	Accounts  *AccountService
	Dashboard *DashboardService
	Voting    *VotingService

	mu       sync.Mutex
	lastSeen time.Time
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// BackendFactory opens a fresh backend connection for a new workspace.
type BackendFactory func() (Backend, error)

// APIBackend returns a factory producing one cookie-jar client per workspace.
func APIBackend(opts api.Options, l *logger.Logger) BackendFactory {
	return func() (Backend, error) {
		c, err := api.NewClient(opts, l)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type WorkspacesConfig struct {
	IdleTTL time.Duration
}

// Workspaces is the registry of live browser workspaces.
type Workspaces struct {
	cfg        WorkspacesConfig
	newBackend BackendFactory
	cache      cache.Store
	uploads    *UploadService
	publisher  TallyPublisher
	logger     *logger.Logger
	now        func() time.Time

	mu    sync.RWMutex
	items map[string]*Workspace
}

func NewWorkspaces(cfg WorkspacesConfig, newBackend BackendFactory, store cache.Store, uploads *UploadService, publisher TallyPublisher, l *logger.Logger) *Workspaces {
	if l == nil {
		l = logger.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = time.Hour
	}
	return &Workspaces{
		cfg:        cfg,
		newBackend: newBackend,
		cache:      store,
		uploads:    uploads,
		publisher:  publisher,
		logger:     l,
		now:        time.Now,
		items:      map[string]*Workspace{},
	}
}

// Get returns the workspace for id and marks it as used.
func (ws *Workspaces) Get(id string) (*Workspace, bool) {
	ws.mu.RLock()
	w, ok := ws.items[id]
	ws.mu.RUnlock()
	if ok {
		w.touch(ws.now())
	}
	return w, ok
}

// Create opens a workspace under a new random id.
func (ws *Workspaces) Create() (*Workspace, error) {
	backend, err := ws.newBackend()
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	sessions := NewSessionService(backend, ws.cache, id, ws.logger)
	w := &Workspace{
		ID:        id,
		Backend:   backend,
		Sessions:  sessions,
		Accounts:  NewAccountService(backend, sessions, ws.cache, id, ws.logger),
		Dashboard: NewDashboardService(backend, ws.cache, ws.uploads, id, ws.logger),
		Voting:    NewVotingService(backend, sessions, ws.cache, ws.publisher, id, ws.logger),
		lastSeen:  ws.now(),
	}

	ws.mu.Lock()
	ws.items[id] = w
	ws.mu.Unlock()
	return w, nil
}

// GetOrCreate resolves the id carried by the browser cookie. created is true
// when the id was unknown and a new workspace took its place.
func (ws *Workspaces) GetOrCreate(id string) (w *Workspace, created bool, err error) {
	if id != "" {
		if w, ok := ws.Get(id); ok {
			return w, false, nil
		}
	}
	w, err = ws.Create()
	if err != nil {
		return nil, false, err
	}
	return w, true, nil
}

func (ws *Workspaces) Len() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return len(ws.items)
}

// Sweep drops workspaces idle for longer than the configured TTL together
// with their cached queries. It returns how many were removed.
func (ws *Workspaces) Sweep(ctx context.Context) int {
	cutoff := ws.now().Add(-ws.cfg.IdleTTL)

	ws.mu.Lock()
	var stale []*Workspace
	for id, w := range ws.items {
		if w.idleSince().Before(cutoff) {
			stale = append(stale, w)
			delete(ws.items, id)
		}
	}
	ws.mu.Unlock()

	for _, w := range stale {
		w.Voting.Wait()
		if err := ws.cache.DeletePrefix(ctx, cache.WorkspacePrefix(w.ID)); err != nil {
			ws.logger.WarnCtx(ctx, "drop workspace queries", zap.String("workspace_id", w.ID), zap.Error(err))
		}
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (ws *Workspaces) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := ws.Sweep(ctx); n > 0 {
				ws.logger.Infof("swept %d idle workspaces", n)
			}
		}
	}
}
