package websocket

import (
	"context"
	"net/http"
	"net/url"

	"battle-pollster/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewHandler accepts upgrades from the page's own host and from the listed
// browser origins.
func NewHandler(hub *Hub, allowedOrigins []string, l *logger.Logger) *Handler {
	if l == nil {
		l = logger.NewNop()
	}
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Handler{
		hub:    hub,
		logger: l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := allowed[origin]; ok {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

// Connect upgrades the request and streams tallies of pollID until the
// browser disconnects. initial, when set, is sent before any broadcast.
func (h *Handler) Connect(c *gin.Context, workspaceID, pollID string, initial []byte) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WarnCtx(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, workspaceID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client, PollChannel(pollID))
	if initial != nil {
		client.SendMessage(initial)
	}
	go client.WriteLoop(ctx)

	client.ReadLoop()
	h.hub.Unregister(client)
}
