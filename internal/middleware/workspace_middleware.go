package middleware

import (
	"context"
	"net/http"

	"battle-pollster/internal/services"
	"battle-pollster/internal/transport/httpdto"
	"battle-pollster/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	WorkspaceCookie = "bp_session"
	workspaceKey    = "workspace"
)

// WorkspaceMiddleware attaches the browser's workspace, opening a new one
// when the cookie is missing or names a workspace that was swept.
func WorkspaceMiddleware(workspaces *services.Workspaces, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(WorkspaceCookie)
		ws, created, err := workspaces.GetOrCreate(id)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("service unavailable", "SERVICE_UNAVAILABLE"))
			c.Abort()
			return
		}
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(WorkspaceCookie, ws.ID, 0, "/", "", secureCookie, true)
		}

		c.Set(workspaceKey, ws)
		ctx := context.WithValue(c.Request.Context(), logger.WorkspaceIdKey, ws.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func WorkspaceFrom(c *gin.Context) (*services.Workspace, bool) {
	v, ok := c.Get(workspaceKey)
	if !ok {
		return nil, false
	}
	ws, ok := v.(*services.Workspace)
	return ws, ok
}
