package handler

import (
	"net/http"

	"battle-pollster/internal/cache"
	"battle-pollster/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	cache cache.Store
}

func NewHealthHandler(store cache.Store) *HealthHandler {
	return &HealthHandler{cache: store}
}

func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
}

func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.cache.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
}
