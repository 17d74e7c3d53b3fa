package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"battle-pollster/config"
	"battle-pollster/internal/cache"
	"battle-pollster/internal/handler"
	"battle-pollster/internal/middleware"
	"battle-pollster/internal/services"
	"battle-pollster/internal/websocket"
	"battle-pollster/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

// Dependencies are the long-lived components the routes are served from.
type Dependencies struct {
	Workspaces *services.Workspaces
	Cache      cache.Store
	Hub        *websocket.Hub
	// AuthLimiter is optional; sign-in and sign-up are unlimited without it.
	AuthLimiter    middleware.AuthLimiter
	ViewerLocation *time.Location
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(d Dependencies) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.CORSOrigins))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	health := handler.NewHealthHandler(d.Cache)
	s.engine.GET("/ping", health.Ping)
	s.engine.GET("/health", health.Health)

	app := s.engine.Group("/")
	app.Use(middleware.WorkspaceMiddleware(d.Workspaces, s.config.CookieSecure))
	if s.config.CSRFKey != "" {
		app.Use(middleware.CSRFMiddleware([]byte(s.config.CSRFKey), s.config.CookieSecure))
	}

	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if d.AuthLimiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{middleware.AuthRateLimitMiddleware(d.AuthLimiter), h}
	}

	auth := handler.NewAuthHandler()
	app.GET("/signin", auth.SignInView)
	app.POST("/signin", limited(auth.SignIn)...)
	app.GET("/signup", auth.SignUpView)
	app.POST("/signup", limited(auth.SignUp)...)
	app.POST("/logout", auth.Logout)

	dashboard := handler.NewDashboardHandler()
	app.GET("/", dashboard.Home)
	app.POST("/polls", dashboard.CreatePoll)
	app.DELETE("/polls/:id", dashboard.DeletePoll)

	voting := handler.NewVotingHandler(websocket.NewHandler(d.Hub, s.config.CORSOrigins, s.logger), d.ViewerLocation)
	app.GET("/voting/:poll", voting.View)
	app.POST("/voting/:poll/vote/:side", voting.Vote)
	app.GET("/voting/:poll/live", voting.Live)
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
