// Package httpcontrol exposes the slideshow's command surface over HTTP: an
// admin-authenticated gin server that accepts playlist and player commands
// and reports basic status, running as a detached commander alongside
// whatever other command transports are registered.
package httpcontrol

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kawamuray/photomuseum/internal/auth"
	"github.com/kawamuray/photomuseum/internal/control"
	"github.com/kawamuray/photomuseum/internal/orchestrator"
)

// Server hosts the HTTP command-transport surface. It implements both
// control.Commander[control.PlaylistCmd] and control.Commander[control.PlayerCmd]
// since gin multiplexes both command classes over one listener, unlike the
// separate channel per class the dispatcher otherwise assumes — each route
// writes into whichever channel its own command class belongs to.
type Server struct {
	addr string
	auth *auth.Auth
	orch *orchestrator.Orchestrator

	engine    *gin.Engine
	srv       *http.Server
	startOnce sync.Once

	plCh     chan<- control.PlaylistCmd
	playerCh chan<- control.PlayerCmd
}

// New builds an HTTP command server listening on addr (e.g. ":8080").
func New(addr string, a *auth.Auth, orch *orchestrator.Orchestrator) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), securityHeaders())

	s := &Server{addr: addr, auth: a, orch: orch, engine: engine}
	s.routes()
	return s
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

func authRequired(a *auth.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "authentication required"})
			return
		}
		if _, err := a.ValidateToken(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "invalid or expired token"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", fmt.Errorf("httpcontrol: missing bearer token")
	}
	return header[len(prefix):], nil
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine.POST("/api/login", s.handleLogin)

	authed := s.engine.Group("/api")
	authed.Use(authRequired(s.auth))
	authed.GET("/status", s.handleStatus)
	authed.POST("/commands/playlist/:cmd", s.handlePlaylistCmd)
	authed.POST("/commands/player/:cmd", s.handlePlayerCmd)
}

func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid request body"})
		return
	}

	token, err := s.auth.Authenticate(body.Username, body.Password, c.Request.RemoteAddr)
	if err != nil {
		if err == auth.ErrRateLimited {
			remaining := s.auth.RemainingLockout(c.Request.RemoteAddr)
			c.Header("Retry-After", fmt.Sprintf("%d", int(remaining.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{"status": "error", "error": "too many login attempts"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "token": token})
}

func (s *Server) handleStatus(c *gin.Context) {
	items := s.orch.CurrentPlaylist()
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"playlist_items": len(items),
		"player_pausing": s.orch.Player().Pausing(),
		"player_healthy": s.orch.Player().Healthy(),
	})
}

func (s *Server) handlePlaylistCmd(c *gin.Context) {
	name := c.Param("cmd")
	var cmd control.PlaylistCmd
	switch name {
	case "update":
		cmd = control.PlaylistUpdate
	case "refresh":
		cmd = control.PlaylistRefresh
	default:
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "unknown playlist command"})
		return
	}
	if s.plCh == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": "command channel not ready"})
		return
	}
	s.plCh <- cmd
	c.JSON(http.StatusOK, gin.H{"status": "ok", "command": name})
}

func (s *Server) handlePlayerCmd(c *gin.Context) {
	name := c.Param("cmd")
	cmd, ok := control.PlayerCmdFromName(name)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "unknown player command"})
		return
	}
	if s.playerCh == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": "command channel not ready"})
		return
	}
	s.playerCh <- cmd
	c.JSON(http.StatusOK, gin.H{"status": "ok", "command": name})
}

// PlaylistCommander returns a control.Commander view onto this server for
// playlist-class commands. Detached: the server's own goroutine owns its
// lifetime and the dispatcher does not join it.
func (s *Server) PlaylistCommander() control.Commander[control.PlaylistCmd] {
	return (*playlistCommander)(s)
}

// PlayerCommander returns a control.Commander view onto this server for
// player-class commands.
func (s *Server) PlayerCommander() control.Commander[control.PlayerCmd] {
	return (*playerCommander)(s)
}

type playlistCommander Server

func (c *playlistCommander) Detached() bool { return true }
func (c *playlistCommander) Run(ch chan<- control.PlaylistCmd, terminate *control.Terminate) {
	s := (*Server)(c)
	s.plCh = ch
	s.run(terminate)
}

type playerCommander Server

func (c *playerCommander) Detached() bool { return true }
func (c *playerCommander) Run(ch chan<- control.PlayerCmd, terminate *control.Terminate) {
	s := (*Server)(c)
	s.playerCh = ch
	s.run(terminate)
}

// run starts the HTTP listener exactly once; a second Commander's Run call
// (the server backs both the playlist and player commander views) finds
// startOnce already done and returns immediately, since it is detached anyway.
func (s *Server) run(terminate *control.Terminate) {
	started := false
	s.startOnce.Do(func() {
		started = true
		s.srv = &http.Server{Addr: s.addr, Handler: s.engine}
		go func() {
			slog.Info("HTTP command server listening", "addr", s.addr)
			if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("HTTP command server stopped", "error", err)
			}
		}()
	})
	if !started {
		return
	}

	for !terminate.IsSet() {
		time.Sleep(500 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP command server shutdown error", "error", err)
	}
}
