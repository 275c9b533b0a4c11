package httpcontrol

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kawamuray/photomuseum/internal/album"
	"github.com/kawamuray/photomuseum/internal/auth"
	"github.com/kawamuray/photomuseum/internal/cache"
	"github.com/kawamuray/photomuseum/internal/orchestrator"
	"github.com/kawamuray/photomuseum/internal/player"
	"github.com/kawamuray/photomuseum/internal/playlist"
)

type emptyAlbum struct{}

func (emptyAlbum) Items() album.Iterator                         { return emptyAlbum{} }
func (emptyAlbum) Next() (album.Item, album.Error, bool)         { return album.Item{}, nil, false }
func (emptyAlbum) PrepareItem(album.Item, string) error          { return nil }

type stubPlayer struct{}

func (stubPlayer) Start(player.SlideshowConfig) error       { return nil }
func (stubPlayer) PlayNext() error                          { return nil }
func (stubPlayer) PlayBack() error                          { return nil }
func (stubPlayer) Sleep() error                             { return nil }
func (stubPlayer) Wakeup() error                            { return nil }
func (stubPlayer) Pause() error                             { return nil }
func (stubPlayer) Resume() error                            { return nil }
func (stubPlayer) Mute() error                              { return nil }
func (stubPlayer) Unmute() error                            { return nil }
func (stubPlayer) UpdatePlaylist(paths []string) error      { return nil }
func (stubPlayer) Pausing() bool                            { return false }
func (stubPlayer) Healthy() bool                            { return true }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	c, err := cache.Open(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	builder := playlist.New().MinSize(1).MaxSize(5).FreshRetention(time.Hour)
	orch := orchestrator.New(emptyAlbum{}, stubPlayer{}, builder, c, player.DefaultSlideshowConfig())

	a := auth.New(auth.Config{AdminUsername: "admin", AdminPassword: "secret", JWTSecret: "test-secret-at-least-32-bytes-long"})
	return New(":0", a, orch)
}

func TestHealthzIsUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", w.Code)
	}
}

func TestStatusRequiresAuthentication(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	s.engine.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("GET /api/status without token = %d, want 401", w.Code)
	}
}

func TestLoginThenStatusSucceeds(t *testing.T) {
	s := newTestServer(t)

	loginW := httptest.NewRecorder()
	loginReq := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"admin","password":"secret"}`))
	loginReq.Header.Set("Content-Type", "application/json")
	s.engine.ServeHTTP(loginW, loginReq)
	if loginW.Code != http.StatusOK {
		t.Fatalf("POST /api/login = %d, want 200: %s", loginW.Code, loginW.Body.String())
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(loginW.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}
	if body.Token == "" {
		t.Fatalf("expected non-empty token")
	}

	statusW := httptest.NewRecorder()
	statusReq := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	statusReq.Header.Set("Authorization", "Bearer "+body.Token)
	s.engine.ServeHTTP(statusW, statusReq)
	if statusW.Code != http.StatusOK {
		t.Fatalf("GET /api/status with token = %d, want 200", statusW.Code)
	}
}

func TestPlayerCommandRejectsUnauthenticatedRequestBeforeParsing(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/commands/player/unknown", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	s.engine.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthenticated request to be rejected before command parsing, got %d", w.Code)
	}
}
