package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kawamuray/photomuseum/config"
	"github.com/kawamuray/photomuseum/internal/album"
	"github.com/kawamuray/photomuseum/internal/auth"
	"github.com/kawamuray/photomuseum/internal/cache"
	"github.com/kawamuray/photomuseum/internal/control"
	"github.com/kawamuray/photomuseum/internal/httpcontrol"
	"github.com/kawamuray/photomuseum/internal/orchestrator"
	"github.com/kawamuray/photomuseum/internal/player"
	"github.com/kawamuray/photomuseum/internal/playlist"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg := config.Load()

	slog.Info("Starting photo museum",
		"appliance", cfg.ApplianceName,
		"album_dir", cfg.AlbumDir,
		"cache_dir", cfg.CacheDir,
		"cache_capacity_bytes", cfg.CacheCapacityBytes,
		"http_addr", cfg.HTTPAddr,
	)

	c, err := cache.Open(cfg.CacheDir, cfg.CacheCapacityBytes)
	if err != nil {
		slog.Error("Failed to open cache", "error", err)
		os.Exit(1)
	}

	a := album.NewLocalAlbum(cfg.AlbumDir)

	builder := playlist.New().
		MinSize(cfg.MinPlaylistSize).
		MaxSize(cfg.MaxPlaylistSize).
		FreshRetention(time.Duration(cfg.FreshRetentionHours) * time.Hour)

	p := player.NewExecPlayer(cfg.PlayerCommand)
	slideshowConfig := player.SlideshowConfig{
		ShowDurationSeconds: cfg.ShowDurationSeconds,
		Fullscreen:          cfg.Fullscreen,
		AudioVolume:         float32(cfg.AudioVolume),
	}

	orch := orchestrator.New(a, p, builder, c, slideshowConfig)

	dispatcher := control.New(orch)
	dispatcher.AddPlaylistCommander(control.NewTickerCommander(
		time.Duration(cfg.AutoRefreshIntervalMinutes)*time.Minute,
		control.PlaylistUpdate,
	))
	dispatcher.AddPlayerCommander(control.NewConsoleCommander())

	authenticator := auth.New(auth.Config{
		ApplianceName: cfg.ApplianceName,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		JWTSecret:     cfg.JWTSecret,
	})
	httpServer := httpcontrol.New(cfg.HTTPAddr, authenticator, orch)
	dispatcher.AddPlaylistCommander(httpServer.PlaylistCommander())
	dispatcher.AddPlayerCommander(httpServer.PlayerCommander())

	// Setup graceful shutdown
	var terminate control.Terminate
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		slog.Info("Shutdown signal received")
		terminate.Set()
	}()

	if err := dispatcher.Run(&terminate); err != nil {
		slog.Error("Dispatcher error", "error", err)
		os.Exit(1)
	}

	slog.Info("Photo museum stopped")
}
