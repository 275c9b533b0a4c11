// Package orchestrator holds the current playlist and reconciles it against
// the cache and the player: the state-holding coordinator that serializes
// refresh/update commands against player commands arriving from multiple
// concurrent command sources.
package orchestrator

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/kawamuray/photomuseum/internal/album"
	"github.com/kawamuray/photomuseum/internal/cache"
	"github.com/kawamuray/photomuseum/internal/player"
	"github.com/kawamuray/photomuseum/internal/playlist"
)

// tmpfileName is the stable sentinel filename used for in-flight downloads.
// It is never registered as a cache resident, so it carries no entry and is
// implicitly excluded from eviction; a leftover from a crash is harmless and
// is overwritten by the next download.
const tmpfileName = ".downloading.tmp"

// Orchestrator is the sole owner of the player and the cache; the album is
// shared-readable. It must not be accessed concurrently except through its
// exported methods, which is sufficient because the command dispatcher
// consumes playlist-class commands on a single thread.
type Orchestrator struct {
	mu sync.RWMutex

	album   album.Album
	player  player.Player
	builder *playlist.Builder
	cache   *cache.Cache
	config  player.SlideshowConfig

	// playerMu is the single lock guarding every interaction with player,
	// mirroring the original's Arc<Mutex<P>> held once across a pause check
	// and the mutation it gates. Any player command dispatched from outside
	// the orchestrator (console, HTTP, ticker) must go through PlayerLocked
	// so a Pause arriving between the pause check and UpdatePlaylist inside
	// replacePlaylist cannot be dispatched until that check-then-act
	// sequence has finished.
	playerMu sync.Mutex

	started         bool
	currentPlaylist []album.Item
}

// New builds an Orchestrator. It does not start the player or build an
// initial playlist; call Start for that.
func New(a album.Album, p player.Player, builder *playlist.Builder, c *cache.Cache, config player.SlideshowConfig) *Orchestrator {
	return &Orchestrator{
		album:   a,
		player:  p,
		builder: builder,
		cache:   c,
		config:  config,
	}
}

// Start is idempotent. On the first call it brings up the player with the
// configured slideshow options, then runs an initial RefreshPlaylist.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return nil
	}
	o.started = true
	o.mu.Unlock()

	if err := o.PlayerLocked(func(p player.Player) error {
		return p.Start(o.config)
	}); err != nil {
		return fmt.Errorf("orchestrator: start player: %w", err)
	}
	return o.RefreshPlaylist()
}

// PlayerLocked runs fn with exclusive access to the player. Every external
// entry point into the player — start, the pause-then-update sequence
// inside replacePlaylist, and player commands dispatched from the command
// surfaces — must go through this single lock, so a Pause dispatched
// between a pause check and the mutation it gates can never land in that
// window unobserved.
func (o *Orchestrator) PlayerLocked(fn func(player.Player) error) error {
	o.playerMu.Lock()
	defer o.playerMu.Unlock()
	return fn(o.player)
}

// RefreshPlaylist builds a fresh playlist from scratch and replaces the
// current one, unless the player is currently paused.
func (o *Orchestrator) RefreshPlaylist() error {
	slog.Info("Start refreshing playlist")
	if o.player.Pausing() {
		slog.Info("Player is pausing, not refreshing playlist")
		return nil
	}

	newList, err := o.builder.Build(o.album)
	if err != nil {
		return fmt.Errorf("orchestrator: build playlist: %w", err)
	}
	return o.replacePlaylist(newList)
}

// UpdatePlaylist incrementally recomputes the playlist against the current
// one, replacing it only if the recomputation differs, unless the player is
// currently paused.
func (o *Orchestrator) UpdatePlaylist() error {
	o.mu.RLock()
	current := o.currentPlaylist
	o.mu.RUnlock()

	slog.Info("Start updating playlist", "current_items", len(current))
	if o.player.Pausing() {
		slog.Info("Player is pausing, not updating playlist")
		return nil
	}

	updated, err := o.builder.Updated(o.album, current)
	if err != nil {
		return fmt.Errorf("orchestrator: update playlist: %w", err)
	}
	if updated == nil {
		slog.Info("No new updates for playlist")
		return nil
	}
	slog.Info("Playlist updated", "new_items", len(updated))
	return o.replacePlaylist(updated)
}

// replacePlaylist is the critical section described for C5: prepare every
// item locally via the cache, push the prepared paths to the player (unless
// paused), then release whatever the superseded playlist was holding.
func (o *Orchestrator) replacePlaylist(newList []album.Item) error {
	paths, err := o.prepareItems(newList)
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		slog.Info("Not updating playlist because it has no items")
		return nil
	}

	// The pause check and the player mutation it gates run under a single
	// lock acquisition: a Pause command dispatched concurrently either
	// completes and is observed here, or blocks until this section
	// finishes and is observed on the next refresh/update instead. Either
	// way it is never silently lost.
	pushed := false
	if err := o.PlayerLocked(func(p player.Player) error {
		if p.Pausing() {
			slog.Info("Player is pausing, not replacing playlist")
			return nil
		}
		slog.Info("Updating playlist on player...")
		if err := p.UpdatePlaylist(paths); err != nil {
			return fmt.Errorf("orchestrator: update player playlist: %w", err)
		}
		pushed = true
		return nil
	}); err != nil {
		return err
	}
	if !pushed {
		return nil
	}

	o.mu.Lock()
	oldPlaylist := o.currentPlaylist
	o.currentPlaylist = newList
	o.mu.Unlock()

	for _, item := range oldPlaylist {
		if err := o.cache.Release(item.RelativePath); err != nil {
			slog.Error("Failed to release item from cache", "path", item.RelativePath, "error", err)
		}
	}
	slog.Info("Finished updating playlist")
	return nil
}

// prepareItems downloads (if needed) and acquires cache space for every
// item in list, returning the local filesystem paths of the items that
// succeeded. Items that fail to acquire cache space (capacity exhaustion)
// are logged and skipped rather than failing the whole call; I/O errors
// from downloading, stat'ing, or renaming are fatal and abort the call.
func (o *Orchestrator) prepareItems(list []album.Item) ([]string, error) {
	slog.Info("Preparing items locally", "count", len(list))

	reserved := make(map[string]struct{}, len(list))
	for _, item := range list {
		reserved[item.RelativePath] = struct{}{}
	}

	tmpPath, err := o.cache.Filepath(tmpfileName)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: tmp filepath: %w", err)
	}

	paths := make([]string, 0, len(list))
	for _, item := range list {
		path, err := o.cache.Filepath(item.RelativePath)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: filepath %s: %w", item.RelativePath, err)
		}

		var size uint64
		if _, statErr := os.Stat(path); statErr == nil {
			slog.Debug("Media already exists, skipping download", "path", item.RelativePath)
			info, err := os.Stat(path)
			if err != nil {
				return nil, fmt.Errorf("orchestrator: stat %s: %w", path, err)
			}
			size = uint64(info.Size())
		} else {
			slog.Info("Downloading item", "path", item.RelativePath)
			if err := o.album.PrepareItem(item, tmpPath); err != nil {
				return nil, fmt.Errorf("orchestrator: prepare item %s: %w", item.RelativePath, err)
			}
			info, err := os.Stat(tmpPath)
			if err != nil {
				return nil, fmt.Errorf("orchestrator: stat tmp file: %w", err)
			}
			size = uint64(info.Size())
		}

		ok, err := o.cache.Acquire(item.RelativePath, size, reserved)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: acquire %s: %w", item.RelativePath, err)
		}
		if !ok {
			slog.Warn("Failed to acquire cache space for item, skipping", "path", item.RelativePath)
			continue
		}

		if _, statErr := os.Stat(path); statErr != nil {
			if err := os.Rename(tmpPath, path); err != nil {
				return nil, fmt.Errorf("orchestrator: rename into place %s: %w", path, err)
			}
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// CurrentPlaylist returns a copy of the playlist currently pushed to the
// player.
func (o *Orchestrator) CurrentPlaylist() []album.Item {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]album.Item, len(o.currentPlaylist))
	copy(out, o.currentPlaylist)
	return out
}

// Player returns the orchestrator's player for read-only status reporting
// (e.g. the HTTP status endpoint). Anything that dispatches a command to the
// player must go through PlayerLocked instead, not this accessor.
func (o *Orchestrator) Player() player.Player {
	return o.player
}
