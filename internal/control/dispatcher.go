package control

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kawamuray/photomuseum/internal/orchestrator"
	"github.com/kawamuray/photomuseum/internal/player"
)

// pollTimeout bounds how long the consumer loops block on an empty channel
// before re-checking the terminate flag. Tuning, not contractual.
const pollTimeout = 300 * time.Millisecond

// Dispatcher wires commanders into the orchestrator and the player: every
// playlist-class command is serialized through a single consumer (the
// caller's goroutine, by convention the process's main goroutine); every
// player-class command is handled by an independent consumer so it stays
// responsive even while a playlist refresh blocks on cache I/O or an album
// download.
type Dispatcher struct {
	orchestrator *orchestrator.Orchestrator

	plCommanders     []Commander[PlaylistCmd]
	playerCommanders []Commander[PlayerCmd]
}

// New builds a Dispatcher bound to orch.
func New(orch *orchestrator.Orchestrator) *Dispatcher {
	return &Dispatcher{orchestrator: orch}
}

// AddPlaylistCommander registers a producer of playlist-class commands.
func (d *Dispatcher) AddPlaylistCommander(c Commander[PlaylistCmd]) {
	d.plCommanders = append(d.plCommanders, c)
}

// AddPlayerCommander registers a producer of player-class commands.
func (d *Dispatcher) AddPlayerCommander(c Commander[PlayerCmd]) {
	d.playerCommanders = append(d.playerCommanders, c)
}

// Run starts the orchestrator, launches every commander in its own
// goroutine, and becomes the playlist-command consumer itself. It blocks
// until terminate is set, then joins every non-detached worker before
// returning.
func (d *Dispatcher) Run(terminate *Terminate) error {
	if err := d.orchestrator.Start(); err != nil {
		return fmt.Errorf("control: start orchestrator: %w", err)
	}

	var wg sync.WaitGroup

	playerCh := make(chan PlayerCmd)
	for _, c := range d.playerCommanders {
		c := c
		if !c.Detached() {
			wg.Add(1)
		}
		go func() {
			if !c.Detached() {
				defer wg.Done()
			}
			c.Run(playerCh, terminate)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.runPlayerConsumer(playerCh, terminate)
	}()

	plCh := make(chan PlaylistCmd)
	for _, c := range d.plCommanders {
		c := c
		if !c.Detached() {
			wg.Add(1)
		}
		go func() {
			if !c.Detached() {
				defer wg.Done()
			}
			c.Run(plCh, terminate)
		}()
	}

	d.runPlaylistConsumer(plCh, terminate)

	slog.Info("Waiting for all workers to terminate...")
	wg.Wait()
	return nil
}

func (d *Dispatcher) runPlayerConsumer(ch <-chan PlayerCmd, terminate *Terminate) {
	for !terminate.IsSet() {
		select {
		case cmd, ok := <-ch:
			if !ok {
				slog.Debug("Player command channel closed, breaking out of loop")
				return
			}
			// Goes through PlayerLocked so this command cannot land between
			// the orchestrator's pause check and the player mutation it
			// gates inside replacePlaylist.
			err := d.orchestrator.PlayerLocked(func(p player.Player) error {
				return dispatchPlayerCmd(p, cmd)
			})
			if err != nil {
				slog.Error("Error handling player command", "command", cmd, "error", err)
			}
		case <-time.After(pollTimeout):
		}
	}
}

func (d *Dispatcher) runPlaylistConsumer(ch <-chan PlaylistCmd, terminate *Terminate) {
	for !terminate.IsSet() {
		select {
		case cmd, ok := <-ch:
			if !ok {
				slog.Debug("Playlist command channel closed, breaking out of loop")
				return
			}
			if err := dispatchPlaylistCmd(d.orchestrator, cmd); err != nil {
				slog.Error("Error handling playlist command", "command", cmd, "error", err)
			}
		case <-time.After(pollTimeout):
		}
	}
}
