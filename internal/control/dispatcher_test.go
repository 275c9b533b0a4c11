package control

import (
	"testing"
	"time"

	"github.com/kawamuray/photomuseum/internal/album"
	"github.com/kawamuray/photomuseum/internal/cache"
	"github.com/kawamuray/photomuseum/internal/orchestrator"
	"github.com/kawamuray/photomuseum/internal/player"
	"github.com/kawamuray/photomuseum/internal/playlist"
)

func TestPlayerCmdFromNameRecognizesAllWireNames(t *testing.T) {
	cases := map[string]PlayerCmd{
		"play_next": PlayNext,
		"play_back": PlayBack,
		"pause":     Pause,
		"resume":    Resume,
		"mute":      Mute,
		"unmute":    Unmute,
		"sleep":     Sleep,
		"wakeup":    Wakeup,
	}
	for name, want := range cases {
		got, ok := PlayerCmdFromName(name)
		if !ok || got != want {
			t.Errorf("PlayerCmdFromName(%q) = (%v, %v), want (%v, true)", name, got, ok, want)
		}
	}
}

func TestPlayerCmdFromNameRejectsUnknown(t *testing.T) {
	if _, ok := PlayerCmdFromName("play_forward"); ok {
		t.Fatalf("expected unknown command name to be rejected")
	}
}

func TestTerminateSetIsObservable(t *testing.T) {
	var term Terminate
	if term.IsSet() {
		t.Fatalf("expected fresh Terminate to be unset")
	}
	term.Set()
	if !term.IsSet() {
		t.Fatalf("expected Terminate to report set after Set()")
	}
}

// oneShotPlaylistCommander sends a single command then returns.
type oneShotPlaylistCommander struct {
	cmd PlaylistCmd
}

func (o *oneShotPlaylistCommander) Detached() bool { return false }
func (o *oneShotPlaylistCommander) Run(ch chan<- PlaylistCmd, terminate *Terminate) {
	ch <- o.cmd
}

type noopAlbum struct{}

func (noopAlbum) Items() album.Iterator                              { return noopAlbum{} }
func (noopAlbum) Next() (album.Item, album.Error, bool)              { return album.Item{}, nil, false }
func (noopAlbum) PrepareItem(item album.Item, destPath string) error { return nil }

type noopPlayer struct{}

func (noopPlayer) Start(player.SlideshowConfig) error   { return nil }
func (noopPlayer) PlayNext() error                      { return nil }
func (noopPlayer) PlayBack() error                      { return nil }
func (noopPlayer) Sleep() error                         { return nil }
func (noopPlayer) Wakeup() error                        { return nil }
func (noopPlayer) Pause() error                         { return nil }
func (noopPlayer) Resume() error                        { return nil }
func (noopPlayer) Mute() error                          { return nil }
func (noopPlayer) Unmute() error                        { return nil }
func (noopPlayer) UpdatePlaylist(paths []string) error  { return nil }
func (noopPlayer) Pausing() bool                        { return false }
func (noopPlayer) Healthy() bool                        { return true }

func TestDispatcherRunProcessesOneCommandThenTerminates(t *testing.T) {
	c, err := cache.Open(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	builder := playlist.New().MinSize(1).MaxSize(5).FreshRetention(time.Hour)
	orch := orchestrator.New(noopAlbum{}, noopPlayer{}, builder, c, player.DefaultSlideshowConfig())

	d := New(orch)
	d.AddPlaylistCommander(&oneShotPlaylistCommander{cmd: PlaylistRefresh})

	var term Terminate
	done := make(chan error, 1)
	go func() { done <- d.Run(&term) }()

	time.Sleep(50 * time.Millisecond)
	term.Set()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after terminate was set")
	}
}
