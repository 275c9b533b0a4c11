package control

import (
	"fmt"

	"github.com/kawamuray/photomuseum/internal/orchestrator"
	"github.com/kawamuray/photomuseum/internal/player"
)

func dispatchPlaylistCmd(orch *orchestrator.Orchestrator, cmd PlaylistCmd) error {
	switch cmd {
	case PlaylistUpdate:
		return orch.UpdatePlaylist()
	case PlaylistRefresh:
		return orch.RefreshPlaylist()
	default:
		return fmt.Errorf("control: unknown playlist command %v", cmd)
	}
}

func dispatchPlayerCmd(p player.Player, cmd PlayerCmd) error {
	switch cmd {
	case PlayNext:
		return p.PlayNext()
	case PlayBack:
		return p.PlayBack()
	case Pause:
		return p.Pause()
	case Resume:
		return p.Resume()
	case Mute:
		return p.Mute()
	case Unmute:
		return p.Unmute()
	case Sleep:
		return p.Sleep()
	case Wakeup:
		return p.Wakeup()
	default:
		return fmt.Errorf("control: unknown player command %v", cmd)
	}
}
