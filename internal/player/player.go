// Package player defines the contract between the orchestrator and whatever
// actually drives the display: a subprocess slideshow viewer, a test double,
// or any other endpoint exposing the same fixed operation set.
package player

// SlideshowConfig is the set of options a Player is started with.
type SlideshowConfig struct {
	// ShowDurationSeconds is how long, in seconds, a single photo stays on
	// screen.
	ShowDurationSeconds int
	// Fullscreen enables kiosk-mode display. On by default, disabled only
	// for debugging.
	Fullscreen bool
	// AudioVolume is the video playback volume, in [0.0, 1.0].
	AudioVolume float32
}

// DefaultSlideshowConfig mirrors the original appliance's defaults: a
// ten-second dwell time, fullscreen, and half volume.
func DefaultSlideshowConfig() SlideshowConfig {
	return SlideshowConfig{
		ShowDurationSeconds: 10,
		Fullscreen:          true,
		AudioVolume:         0.5,
	}
}

// Player is a stateful endpoint driving the actual display. At the time
// Start returns, the player must be ready to accept an immediate
// UpdatePlaylist call.
type Player interface {
	Start(config SlideshowConfig) error
	PlayNext() error
	PlayBack() error
	// Sleep stops the slideshow immediately until Wakeup or Resume is
	// called.
	Sleep() error
	// Wakeup returns the player from sleep. If it is also pausing, playback
	// does not resume until Resume is called.
	Wakeup() error
	Pause() error
	Resume() error
	Mute() error
	Unmute() error
	UpdatePlaylist(paths []string) error
	// Pausing reports whether the player is currently paused or asleep.
	Pausing() bool
	// Healthy reports whether the player is considered functioning.
	Healthy() bool
}
