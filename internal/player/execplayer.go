package player

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// ExecPlayer drives an external slideshow viewer subprocess over its
// standard input, one newline-terminated command per line. The wire
// protocol itself is intentionally minimal — the real viewer binary is out
// of scope — but the process-supervision shape (CommandContext, piped
// stdin/stderr, a background goroutine draining stderr into structured
// logs) mirrors the subprocess pattern this appliance already uses for
// other external tools.
type ExecPlayer struct {
	command string
	args    []string

	mu       sync.Mutex
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	pausing  bool
	sleeping bool
	healthy  bool
}

// NewExecPlayer builds a player that will launch command with args when
// Start is called.
func NewExecPlayer(command string, args ...string) *ExecPlayer {
	return &ExecPlayer{command: command, args: args}
}

// Start launches the viewer subprocess and writes its initial configuration
// as the first protocol line. At return, the subprocess is running and
// ready to accept further commands on its stdin.
func (p *ExecPlayer) Start(config SlideshowConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cmd := exec.CommandContext(context.Background(), p.command, p.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("player: stdin pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("player: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("player: start %s: %w", p.command, err)
	}

	go drainStderr(stderr)

	p.cmd = cmd
	p.stdin = stdin
	p.healthy = true

	configLine := fmt.Sprintf("configure show_duration=%d fullscreen=%t audio_volume=%.2f\n",
		config.ShowDurationSeconds, config.Fullscreen, config.AudioVolume)
	if _, err := io.WriteString(stdin, configLine); err != nil {
		p.healthy = false
		return fmt.Errorf("player: write config: %w", err)
	}
	slog.Info("Player started", "command", p.command)
	return nil
}

func drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		slog.Debug("Player stderr", "line", scanner.Text())
	}
}

func (p *ExecPlayer) send(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stdin == nil {
		return fmt.Errorf("player: not started")
	}
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		p.healthy = false
		return fmt.Errorf("player: write %q: %w", line, err)
	}
	return nil
}

func (p *ExecPlayer) PlayNext() error { return p.send("play_next") }
func (p *ExecPlayer) PlayBack() error { return p.send("play_back") }

func (p *ExecPlayer) Sleep() error {
	if err := p.send("sleep"); err != nil {
		return err
	}
	p.mu.Lock()
	p.sleeping = true
	p.mu.Unlock()
	return nil
}

func (p *ExecPlayer) Wakeup() error {
	if err := p.send("wakeup"); err != nil {
		return err
	}
	p.mu.Lock()
	p.sleeping = false
	p.mu.Unlock()
	return nil
}

func (p *ExecPlayer) Pause() error {
	if err := p.send("pause"); err != nil {
		return err
	}
	p.mu.Lock()
	p.pausing = true
	p.mu.Unlock()
	return nil
}

func (p *ExecPlayer) Resume() error {
	if err := p.send("resume"); err != nil {
		return err
	}
	p.mu.Lock()
	p.pausing = false
	p.sleeping = false
	p.mu.Unlock()
	return nil
}

func (p *ExecPlayer) Mute() error   { return p.send("mute") }
func (p *ExecPlayer) Unmute() error { return p.send("unmute") }

func (p *ExecPlayer) UpdatePlaylist(paths []string) error {
	return p.send("update_playlist " + strings.Join(paths, "|"))
}

func (p *ExecPlayer) Pausing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pausing || p.sleeping
}

func (p *ExecPlayer) Healthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.healthy
}
