package control

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ConsoleCommander reads newline-terminated player command names from an
// input stream (stdin by default) and forwards each recognized one. It is
// detached: the dispatcher does not wait for stdin to close at shutdown.
type ConsoleCommander struct {
	in     io.Reader
	prompt io.Writer
}

// NewConsoleCommander builds a commander reading from os.Stdin.
func NewConsoleCommander() *ConsoleCommander {
	return &ConsoleCommander{in: os.Stdin, prompt: os.Stderr}
}

func (c *ConsoleCommander) Detached() bool { return true }

func (c *ConsoleCommander) Run(ch chan<- PlayerCmd, terminate *Terminate) {
	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.prompt, "cmd> ")
		if !scanner.Scan() {
			slog.Info("Console commander reached EOF")
			return
		}
		name := scanner.Text()
		cmd, ok := PlayerCmdFromName(name)
		if !ok {
			slog.Warn("Unknown command", "name", name)
			continue
		}
		if terminate.IsSet() {
			return
		}
		ch <- cmd
	}
}
