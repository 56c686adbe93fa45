// Package cmd implements the command-line interface for reelin.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"golang.org/x/term"

	"github.com/reelin-cli/reelin/icon"
	"github.com/reelin-cli/reelin/library"
	"github.com/reelin-cli/reelin/log"
	"github.com/reelin-cli/reelin/open"
	"github.com/reelin-cli/reelin/player"
	"github.com/reelin-cli/reelin/style"
	"github.com/reelin-cli/reelin/util"
)

const (
	seekStep   = 5.0
	volumeStep = 0.05
	speedStep  = 0.25
)

// session is the interactive playback loop: one status line redrawn in
// place, single-key controls read from the raw terminal.
type session struct {
	lib *library.Library
	ctl *player.Controller
}

func (s *session) run() error {
	fd := int(os.Stdin.Fd())

	previous, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, previous)
		fmt.Print("\r\n")
	}()

	keys := make(chan byte, 8)
	go readKeys(keys)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	s.render()

	for {
		select {
		case <-ticker.C:
			s.render()
		case b, ok := <-keys:
			if !ok {
				return nil
			}
			if s.handle(b, keys) {
				return nil
			}
			s.render()
		}
	}
}

func readKeys(keys chan<- byte) {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			close(keys)
			return
		}
		if n > 0 {
			keys <- buf[0]
		}
	}
}

// handle applies one key press, reporting whether the session is over.
func (s *session) handle(b byte, keys <-chan byte) (quit bool) {
	switch b {
	case 'q', 3: // ctrl-c
		return true
	case ' ':
		s.ctl.Toggle()
	case 'n':
		s.lib.Next()
	case 'p':
		s.lib.Previous()
	case 'm':
		s.ctl.ToggleMute()
	case 's':
		s.lib.SetShuffle(!s.lib.Shuffling())
	case 'o':
		if current, ok := s.lib.Current().Get(); ok {
			if err := open.Start(current.Folder); err != nil {
				log.Warnf("opening %s: %v", current.Folder, err)
			}
		}
	case '+', '=':
		s.ctl.SetVolume(s.ctl.Snapshot().Volume + volumeStep)
	case '-':
		s.ctl.SetVolume(s.ctl.Snapshot().Volume - volumeStep)
	case ']':
		s.ctl.SetSpeed(s.ctl.Snapshot().Speed + speedStep)
	case '[':
		s.ctl.SetSpeed(util.Clamp(s.ctl.Snapshot().Speed-speedStep, speedStep, 4))
	case 0x1b:
		s.handleEscape(keys)
	}
	return false
}

// handleEscape resolves arrow-key sequences; a lone escape is ignored.
func (s *session) handleEscape(keys <-chan byte) {
	next := func() byte {
		select {
		case b := <-keys:
			return b
		case <-time.After(50 * time.Millisecond):
			return 0
		}
	}

	if next() != '[' {
		return
	}

	switch next() {
	case 'C':
		s.ctl.SeekBy(seekStep)
	case 'D':
		s.ctl.SeekBy(-seekStep)
	}
}

func (s *session) render() {
	state := s.ctl.Snapshot()

	name := "nothing loaded"
	if current, ok := s.lib.Current().Get(); ok {
		name = current.Name
	}

	mode := icon.Get(lo.Ternary(state.Playing, icon.Play, icon.Pause))
	if s.lib.Shuffling() {
		mode += " " + icon.Get(icon.Shuffle)
	}

	line := fmt.Sprintf(
		"%s %s  %s / %s  vol %3.0f%%",
		mode,
		style.Bold(name),
		util.FormatTime(state.Position),
		util.FormatTime(state.Duration),
		state.Volume*100,
	)

	if state.Muted {
		line += " muted"
	}
	if state.Speed != 1 {
		line += fmt.Sprintf(" x%.2f", state.Speed)
	}
	if state.Err != "" {
		line = fmt.Sprintf("%s %s", icon.Get(icon.Fail), state.Err)
	}

	if width, _, err := util.TerminalSize(); err == nil {
		line = style.Truncate(width)(line)
	}

	fmt.Print("\r\x1b[2K" + line)
}
