package player

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/reelin-cli/reelin/constant"
	"github.com/reelin-cli/reelin/key"
	"github.com/reelin-cli/reelin/log"
	"github.com/reelin-cli/reelin/where"
	"github.com/spf13/viper"
)

// phase models the external driver's lifecycle state machine.
type phase int

const (
	phaseIdle phase = iota
	phaseLaunching
	phaseConnected
	phaseActive
	phaseTerminating
)

const (
	// connectGrace is the fixed delay before the first socket connection
	// attempt; mpv needs a moment to create its IPC server.
	connectGrace = 500 * time.Millisecond

	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond

	pollInterval = 100 * time.Millisecond
	quitTimeout  = 3 * time.Second
)

// MPV drives an external mpv process over its JSON-IPC control channel:
// process spawn, socket connect after a fixed grace period, ~10 Hz
// property polling, and idempotent teardown.
type MPV struct {
	emit func(Event)

	mu         sync.Mutex // guards phase, cmd, socketPath, pollStop, windowID, lastEOF
	phase      phase
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	pollStop   chan struct{}

	ipcMu sync.Mutex // serializes socket requests

	// windowID, when non-zero, binds mpv's video output to a host window.
	windowID int64

	lastEOF bool
}

// NewMPV creates an external-backend driver in the idle state.
func NewMPV(emit func(Event)) *MPV {
	return &MPV{emit: emit, exited: make(chan struct{})}
}

// Kind reports the backend class.
func (m *MPV) Kind() Kind {
	return KindExternal
}

// BindWindow attaches mpv's rendering output to the given host window id
// on the next load. Zero detaches.
func (m *MPV) BindWindow(id int64) {
	m.mu.Lock()
	m.windowID = id
	m.mu.Unlock()
}

// Load spawns mpv with an IPC server on a per-session socket and waits
// for the channel to become reachable. If a session is already active
// the new file is loaded into the running process instead.
func (m *MPV) Load(path string) error {
	m.mu.Lock()
	if m.phase == phaseActive {
		m.lastEOF = false
		m.mu.Unlock()
		if _, err := m.request([]interface{}{"loadfile", path, "replace"}); err != nil {
			return fmt.Errorf("load into running session: %w", err)
		}
		return nil
	}

	if _, err := exec.LookPath("mpv"); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("mpv not found in PATH — install mpv (e.g. brew install mpv)")
	}

	m.phase = phaseLaunching
	m.socketPath = sessionSocketPath()

	m.cmd = exec.Command("mpv", m.launchArgs(path)...)

	// Detach from the parent process group so terminal signals never
	// cascade into the player.
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		m.phase = phaseIdle
		m.mu.Unlock()
		return fmt.Errorf("start mpv: %w", err)
	}

	// Reap the process to prevent zombies.
	m.exited = make(chan struct{})
	exited := m.exited
	cmd := m.cmd
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	m.mu.Unlock()

	if err := m.waitForSocket(); err != nil {
		m.mu.Lock()
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(m.cmd)
		}
		// mpv may have created the socket file even though it never
		// accepted a connection.
		_ = os.Remove(m.socketPath)
		m.socketPath = ""
		m.phase = phaseIdle
		m.mu.Unlock()
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.mu.Lock()
	m.phase = phaseConnected
	m.lastEOF = false
	m.mu.Unlock()

	m.emit(LoadStateChanged(true))
	m.startPolling()

	m.mu.Lock()
	m.phase = phaseActive
	m.mu.Unlock()

	return nil
}

// sessionSocketPath returns a unique per-session IPC address under the
// application temp directory, so startup cleanup reaps crash leftovers.
func sessionSocketPath() string {
	return filepath.Join(where.Temp(), fmt.Sprintf("%s-%d.sock", constant.Reelin, time.Now().UnixNano()))
}

// launchArgs assembles the mpv invocation for the current session.
func (m *MPV) launchArgs(path string) []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		"--keep-open=yes",
		"--idle=yes",
	}
	if viper.GetBool(key.PlayerHardwareDecode) {
		args = append(args, "--hwdec=auto")
	}
	if m.windowID != 0 {
		args = append(args, fmt.Sprintf("--wid=%d", m.windowID))
	}
	return append(args, path)
}

// waitForSocket observes the fixed pre-connect grace period, then polls
// until the IPC socket accepts connections. The grace period is a plain
// delay, not a retry-with-backoff.
func (m *MPV) waitForSocket() error {
	time.Sleep(connectGrace)

	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}

		time.Sleep(socketWaitDelay)
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// startPolling begins the ~10 Hz property polling loop that normalizes
// mpv's property model into typed events.
func (m *MPV) startPolling() {
	m.mu.Lock()
	if m.pollStop != nil {
		m.mu.Unlock()
		return
	}

	stop := make(chan struct{})
	m.pollStop = stop
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-m.exited:
				return
			case <-ticker.C:
				m.pollTick()
			}
		}
	}()
}

// pollTick issues one round of get_property requests. Any failed
// request is silently skipped for this tick: the observable state keeps
// its last known value rather than resetting, and the loop never aborts
// on transient channel failure.
func (m *MPV) pollTick() {
	if pos, err := m.getFloat("time-pos"); err == nil {
		m.emit(TimeUpdated(pos))
	}
	if dur, err := m.getFloat("duration"); err == nil {
		m.emit(DurationKnown(dur))
	}
	if paused, err := m.getBool("pause"); err == nil {
		m.emit(PlayStateChanged(!paused))
	}
	if vol, err := m.getFloat("volume"); err == nil {
		// mpv exposes volume as 0-100
		m.emit(VolumeChanged(vol / 100))
	}
	if muted, err := m.getBool("mute"); err == nil {
		m.emit(MuteChanged(muted))
	}
	if speed, err := m.getFloat("speed"); err == nil {
		m.emit(SpeedChanged(speed))
	}
	if eof, err := m.getBool("eof-reached"); err == nil {
		m.mu.Lock()
		rising := eof && !m.lastEOF
		m.lastEOF = eof
		m.mu.Unlock()

		if rising {
			m.emit(EndOfMedia())
		}
	}
}

// stopPolling cancels the polling loop if it is running.
func (m *MPV) stopPolling() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pollStop != nil {
		close(m.pollStop)
		m.pollStop = nil
	}
}

// Play resumes playback.
func (m *MPV) Play() error {
	return m.set("pause", false)
}

// Pause suspends playback.
func (m *MPV) Pause() error {
	return m.set("pause", true)
}

// Toggle inverts the suspension state.
func (m *MPV) Toggle() error {
	paused, err := m.getBool("pause")
	if err != nil {
		return err
	}
	return m.set("pause", !paused)
}

// Seek moves playback to an absolute position in seconds.
func (m *MPV) Seek(seconds float64) error {
	_, err := m.request([]interface{}{"seek", seconds, "absolute"})
	return err
}

// SeekBy shifts the playback position by a relative amount of seconds.
func (m *MPV) SeekBy(delta float64) error {
	_, err := m.request([]interface{}{"seek", delta, "relative"})
	return err
}

// SetVolume applies a normalized volume, translated to mpv's 0-100 scale.
func (m *MPV) SetVolume(volume float64) error {
	return m.set("volume", volume*100)
}

// SetMuted suppresses or restores audio output.
func (m *MPV) SetMuted(muted bool) error {
	return m.set("mute", muted)
}

// SetSpeed applies a playback rate multiplier.
func (m *MPV) SetSpeed(multiplier float64) error {
	return m.set("speed", multiplier)
}

// Stop tears the session down: cancel the poll loop, best-effort quit,
// terminate the process, and remove the socket's filesystem artifact.
// It is idempotent and safe to call when nothing was ever loaded.
func (m *MPV) Stop() error {
	m.mu.Lock()
	if m.phase == phaseIdle && m.socketPath == "" {
		m.mu.Unlock()
		return nil
	}
	m.phase = phaseTerminating
	socketPath := m.socketPath
	m.mu.Unlock()

	m.stopPolling()

	if socketPath != "" {
		_, _ = m.request([]interface{}{"quit"})

		select {
		case <-m.exited:
		case <-time.After(quitTimeout):
			_ = killProcess(m.cmd)
		}

		_ = os.Remove(socketPath)
	}

	m.mu.Lock()
	m.phase = phaseIdle
	m.socketPath = ""
	m.cmd = nil
	m.mu.Unlock()

	m.emit(PlayStateChanged(false))
	m.emit(LoadStateChanged(false))
	return nil
}

// Socket returns the IPC channel address of the current session.
func (m *MPV) Socket() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.socketPath
}

// set writes a single mpv property over the channel.
func (m *MPV) set(property string, value interface{}) error {
	_, err := m.request([]interface{}{"set_property", property, value})
	return err
}

// getFloat retrieves a float64 mpv property via IPC.
func (m *MPV) getFloat(name string) (float64, error) {
	data, err := m.request([]interface{}{"get_property", name})
	if err != nil {
		return 0, err
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}
	return val, nil
}

// getBool retrieves a boolean mpv property via IPC.
func (m *MPV) getBool(name string) (bool, error) {
	data, err := m.request([]interface{}{"get_property", name})
	if err != nil {
		return false, err
	}

	val, ok := data.(bool)
	if !ok {
		return false, fmt.Errorf("property %s: expected bool, got %T", name, data)
	}
	return val, nil
}
