package audio

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"github.com/mohsenil85/imbolc/internal/action"
)

// Environment variables consulted at startup.
const (
	EnvNoAudio      = "IMBOLC_NO_AUDIO"      // skip auto-starting the server
	EnvSynthDefsDir = "IMBOLC_SYNTHDEFS_DIR" // override synthdef search path
)

// ServerManager owns the scsynth process: spawn, handshake, crash detection,
// cleanup. It drives the Stopped -> Starting -> Running -> Connected -> Error
// state machine and reports transitions through the handle.
type ServerManager struct {
	mu      sync.Mutex
	proc    *exec.Cmd
	status  action.ServerStatus
	addr    string
	port    int
	started bool
	handle  *Handle
	notify  func(action.AudioFeedback)
	stopMon chan struct{}
}

// NewServerManager prepares a manager for a server at the given UDP port.
// notify receives status feedback for the UI.
func NewServerManager(port int, handle *Handle, notify func(action.AudioFeedback)) *ServerManager {
	return &ServerManager{
		status: action.ServerStopped,
		port:   port,
		addr:   fmt.Sprintf("127.0.0.1:%d", port),
		handle: handle,
		notify: notify,
	}
}

// Addr returns the server's UDP address.
func (m *ServerManager) Addr() string { return m.addr }

// Status returns the current connection state.
func (m *ServerManager) Status() action.ServerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Start spawns scsynth (unless IMBOLC_NO_AUDIO is set or one is already
// running) and begins the OSC handshake. Safe to call again after Stop.
func (m *ServerManager) Start() error {
	if os.Getenv(EnvNoAudio) != "" {
		log.Printf("audio: %s set, not starting synthesis server", EnvNoAudio)
		return nil
	}

	m.mu.Lock()
	if m.status != action.ServerStopped && m.status != action.ServerError {
		m.mu.Unlock()
		return nil
	}
	m.setStatusLocked(action.ServerStarting, "starting scsynth")
	m.mu.Unlock()

	path, err := findScsynthPath()
	if err != nil {
		m.setStatus(action.ServerError, err.Error())
		return fmt.Errorf("scsynth not found: %w", err)
	}

	cmd := exec.Command(path, "-u", fmt.Sprintf("%d", m.port))
	cmd.Stdout = log.Writer()
	cmd.Stderr = log.Writer()
	if err := cmd.Start(); err != nil {
		m.setStatus(action.ServerError, err.Error())
		return fmt.Errorf("failed to start scsynth: %w", err)
	}

	m.mu.Lock()
	m.proc = cmd
	m.started = true
	m.stopMon = make(chan struct{})
	m.setStatusLocked(action.ServerRunning, "scsynth running")
	m.mu.Unlock()

	go m.monitor(cmd)
	go m.handshake()
	return nil
}

// handshake pings /status until the server replies, then transitions to
// Connected, pushes the synthdef directory, and rebuilds routing.
func (m *ServerManager) handshake() {
	client := osc.NewClient("127.0.0.1", m.port)
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if m.Status() != action.ServerRunning {
			return
		}
		if err := client.Send(osc.NewMessage("/status")); err == nil {
			// scsynth accepted the datagram; consider the handshake done.
			// The feedback OSC server picks up /status.reply traffic.
			m.setStatus(action.ServerConnected, "connected")
			if dir := SynthDefsDir(); dir != "" {
				m.handle.send(CmdProjection{Effects: []action.AudioEffect{
					action.EffectLoadSynthDefDir{Dir: dir},
					action.EffectRebuildRouting{},
				}})
			}
			return
		}
		time.Sleep(250 * time.Millisecond)
	}
	m.setStatus(action.ServerError, "handshake timed out")
}

// monitor waits on the process and surfaces a crash.
func (m *ServerManager) monitor(cmd *exec.Cmd) {
	err := cmd.Wait()
	m.mu.Lock()
	stopping := m.stopMon == nil
	m.mu.Unlock()
	if stopping {
		return
	}
	msg := "scsynth exited"
	if err != nil {
		msg = fmt.Sprintf("scsynth crashed: %v", err)
	}
	log.Printf("audio: %s", msg)
	m.setStatus(action.ServerError, msg)
	m.handle.NotifyServerCrashed(msg)
	if m.notify != nil {
		m.notify(action.ServerCrashed{Message: msg})
	}
}

// Stop kills the process if we started it.
func (m *ServerManager) Stop() {
	m.mu.Lock()
	proc := m.proc
	started := m.started
	if m.stopMon != nil {
		close(m.stopMon)
		m.stopMon = nil
	}
	m.proc = nil
	m.started = false
	m.setStatusLocked(action.ServerStopped, "stopped")
	m.mu.Unlock()

	if started && proc != nil && proc.Process != nil {
		proc.Process.Kill()
		proc.Wait()
	}
}

// Restart is a Stop followed by Start; the caller decides when to rebuild.
func (m *ServerManager) Restart() error {
	m.Stop()
	return m.Start()
}

func (m *ServerManager) setStatus(s action.ServerStatus, msg string) {
	m.mu.Lock()
	m.setStatusLocked(s, msg)
	m.mu.Unlock()
}

func (m *ServerManager) setStatusLocked(s action.ServerStatus, msg string) {
	if m.status == s {
		return
	}
	m.status = s
	log.Printf("audio: server status %s (%s)", s, msg)
	m.handle.SetServerStatus(s)
	if m.notify != nil {
		m.notify(action.ServerStatusChanged{
			Status:        s,
			Message:       msg,
			ServerRunning: s == action.ServerRunning || s == action.ServerConnected,
		})
	}
}

// SynthDefsDir returns the synthdef search path, honoring the override env
// var, falling back to the per-user data directory.
func SynthDefsDir() string {
	if dir := os.Getenv(EnvSynthDefsDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library/Application Support/imbolc/synthdefs")
	default:
		return filepath.Join(home, ".local/share/imbolc/synthdefs")
	}
}

// findScsynthPath looks for scsynth in PATH and then in the usual
// installation locations per platform.
func findScsynthPath() (string, error) {
	if path, err := exec.LookPath("scsynth"); err == nil {
		return path, nil
	}

	var possiblePaths []string
	switch runtime.GOOS {
	case "darwin":
		possiblePaths = []string{
			"/Applications/SuperCollider.app/Contents/Resources/scsynth",
			"/Applications/SuperCollider/SuperCollider.app/Contents/Resources/scsynth",
		}
		if home, err := os.UserHomeDir(); err == nil {
			possiblePaths = append(possiblePaths,
				filepath.Join(home, "Applications", "SuperCollider.app", "Contents", "Resources", "scsynth"))
		}
	case "linux":
		possiblePaths = []string{
			"/usr/bin/scsynth",
			"/usr/local/bin/scsynth",
			"/opt/supercollider/bin/scsynth",
		}
		if home, err := os.UserHomeDir(); err == nil {
			possiblePaths = append(possiblePaths,
				filepath.Join(home, ".local", "bin", "scsynth"))
		}
	case "windows":
		possiblePaths = []string{
			"C:\\Program Files\\SuperCollider\\scsynth.exe",
			"C:\\Program Files (x86)\\SuperCollider\\scsynth.exe",
		}
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("scsynth executable not found in PATH or common installation locations")
}
