package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ErrNotRunning is returned by Stop when no live process is recorded.
var ErrNotRunning = errors.New("not running")

// Daemon starts and stops one background process.
type Daemon struct {
	PID     *PIDFile
	LogPath string
}

// New returns a Daemon tracked by pidPath and logging to logPath.
func New(pidPath, logPath string) *Daemon {
	return &Daemon{PID: NewPIDFile(pidPath), LogPath: logPath}
}

// Status returns the recorded PID and whether it is alive.
func (d *Daemon) Status() (int, bool) {
	return d.PID.IsRunning()
}

// Start launches exe with args detached from the terminal, with stdout and
// stderr appended to the log file, and records its PID.
func (d *Daemon) Start(exe string, args ...string) (int, error) {
	if err := d.PID.Acquire(); err != nil {
		return 0, err
	}

	logFile, err := os.OpenFile(d.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(exe, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", exe, err)
	}
	pid := cmd.Process.Pid
	if err := d.PID.WritePID(pid); err != nil {
		_ = cmd.Process.Kill()
		return 0, fmt.Errorf("write pid file: %w", err)
	}
	_ = cmd.Process.Release()
	return pid, nil
}

// Stop asks the process to terminate and waits up to timeout before
// killing it. The PID file is removed either way.
func (d *Daemon) Stop(timeout time.Duration) error {
	pid, running := d.PID.IsRunning()
	if !running {
		_ = d.PID.Remove()
		return fmt.Errorf("server %w", ErrNotRunning)
	}

	if err := terminate(pid); err != nil {
		return fmt.Errorf("signal pid %d: %w", pid, err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return d.PID.Remove()
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := kill(pid); err != nil && processAlive(pid) {
		return fmt.Errorf("kill pid %d: %w", pid, err)
	}
	return d.PID.Remove()
}
