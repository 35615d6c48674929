//go:build windows

package daemon

import (
	"os"
	"os/exec"
	"syscall"
)

// processAlive reports whether pid can be signalled. FindProcess always
// succeeds on Windows, so the zero signal does the real check.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// detach is a no-op on Windows (no Setsid equivalent).
func detach(_ *exec.Cmd) {}

// terminate kills outright; Windows has no SIGTERM delivery.
func terminate(pid int) error { return kill(pid) }

func kill(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
