package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Lock is an exclusive lock file guarding the run record and secret bundle
// against concurrent wpforge invocations on the same host.
type Lock struct {
	Path string
}

func NewLock(dir string) *Lock {
	return &Lock{Path: filepath.Join(dir, "wpforge.lock")}
}

// Acquire creates the lock file with this process's pid. A lock whose owner
// process is gone is treated as stale and replaced.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err == nil {
		fmt.Fprintf(f, "%d\n", os.Getpid())
		return f.Close()
	}
	if !os.IsExist(err) {
		return err
	}

	data, readErr := os.ReadFile(l.Path)
	if readErr != nil {
		return fmt.Errorf("another wpforge run holds %s", l.Path)
	}
	pid, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
	if convErr == nil && pidAlive(pid) {
		return fmt.Errorf("another wpforge run (pid %d) holds %s", pid, l.Path)
	}

	// Stale lock from a dead process.
	if err := os.Remove(l.Path); err != nil {
		return err
	}
	return l.Acquire()
}

// Release removes the lock file.
func (l *Lock) Release() error {
	err := os.Remove(l.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
