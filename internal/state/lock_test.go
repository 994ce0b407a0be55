package state_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wpforge/wpforge/internal/state"
)

func TestLock_AcquireRelease(t *testing.T) {
	dir := t.TempDir()
	lock := state.NewLock(dir)

	if err := lock.Acquire(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(lock.Path); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(lock.Path); !os.IsNotExist(err) {
		t.Error("lock file left behind")
	}
}

func TestLock_SecondAcquireFails(t *testing.T) {
	dir := t.TempDir()
	first := state.NewLock(dir)
	if err := first.Acquire(); err != nil {
		t.Fatal(err)
	}
	defer first.Release()

	// The lock names this test process, which is alive, so it is not stale.
	second := state.NewLock(dir)
	if err := second.Acquire(); err == nil {
		t.Fatal("concurrent acquire succeeded")
	}
}

func TestLock_StaleLockReplaced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wpforge.lock")
	// Pid 0 can never be a live owner.
	if err := os.WriteFile(path, []byte("0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lock := state.NewLock(dir)
	if err := lock.Acquire(); err != nil {
		t.Fatalf("stale lock not replaced: %v", err)
	}
	lock.Release()
}

func TestLock_ReleaseWithoutAcquire(t *testing.T) {
	lock := state.NewLock(t.TempDir())
	if err := lock.Release(); err != nil {
		t.Fatalf("release of absent lock: %v", err)
	}
}
