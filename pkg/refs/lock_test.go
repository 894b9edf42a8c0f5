package refs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireLockExcludesConcurrentHolder(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "main.lock")

	f, err := acquireLock(lockPath)
	if err != nil {
		t.Fatalf("acquireLock: %v", err)
	}
	defer releaseLock(f, lockPath)

	orig := lockWaitLimitForTest(t, 30*time.Millisecond)
	defer orig()

	_, err = acquireLock(lockPath)
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("acquireLock on held lock = %v, want ErrLockTimeout", err)
	}
}

func TestReleaseLockRemovesFile(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "main.lock")

	f, err := acquireLock(lockPath)
	if err != nil {
		t.Fatalf("acquireLock: %v", err)
	}
	releaseLock(f, lockPath)

	if _, statErr := os.Stat(lockPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected lockfile removed, stat err=%v", statErr)
	}
}

// lockWaitLimitForTest temporarily shortens the package-level wait limit so
// timeout tests do not pay the full 2s budget, restoring it on cleanup.
func lockWaitLimitForTest(t *testing.T, d time.Duration) func() {
	t.Helper()
	prev := lockWaitLimit
	lockWaitLimit = d
	return func() { lockWaitLimit = prev }
}
