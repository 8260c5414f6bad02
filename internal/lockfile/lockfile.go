// Package lockfile provides per-repository mutual exclusion for release
// runs. At most one holder exists at a time; a holder whose recorded pid is
// no longer alive is stale and reclaimable.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// ErrTimeout means the lock was held by a live process for the whole wait
var ErrTimeout = errors.New("timed out waiting for release lock")

// LockName is the artifact name created under the repository's .git dir
const LockName = "relsync.lock"

// Lock represents held ownership of a repository's release lock
type Lock struct {
	path    string
	release sync.Once
}

// Acquire takes the release lock for the repository at repoPath.
// The lock file is created with O_EXCL so concurrent acquirers race on a
// kernel-enforced primitive, never on check-then-create. A stale lock
// (dead owner pid) is deleted and re-contended immediately.
func Acquire(repoPath string, timeout, poll time.Duration) (*Lock, error) {
	path := filepath.Join(repoPath, ".git", LockName)
	deadline := time.Now().Add(timeout)

	for {
		ok, err := tryCreate(path)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Lock{path: path}, nil
		}

		if reclaimStale(path) {
			// Stale owner removed; contend again without sleeping
			continue
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w (held by pid %s)", ErrTimeout, ownerString(path))
		}
		time.Sleep(poll)
	}
}

// Release deletes the lock artifact. Safe to call multiple times; every
// exit path of a run must reach it.
func (l *Lock) Release() {
	l.release.Do(func() {
		_ = os.Remove(l.path)
	})
}

// Path returns the lock artifact location
func (l *Lock) Path() string {
	return l.path
}

func tryCreate(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("creating lock %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		os.Remove(path)
		return false, fmt.Errorf("writing lock %s: %w", path, err)
	}
	return true, nil
}

// reclaimStale deletes the lock if its recorded owner is not alive.
// Returns true if the caller should immediately retry acquisition.
func reclaimStale(path string) bool {
	pid, err := ownerPid(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Vanished between attempts; contend again
			return true
		}
		// No parseable pid means the artifact is orphaned: a holder that
		// crashed between creating the file and recording its pid can
		// never come back for it
		return os.Remove(path) == nil
	}
	if processAlive(pid) {
		return false
	}
	return os.Remove(path) == nil
}

func ownerPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func ownerString(path string) string {
	pid, err := ownerPid(path)
	if err != nil {
		return "unknown"
	}
	return strconv.Itoa(pid)
}

// processAlive probes liveness with signal 0. EPERM still means the
// process exists, just owned by someone else.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
