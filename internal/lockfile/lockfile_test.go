package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func repoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatalf("creating fake .git: %v", err)
	}
	return dir
}

func TestAcquireRelease(t *testing.T) {
	dir := repoDir(t)

	lock, err := Acquire(dir, time.Second, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if _, err := os.Stat(lock.Path()); err != nil {
		t.Fatalf("lock artifact missing: %v", err)
	}

	lock.Release()
	if _, err := os.Stat(lock.Path()); !os.IsNotExist(err) {
		t.Fatalf("lock artifact still present after release")
	}

	// Double release must be safe
	lock.Release()
}

func TestMutualExclusion(t *testing.T) {
	dir := repoDir(t)

	const contenders = 8
	var mu sync.Mutex
	winners := 0
	var wg sync.WaitGroup

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, err := Acquire(dir, 50*time.Millisecond, 5*time.Millisecond)
			if err != nil {
				return
			}
			mu.Lock()
			winners++
			mu.Unlock()
			// Hold past every loser's timeout
			time.Sleep(100 * time.Millisecond)
			lock.Release()
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", winners)
	}
}

func TestSecondAcquireTimesOut(t *testing.T) {
	dir := repoDir(t)

	lock, err := Acquire(dir, time.Second, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer lock.Release()

	_, err = Acquire(dir, 60*time.Millisecond, 10*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestStaleLockReclaimed(t *testing.T) {
	dir := repoDir(t)
	path := filepath.Join(dir, ".git", LockName)

	// A pid far beyond any kernel's pid_max is never alive
	if err := os.WriteFile(path, []byte("99999999\n"), 0644); err != nil {
		t.Fatalf("writing stale lock: %v", err)
	}

	start := time.Now()
	lock, err := Acquire(dir, 5*time.Second, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("acquire over stale lock failed: %v", err)
	}
	defer lock.Release()

	// Reclamation must not wait out the timeout
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("stale reclamation took %v, expected immediate", elapsed)
	}
}

func TestCorruptLockReclaimed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty file", content: ""},
		{name: "garbage content", content: "not-a-pid\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := repoDir(t)
			path := filepath.Join(dir, ".git", LockName)

			// The artifact a holder leaves when it dies between creating
			// the file and writing its pid
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatalf("writing corrupt lock: %v", err)
			}

			start := time.Now()
			lock, err := Acquire(dir, 200*time.Millisecond, 10*time.Millisecond)
			if err != nil {
				t.Fatalf("acquire over corrupt lock failed: %v", err)
			}
			defer lock.Release()

			if elapsed := time.Since(start); elapsed > time.Second {
				t.Fatalf("corrupt lock reclamation took %v, expected immediate", elapsed)
			}
		})
	}
}

func TestLiveLockNotReclaimed(t *testing.T) {
	dir := repoDir(t)
	path := filepath.Join(dir, ".git", LockName)

	// Our own pid is definitely alive
	if err := os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644); err != nil {
		t.Fatalf("writing live lock: %v", err)
	}

	_, err := Acquire(dir, 60*time.Millisecond, 10*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout against live owner, got %v", err)
	}
}
