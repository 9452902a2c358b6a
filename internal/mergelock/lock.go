// Package mergelock implements the filesystem-backed mutual exclusion that
// serialises merges per task. Two concurrent merges of the same task must
// never run at once; two merges of different tasks must not block each
// other. The lock is a plain file under the project's state directory,
// using an atomic create-if-absent open rather than a read-then-write
// check, so the kernel — not this process — arbitrates the race.
package mergelock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// StaleAfter is how long a lock file may sit unreclaimed before the next
// acquirer is allowed to treat it as abandoned.
const StaleAfter = 300 * time.Second

// ErrBusy is returned by Acquire when a live lock is already held.
var ErrBusy = errors.New("mergelock: task is already being merged")

// file is the on-disk representation of a held lock.
type file struct {
	TaskID    string `json:"task_id"`
	Timestamp int64  `json:"timestamp"`
	PID       int    `json:"pid"`
}

// Lock represents a held merge lock. Release must be called exactly once,
// on every exit path of the merge that acquired it.
type Lock struct {
	path string
}

// locksDir returns the directory where lock files for projectRoot live:
// <project>/.auto-claude/.locks/.
func locksDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".auto-claude", ".locks")
}

func lockPath(projectRoot, taskID string) string {
	return filepath.Join(locksDir(projectRoot), "merge-"+taskID+".lock")
}

// Acquire attempts to take the merge lock for taskID under projectRoot. If
// a lock file already exists and is not stale, it returns ErrBusy. A lock
// is stale when its recorded timestamp is older than StaleAfter, or when
// its recorded pid does not correspond to a live process.
func Acquire(projectRoot, taskID string) (*Lock, error) {
	dir := locksDir(projectRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	path := lockPath(projectRoot, taskID)

	if err := tryCreate(path, taskID); err == nil {
		return &Lock{path: path}, nil
	} else if !os.IsExist(err) {
		return nil, fmt.Errorf("create lock file: %w", err)
	}

	stale, err := isStale(path)
	if err != nil {
		// Lock file vanished or is unreadable between the failed create
		// and here; treat as reclaimable and retry once.
		stale = true
	}
	if !stale {
		return nil, ErrBusy
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale lock: %w", err)
	}
	if err := tryCreate(path, taskID); err != nil {
		if os.IsExist(err) {
			return nil, ErrBusy // lost the race to reclaim
		}
		return nil, fmt.Errorf("create lock file after reclaim: %w", err)
	}

	return &Lock{path: path}, nil
}

// tryCreate atomically creates the lock file, failing with an os.IsExist
// error if one is already present.
func tryCreate(path, taskID string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	payload := file{TaskID: taskID, Timestamp: time.Now().Unix(), PID: os.Getpid()}
	return json.NewEncoder(f).Encode(payload)
}

func isStale(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		// Unreadable lock content: treat as stale rather than wedging
		// every future acquirer forever.
		return true, nil
	}

	if time.Since(time.Unix(f.Timestamp, 0)) > StaleAfter {
		return true, nil
	}
	return !processAlive(f.PID), nil
}

// processAlive probes a pid with signal 0, which performs no action other
// than existence and permission checks.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}

// Release deletes the lock file. It is best-effort: if the file is already
// gone (e.g. reclaimed by another process after a crash), that is not an
// error, since the staleness rules already guarantee forward progress.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
