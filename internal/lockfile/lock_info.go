package lockfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	lockFileName = "daemon.lock"
	pidFileName  = "daemon.pid"
)

// LockInfo describes the process holding (or that last held) the daemon
// lock for a given directory.
type LockInfo struct {
	PID       int       `json:"pid"`
	ParentPID int       `json:"parent_pid"`
	Database  string    `json:"database"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
}

// ReadLockInfo reads the lock file in dir and parses it as LockInfo. Older
// lock files hold nothing but a bare PID; those are accepted too, with
// every other field left zero.
func ReadLockInfo(dir string) (*LockInfo, error) {
	data, err := os.ReadFile(filepath.Join(dir, lockFileName))
	if err != nil {
		return nil, fmt.Errorf("lockfile: read lock info: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err == nil {
		return &info, nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("lockfile: lock file contents are neither JSON nor a bare PID")
	}
	return &LockInfo{PID: pid}, nil
}

// checkPIDFile reads the legacy daemon.pid file and reports whether the
// PID it names is currently running.
func checkPIDFile(dir string) (running bool, pid int) {
	data, err := os.ReadFile(filepath.Join(dir, pidFileName))
	if err != nil {
		return false, 0
	}

	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false, 0
	}

	if !isProcessRunning(pid) {
		return false, 0
	}
	return true, pid
}

// TryDaemonLock reports whether a daemon already holds the lock for dir,
// and the PID of the holder when known. It works by attempting to acquire
// the lock itself: success means nobody held it, so the prior occupant (if
// the lock file names one) is stale. Failure to acquire it means a daemon
// currently holds it, and its PID comes from the lock file content, falling
// back to the PID file when the lock content can't be parsed.
func TryDaemonLock(dir string) (running bool, pid int) {
	lockPath := filepath.Join(dir, lockFileName)

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return checkPIDFile(dir)
	}
	defer f.Close()

	if err := flockExclusive(f); err != nil {
		if err == errDaemonLocked {
			if info, infoErr := ReadLockInfo(dir); infoErr == nil && info.PID > 0 {
				return true, info.PID
			}
			return checkPIDFile(dir)
		}
		return checkPIDFile(dir)
	}
	defer FlockUnlock(f)

	return checkPIDFile(dir)
}
