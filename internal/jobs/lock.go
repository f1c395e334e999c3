package jobs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ErrJobLocked reports that another process is running a job for the same
// composition.
var ErrJobLocked = errors.New("composition is locked by another process")

// JobLock serializes job runs of one composition across processes.
type JobLock struct {
	lock *flock.Flock
}

// LockKey returns the key that serializes a job: its composition id, or the
// job id when the job has no composition.
func LockKey(compositionID, jobID string) string {
	if key := strings.TrimSpace(compositionID); key != "" {
		return key
	}
	return strings.TrimSpace(jobID)
}

// AcquireCompositionLock takes the lock for LockKey(compositionID, jobID)
// under dir without blocking.
func AcquireCompositionLock(dir, compositionID, jobID string) (*JobLock, error) {
	key := LockKey(compositionID, jobID)
	if key == "" {
		return nil, errors.New("composition or job id is required")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return nil, fmt.Errorf("invalid lock key %q", key)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, key+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobLocked, key)
	}
	return &JobLock{lock: lock}, nil
}

// Release unlocks the composition. The lock file stays on disk so every
// process locks the same inode.
func (l *JobLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
