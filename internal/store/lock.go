package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Locker excludes other writers of the same document, including writers in
// other processes, between Lock and Unlock.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock() error
}

// errLocked reports that another handle holds the lock.
var errLocked = errors.New("lock held elsewhere")

// lockPollInterval is how often a blocked Lock retries.
const lockPollInterval = 10 * time.Millisecond

// FileLock is an advisory lock on "<document>.lock". It is held per open
// file handle, so two FileLocks on the same document exclude each other
// even inside one process.
type FileLock struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// NewFileLock returns the lock guarding the document at path.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path + ".lock"}
}

// Lock blocks until the lock is acquired or ctx is done.
func (l *FileLock) Lock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f != nil {
		return fmt.Errorf("lock %s: already held", l.path)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock %s: %w", l.path, err)
	}

	for {
		err := lockFile(f)
		if err == nil {
			l.f = f
			return nil
		}
		if !errors.Is(err, errLocked) {
			f.Close()
			return fmt.Errorf("lock %s: %w", l.path, err)
		}

		select {
		case <-ctx.Done():
			f.Close()
			return fmt.Errorf("lock %s: %w", l.path, ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}
}

// Unlock releases the lock. Unlocking a lock that is not held is a no-op.
func (l *FileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil

	unlockErr := unlockFile(f)
	closeErr := f.Close()
	if unlockErr != nil {
		return fmt.Errorf("unlock %s: %w", l.path, unlockErr)
	}
	return closeErr
}

// nopLock serializes nothing beyond the Registry's own mutex.
type nopLock struct{}

func (nopLock) Lock(context.Context) error { return nil }
func (nopLock) Unlock() error              { return nil }
