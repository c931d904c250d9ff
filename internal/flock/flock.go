// Package flock provides advisory whole-file locks shared with other
// processes that use flock(2) on the same file. Locks are cooperative: they
// exclude other lockers, not plain readers or writers.
package flock

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/starford/kbhost/internal/apperr"
)

// Mode selects shared or exclusive locking.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// pollInterval is the retry period while waiting with a timeout.
const pollInterval = 10 * time.Millisecond

// Lock acquires mode on f. A zero timeout blocks until the lock is granted.
// Otherwise Lock retries a non-blocking attempt until timeout elapses and
// then fails with apperr.ErrLockTimeout.
func Lock(ctx context.Context, f *os.File, mode Mode, timeout time.Duration) error {
	if timeout <= 0 {
		return lockBlocking(f, mode)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := tryLock(f, mode)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errWouldBlock) {
			return err
		}
		if time.Now().After(deadline) {
			return apperr.ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Unlock releases any lock held on f.
func Unlock(f *os.File) error {
	return unlock(f)
}
