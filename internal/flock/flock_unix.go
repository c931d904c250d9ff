//go:build unix

package flock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var errWouldBlock = unix.EWOULDBLOCK

func how(mode Mode) int {
	if mode == Exclusive {
		return unix.LOCK_EX
	}
	return unix.LOCK_SH
}

func lockBlocking(f *os.File, mode Mode) error {
	for {
		err := unix.Flock(int(f.Fd()), how(mode))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return fmt.Errorf("flock: %s lock %s: %w", mode, f.Name(), err)
		}
		return nil
	}
}

func tryLock(f *os.File, mode Mode) error {
	err := unix.Flock(int(f.Fd()), how(mode)|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
		return errWouldBlock
	}
	if err != nil {
		return fmt.Errorf("flock: %s lock %s: %w", mode, f.Name(), err)
	}
	return nil
}

func unlock(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("flock: unlock %s: %w", f.Name(), err)
	}
	return nil
}
