package fs

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned when a lock is held by another holder.
var ErrWouldBlock = errors.New("lock would block")

const lockFilePerm = 0o600

// Lock is a held flock(2) lock. Call [Lock.Close] to release it.
//
// flock is advisory and applies to the open file, so the lock file must not
// be replaced while held.
type Lock struct {
	mu   sync.Mutex
	file *os.File
}

// Close releases the lock and closes the file descriptor. Close is
// idempotent. If both unlocking and closing fail, both errors are returned
// (see [errors.Join]).
func (lk *Lock) Close() error {
	lk.mu.Lock()
	defer lk.mu.Unlock()

	if lk.file == nil {
		return nil
	}

	unlockErr := flockRetryEINTR(int(lk.file.Fd()), unix.LOCK_UN)
	closeErr := lk.file.Close()
	lk.file = nil

	if unlockErr != nil {
		unlockErr = fmt.Errorf("unlocking lock: %w", unlockErr)
	}

	if closeErr != nil {
		closeErr = fmt.Errorf("closing lock fd: %w", closeErr)
	}

	return errors.Join(unlockErr, closeErr)
}

func tryLock(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, lockFilePerm)
	if err != nil {
		return nil, fmt.Errorf("opening lockfile: %w", err)
	}

	err = flockRetryEINTR(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		_ = file.Close()

		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			return nil, fmt.Errorf("%w: %s", ErrWouldBlock, path)
		}

		return nil, fmt.Errorf("flock: %w", err)
	}

	return &Lock{file: file}, nil
}

// flockRetryEINTR wraps flock, retrying on EINTR. Retries are capped so a
// signal storm cannot spin forever.
func flockRetryEINTR(fd int, how int) error {
	const maxEINTRRetries = 10000

	var err error
	for range maxEINTRRetries {
		err = unix.Flock(fd, how)
		if err == nil || !errors.Is(err, unix.EINTR) {
			return err
		}
	}

	return err
}
