package fs

import (
	"errors"
	"os"
	"sync"
	"syscall"
)

// InjectedError marks an error as intentionally injected by [Faulty].
//
// It wraps the underlying error so errors.Is/As continue to work.
type InjectedError struct {
	Err error
}

// Error returns the underlying error's message. Panics if e or e.Err is nil.
func (e *InjectedError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error. Panics if e is nil.
func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by [Faulty].
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

// Faulty wraps an [FS] and fails writes selected by FailWrite with an
// injected ENOSPC. Reads, stats and locks pass through.
//
// Faulty is safe for concurrent use if FailWrite is.
type Faulty struct {
	FS FS

	// FailWrite reports whether the write to path should fail. It is called
	// once per WriteFileAtomic with a 1-based attempt counter.
	FailWrite func(path string, attempt int) bool

	mu       sync.Mutex
	attempts int
}

// NewFaulty wraps fsys. A nil failWrite never fails.
func NewFaulty(fsys FS, failWrite func(path string, attempt int) bool) *Faulty {
	return &Faulty{FS: fsys, FailWrite: failWrite}
}

// WriteFileAtomic forwards to the wrapped FS unless FailWrite selects path.
func (f *Faulty) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	f.mu.Lock()
	f.attempts++
	attempt := f.attempts
	f.mu.Unlock()

	if f.FailWrite != nil && f.FailWrite(path, attempt) {
		return &InjectedError{Err: &os.PathError{Op: "write", Path: path, Err: syscall.ENOSPC}}
	}

	return f.FS.WriteFileAtomic(path, data, perm)
}

// Attempts returns how many writes were attempted.
func (f *Faulty) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.attempts
}

func (f *Faulty) ReadFile(path string) ([]byte, error) { return f.FS.ReadFile(path) }

func (f *Faulty) MkdirAll(path string, perm os.FileMode) error { return f.FS.MkdirAll(path, perm) }

func (f *Faulty) Stat(path string) (os.FileInfo, error) { return f.FS.Stat(path) }

func (f *Faulty) Exists(path string) (bool, error) { return f.FS.Exists(path) }

func (f *Faulty) TryLock(path string) (Locker, error) { return f.FS.TryLock(path) }

var _ FS = (*Faulty)(nil)
