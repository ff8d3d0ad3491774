// Package fs provides the filesystem abstraction used by the havoc CLI.
//
// The main types are:
//   - [FS]: interface for the operations the CLI needs
//   - [Real]: production implementation using [os] and atomic writes
//   - [Faulty]: testing wrapper that injects write failures
//
// Example usage:
//
//	fsys := fs.NewReal()
//	if err := fsys.WriteFileAtomic("out.bin", data, 0o644); err != nil {
//	    return err
//	}
package fs

import (
	"io"
	"os"
)

// Locker represents a held file lock.
// Call [Locker.Close] to release the lock.
//
// Example:
//
//	lock, err := fsys.TryLock(filepath.Join(outDir, ".havoc.lock"))
//	if err != nil {
//	    return err // another process holds it
//	}
//	defer lock.Close()
type Locker interface {
	io.Closer
}

// FS defines the filesystem operations used for reading inputs and writing
// mutants.
//
// All methods mirror their [os] package equivalents but can be intercepted
// for testing with fault injection.
type FS interface {
	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to path atomically with the given mode.
	// Readers observe either the old content or the new content, never a
	// partial write.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// TryLock acquires an exclusive lock on path without blocking.
	// Returns [ErrWouldBlock] if another holder has it.
	TryLock(path string) (Locker, error)
}
