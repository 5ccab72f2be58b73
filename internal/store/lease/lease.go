// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package lease provides the per-scope advisory write lock that guards a
// mutation's load -> mutate -> save sequence against concurrent writers.
// It is a generalization of the teacher's IndexQueue lock: one flock per
// scope root rather than one lock for the whole project, and a plain
// acquire/release contract instead of a commit queue.
package lease

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	memoerrors "github.com/kraklabs/memo/internal/errors"
)

// DefaultTimeout is how long Acquire waits for a contended lease before
// surfacing a Conflict error, per spec.md §5 ("short timeout ~5s").
const DefaultTimeout = 5 * time.Second

const retryInterval = 100 * time.Millisecond

// Lease is a held advisory lock on one scope's .lock file.
type Lease struct {
	path string
	file *os.File
}

// Acquire blocks (retrying) until the scope's .lock file can be
// exclusively locked or timeout elapses, whichever comes first. A timeout
// surfaces as errors.Conflict, matching spec.md §7's "lease timeout"
// Conflict kind.
func Acquire(scopeRoot string, timeout time.Duration) (*Lease, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := os.MkdirAll(scopeRoot, 0o755); err != nil {
		return nil, memoerrors.IoError("cannot create scope directory", err)
	}
	path := filepath.Join(scopeRoot, ".lock")

	deadline := time.Now().Add(timeout)
	for {
		l, acquired, err := tryAcquire(path)
		if err != nil {
			return nil, err
		}
		if acquired {
			return l, nil
		}
		if time.Now().After(deadline) {
			return nil, memoerrors.Conflict(fmt.Sprintf("timed out waiting for write lease on %s", filepath.Base(scopeRoot)), nil)
		}
		time.Sleep(retryInterval)
	}
}

func tryAcquire(path string) (*Lease, bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, false, memoerrors.IoError("cannot open lease file", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, false, nil
		}
		return nil, false, memoerrors.IoError("flock failed", err)
	}

	_ = f.Truncate(0)
	_, _ = f.Seek(0, 0)
	_, _ = fmt.Fprintf(f, "%d %d\n", os.Getpid(), time.Now().Unix())

	return &Lease{path: path, file: f}, true, nil
}

// Release unlocks and closes the lease's file handle. Releasing a nil
// lease or one already released is a no-op.
func (l *Lease) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}

// WithLease acquires the scope lease, runs fn, and releases the lease
// regardless of fn's outcome.
func WithLease(scopeRoot string, timeout time.Duration, fn func() error) error {
	l, err := Acquire(scopeRoot, timeout)
	if err != nil {
		return err
	}
	defer l.Release()
	return fn()
}
