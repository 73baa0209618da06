package storage

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
)

// Lock takes an exclusive cross-process lock guarding the store at path. The
// lock lives in a sibling "<path>.lock" file. Lock blocks until the lock is
// available; the returned func releases it and may be called more than once.
func Lock(path string) (func(), error) {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, stemerrors.StorageError("failed to create lock directory", err).WithDetail("path", lockPath)
	}

	fl := flock.New(lockPath)
	if err := fl.Lock(); err != nil {
		return nil, stemerrors.StorageError("failed to acquire lock", err).WithDetail("path", lockPath)
	}

	return func() {
		_ = fl.Unlock()
	}, nil
}

// TryLock is Lock without blocking. ok is false when another process holds
// the lock.
func TryLock(path string) (unlock func(), ok bool, err error) {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, false, stemerrors.StorageError("failed to create lock directory", err).WithDetail("path", lockPath)
	}

	fl := flock.New(lockPath)
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, false, stemerrors.StorageError("failed to acquire lock", err).WithDetail("path", lockPath)
	}
	if !acquired {
		return nil, false, nil
	}
	return func() { _ = fl.Unlock() }, true, nil
}
