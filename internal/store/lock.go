package store

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked means another engine already owns the data directory.
var ErrLocked = errors.New("data directory is in use by another engine")

// LockDir takes an exclusive lock on dir. Release it with Unlock.
func LockDir(dir string) (*flock.Flock, error) {
	fl := flock.New(filepath.Join(dir, ".lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl, nil
}
