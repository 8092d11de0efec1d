package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFile guards an output directory against concurrent runs.
const LockFile = ".vodscan.lock"

// ErrLocked means another run holds the output directory.
var ErrLocked = errors.New("output directory is in use by another run")

// Lock takes the exclusive lock on dir. Release it with Unlock.
func Lock(dir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lock, nil
}
