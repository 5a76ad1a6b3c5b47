package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"reelforge/internal/services"
)

// LockFileName is the hidden cross-process lock inside the working directory.
const LockFileName = ".reelforge.lock"

const lockRetryDelay = 100 * time.Millisecond

// dirLocks holds one single-slot semaphore per absolute working directory so
// controllers in one process serialize even when they were built separately.
var dirLocks sync.Map

func dirSemaphore(dir string) chan struct{} {
	sem, _ := dirLocks.LoadOrStore(dir, make(chan struct{}, 1))
	return sem.(chan struct{})
}

// dirLock serializes mutating operations on one working directory.
type dirLock struct {
	dir string
	sem chan struct{}
}

func newDirLock(dir string) (*dirLock, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	return &dirLock{dir: abs, sem: dirSemaphore(abs)}, nil
}

// acquire blocks until both the in-process slot and the file lock are held,
// or ctx ends. The returned func releases both.
func (l *dirLock) acquire(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, services.Wrap(services.ErrTimeout, "pipeline", "lock", "waiting for working directory", ctx.Err())
	}

	fileLock := flock.New(filepath.Join(l.dir, LockFileName))
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		<-l.sem
		if err == nil {
			err = ctx.Err()
		}
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrTimeout, "pipeline", "lock", "waiting for working directory", err)
		}
		return nil, services.Wrap(services.ErrIO, "pipeline", "lock", "acquire "+LockFileName, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = fileLock.Unlock()
			<-l.sem
		})
	}, nil
}
