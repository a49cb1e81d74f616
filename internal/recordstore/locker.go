package recordstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// Locker serializes access to a collection. The returned function releases
// the lock and must be called exactly once.
type Locker interface {
	Lock(ctx context.Context) (func(), error)
	RLock(ctx context.Context) (func(), error)
}

// ErrLockTimeout is returned when the context ends before the lock is acquired.
var ErrLockTimeout = errors.New("lock not acquired")

const flockRetryDelay = 25 * time.Millisecond

// ProcessLocker guards a collection within a single process.
type ProcessLocker struct {
	mu sync.RWMutex
}

// NewProcessLocker returns an in-process reader/writer lock.
func NewProcessLocker() *ProcessLocker {
	return &ProcessLocker{}
}

func (l *ProcessLocker) Lock(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	return l.mu.Unlock, nil
}

func (l *ProcessLocker) RLock(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	return l.mu.RUnlock, nil
}

// FileLocker guards a collection across processes on one host with an flock
// on a sidecar lock file. Goroutines of the same process are serialized by an
// RWMutex first; concurrent readers share a single shared flock.
type FileLocker struct {
	mu      sync.RWMutex
	refMu   sync.Mutex
	readers int
	lock    *flock.Flock
}

// NewFileLocker creates a locker backed by the file at path. The parent
// directory is created when missing.
func NewFileLocker(path string) (*FileLocker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	return &FileLocker{lock: flock.New(path)}, nil
}

// Path returns the lock file location.
func (l *FileLocker) Path() string {
	return l.lock.Path()
}

func (l *FileLocker) Lock(ctx context.Context) (func(), error) {
	l.mu.Lock()
	ok, err := l.lock.TryLockContext(ctx, flockRetryDelay)
	if err != nil || !ok {
		l.mu.Unlock()
		return nil, lockFailure(l.lock.Path(), err)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = l.lock.Unlock()
			l.mu.Unlock()
		})
	}, nil
}

func (l *FileLocker) RLock(ctx context.Context) (func(), error) {
	l.mu.RLock()

	l.refMu.Lock()
	if l.readers == 0 {
		ok, err := l.lock.TryRLockContext(ctx, flockRetryDelay)
		if err != nil || !ok {
			l.refMu.Unlock()
			l.mu.RUnlock()
			return nil, lockFailure(l.lock.Path(), err)
		}
	}
	l.readers++
	l.refMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.refMu.Lock()
			l.readers--
			if l.readers == 0 {
				_ = l.lock.Unlock()
			}
			l.refMu.Unlock()
			l.mu.RUnlock()
		})
	}, nil
}

func lockFailure(path string, err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrLockTimeout, path)
	}
	return fmt.Errorf("acquire %s: %w", path, err)
}
