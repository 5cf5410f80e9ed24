package model

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

const maxReaders = 1 << 30

// Workspace guards a tree. Readers share access; a writer takes every slot,
// and because the semaphore is FIFO a waiting writer holds back new readers.
type Workspace struct {
	sem     *semaphore.Weighted
	version atomic.Int64
}

// NewWorkspace creates an unlocked workspace.
func NewWorkspace() *Workspace {
	return &Workspace{sem: semaphore.NewWeighted(maxReaders)}
}

// RLock acquires read access.
func (w *Workspace) RLock(ctx context.Context) error {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: read access: %v", ErrConcurrentAccess, err)
	}
	return nil
}

// RUnlock releases read access.
func (w *Workspace) RUnlock() {
	w.sem.Release(1)
}

// Lock acquires exclusive write access.
func (w *Workspace) Lock(ctx context.Context) error {
	if err := w.sem.Acquire(ctx, maxReaders); err != nil {
		return fmt.Errorf("%w: write access: %v", ErrConcurrentAccess, err)
	}
	return nil
}

// TryLock acquires write access without blocking.
func (w *Workspace) TryLock() bool {
	return w.sem.TryAcquire(maxReaders)
}

// Unlock releases write access and bumps the version.
func (w *Workspace) Unlock() {
	w.version.Add(1)
	w.sem.Release(maxReaders)
}

// Version counts completed write sections.
func (w *Workspace) Version() int64 {
	return w.version.Load()
}
