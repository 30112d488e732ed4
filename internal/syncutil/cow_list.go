package syncutil

import (
	"slices"
	"sync"
	"sync/atomic"
)

// COWList is an ordered set of comparable values with copy-on-write semantics.
// Readers load an immutable snapshot without locking; writers clone the snapshot,
// modify the clone and publish it while holding a mutation lock.
// The zero value is ready to use.
type COWList[T comparable] struct {
	mu   sync.Mutex
	snap atomic.Pointer[[]T]
}

// Load returns the current snapshot. The returned slice must not be modified.
func (l *COWList[T]) Load() []T {
	if l == nil {
		return nil
	}
	if p := l.snap.Load(); p != nil {
		return *p
	}
	return nil
}

// Add appends v to the list. It returns false if v is already in the list.
func (l *COWList[T]) Add(v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.Load()
	if slices.Contains(cur, v) {
		return false
	}
	next := make([]T, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, v)
	l.snap.Store(&next)
	return true
}

// Remove removes v from the list. It returns false if v is not in the list.
func (l *COWList[T]) Remove(v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.Load()
	i := slices.Index(cur, v)
	if i < 0 {
		return false
	}
	next := slices.Concat(cur[:i], cur[i+1:])
	l.snap.Store(&next)
	return true
}

// Contains reports whether v is in the current snapshot.
func (l *COWList[T]) Contains(v T) bool { return slices.Contains(l.Load(), v) }

// Len returns length of the current snapshot.
func (l *COWList[T]) Len() int { return len(l.Load()) }
