package bacsc

import (
	"runtime"
	"sync"

	"github.com/joeycumines/bacsc/internal/goroutineid"
)

func sleepYield() { runtime.Gosched() }

// recursiveMutex is the single process-wide (per Runtime) lock serializing
// all core state mutations and all callbacks delivered up from the
// transport layer. Go's sync.Mutex is not reentrant;
// this wraps one with goroutine-ID tracking so a callback that re-enters a
// public core entry point on the same goroutine doesn't deadlock.
type recursiveMutex struct {
	mu    sync.Mutex
	owner uint64 // goroutine ID currently holding the lock, 0 if unlocked
	depth int
}

// Lock acquires the lock, or increments the reentrancy depth if the calling
// goroutine already holds it.
func (m *recursiveMutex) Lock() {
	id := goroutineid.Get()
	m.mu.Lock()
	if m.owner == id && m.depth > 0 {
		m.depth++
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.acquire(id)
}

func (m *recursiveMutex) acquire(id uint64) {
	for {
		m.mu.Lock()
		if m.depth == 0 {
			m.owner = id
			m.depth = 1
			m.mu.Unlock()
			return
		}
		if m.owner == id {
			m.depth++
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()
		// Another goroutine holds it: briefly yield. The core is meant to
		// be driven by one runloop goroutine plus transport callbacks
		// that are expected to be infrequent and short-lived, so a tight
		// spin-and-yield is acceptable here and avoids a second,
		// non-reentrant sync.Mutex guarding a condition variable.
		sleepYield()
	}
}

// Unlock decrements the reentrancy depth, releasing the lock entirely when
// it reaches zero. Unlock from a goroutine that doesn't hold the lock is a
// programming error and panics, matching the contract of sync.Mutex.
func (m *recursiveMutex) Unlock() {
	id := goroutineid.Get()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != id || m.depth == 0 {
		panic("bacsc: unlock of recursive mutex not held by calling goroutine")
	}
	m.depth--
	if m.depth == 0 {
		m.owner = 0
	}
}
