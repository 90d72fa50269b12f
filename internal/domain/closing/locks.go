package closing

import "sync"

// storeLocks serializes closing mutations per store within one
// process. Executing and deleting closings for the same store must not
// interleave; different stores proceed concurrently.
type storeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newStoreLocks() *storeLocks {
	return &storeLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *storeLocks) lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
