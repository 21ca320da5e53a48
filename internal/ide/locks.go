package ide

import "sync"

// lockSet hands out one RWMutex per working-copy path. Entries are never
// removed; the set is bounded by the number of workspaces on disk.
type lockSet struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func newLockSet() *lockSet {
	return &lockSet{locks: make(map[string]*sync.RWMutex)}
}

func (s *lockSet) get(key string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[key] = l
	}
	return l
}

// lock takes the exclusive lock for key and returns its release func.
func (s *lockSet) lock(key string) func() {
	l := s.get(key)
	l.Lock()
	return l.Unlock
}

// rlock takes the shared lock for key and returns its release func.
func (s *lockSet) rlock(key string) func() {
	l := s.get(key)
	l.RLock()
	return l.RUnlock
}

// Lease is a Repository held under its working-copy lock. Callers must call
// Release exactly once when done; further calls are no-ops.
type Lease struct {
	*Repository
	release func()
	once    sync.Once
}

// Release gives up the working-copy lock.
func (l *Lease) Release() {
	l.once.Do(func() {
		if l.release != nil {
			l.release()
		}
	})
}
