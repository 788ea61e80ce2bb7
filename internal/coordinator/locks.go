package coordinator

import (
	"sync"

	"github.com/google/uuid"
)

// matchLocks hands out one mutex per match. Entries are dropped once nobody
// holds or waits for them.
type matchLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*matchLock
}

type matchLock struct {
	mu   sync.Mutex
	refs int
}

func newMatchLocks() *matchLocks {
	return &matchLocks{locks: make(map[uuid.UUID]*matchLock)}
}

// lock blocks until the caller owns matchID and returns the release func.
func (l *matchLocks) lock(matchID uuid.UUID) func() {
	l.mu.Lock()
	ml, ok := l.locks[matchID]
	if !ok {
		ml = &matchLock{}
		l.locks[matchID] = ml
	}
	ml.refs++
	l.mu.Unlock()

	ml.mu.Lock()
	return func() {
		ml.mu.Unlock()
		l.mu.Lock()
		ml.refs--
		if ml.refs == 0 {
			delete(l.locks, matchID)
		}
		l.mu.Unlock()
	}
}

func (l *matchLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
