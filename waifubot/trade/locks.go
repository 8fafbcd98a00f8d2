package trade

import (
	"slices"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// userLocks serializes inventory writes per user inside this process.
type userLocks struct {
	mu    sync.Mutex
	locks map[snowflake.ID]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[snowflake.ID]*userLock)}
}

// lock acquires the locks of all ids in ascending order so two settlements
// over the same pair can never deadlock.
func (l *userLocks) lock(ids ...snowflake.ID) func() {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]*userLock, 0, len(ids))
	for _, id := range ids {
		l.mu.Lock()
		ul, ok := l.locks[id]
		if !ok {
			ul = &userLock{}
			l.locks[id] = ul
		}
		ul.refs++
		l.mu.Unlock()

		ul.mu.Lock()
		held = append(held, ul)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
		}
		l.mu.Lock()
		for i, id := range ids {
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, id)
			}
		}
		l.mu.Unlock()
	}
}
