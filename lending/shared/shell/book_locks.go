package shell

import (
	"sync"
)

// BookLocks hands out one mutex per book ID. Entries are reference counted and removed when the
// last holder unlocks, so the map only contains books that are being worked on right now.
type BookLocks struct {
	mu    sync.Mutex
	locks map[string]*bookLock
}

type bookLock struct {
	sync.Mutex
	holders int
}

// NewBookLocks creates an empty BookLocks.
func NewBookLocks() *BookLocks {
	return &BookLocks{locks: make(map[string]*bookLock)}
}

// Lock blocks until the caller has exclusive access to the book and returns the unlock function.
//
//	unlock := locks.Lock(bookID)
//	defer unlock()
func (l *BookLocks) Lock(bookID string) (unlock func()) {
	l.mu.Lock()
	lock, ok := l.locks[bookID]
	if !ok {
		lock = &bookLock{}
		l.locks[bookID] = lock
	}
	lock.holders++
	l.mu.Unlock()

	lock.Lock()

	var once sync.Once

	return func() {
		once.Do(func() {
			lock.Unlock()

			l.mu.Lock()
			lock.holders--
			if lock.holders == 0 {
				delete(l.locks, bookID)
			}
			l.mu.Unlock()
		})
	}
}

// Len returns the number of books currently locked or waited for.
func (l *BookLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
