package services

import (
	"sync"

	"github.com/dmitrijs2005/pmanager/internal/observable"
)

// ChangeFeed announces that the entries of a user were modified. Each user
// has a version counter; watchers subscribe to it and reload on change.
type ChangeFeed struct {
	mu       sync.Mutex
	versions map[int64]*observable.Value[uint64]
}

// NewChangeFeed returns a feed with no subscribers.
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{versions: make(map[int64]*observable.Value[uint64])}
}

func (f *ChangeFeed) value(userID int64) *observable.Value[uint64] {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.versions[userID]
	if !ok {
		v = observable.New[uint64](0)
		f.versions[userID] = v
	}
	return v
}

// Notify bumps the version of userID.
func (f *ChangeFeed) Notify(userID int64) {
	v := f.value(userID)
	f.mu.Lock()
	defer f.mu.Unlock()
	v.Set(v.Get() + 1)
}

// Subscribe delivers the current version of userID and every later one.
func (f *ChangeFeed) Subscribe(userID int64) (<-chan uint64, func()) {
	return f.value(userID).Subscribe()
}
