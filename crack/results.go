package crack

import (
	"maps"
	"sync"
	"sync/atomic"

	"github.com/regginator/hashbrute/digest"
)

// Results is the state shared by every worker of one search: recovered plaintexts keyed by
// digest, plus the stop signal workers poll between candidates. One is created per search call
type Results struct {
	want int

	stop atomic.Bool

	accessMutex sync.Mutex
	entries     map[string]digest.Found
}

// want is the number of targets, reaching it raises the stop signal
func NewResults(want int) *Results {
	return &Results{
		want:    want,
		entries: make(map[string]digest.Found, want),
	}
}

// Insert records f unless its digest is already present. When the insert completes the target set
// the stop signal is raised before the lock is released, so no worker can observe a full map with
// the signal still down
func (r *Results) Insert(f digest.Found) bool {
	r.accessMutex.Lock()
	defer r.accessMutex.Unlock()

	if _, ok := r.entries[f.Digest]; ok {
		return false
	}

	r.entries[f.Digest] = f
	if len(r.entries) >= r.want {
		r.stop.Store(true)
	}

	return true
}

func (r *Results) Len() int {
	r.accessMutex.Lock()
	defer r.accessMutex.Unlock()

	return len(r.entries)
}

// Copy of the current entries
func (r *Results) Entries() map[string]digest.Found {
	r.accessMutex.Lock()
	defer r.accessMutex.Unlock()

	return maps.Clone(r.entries)
}

// Raise the stop signal without completing, used on cancellation
func (r *Results) Stop() {
	r.stop.Store(true)
}

func (r *Results) Stopped() bool {
	return r.stop.Load()
}

// Every target has been recovered
func (r *Results) Complete() bool {
	return r.Len() >= r.want
}
