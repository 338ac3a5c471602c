package store

import "sync"

// State is the uniform {data, loading, error} tuple exposed by every
// resource slice.
type State[T any] struct {
	Data    T
	Loading bool
	Err     error
}

// Slice is the single source of truth for one server-backed resource. It is
// mutated exclusively by the three-phase transition of its owning async
// operation: idle → pending → (fulfilled | rejected).
//
// Every dispatch gets a sequence number; a resolution carrying a stale
// sequence is discarded. This replaces the last-write-wins race the flow
// would otherwise have when two requests for the same resource overlap.
type Slice[T any] struct {
	mu      sync.Mutex
	data    T
	loading bool
	err     error
	seq     uint64
}

// Begin enters the pending phase and returns the dispatch's sequence number.
// Dispatching while already pending starts a fresh cycle; the prior in-flight
// call's resolution will be discarded as stale.
func (s *Slice[T]) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.loading = true
	return s.seq
}

// Resolve applies a fulfilled outcome. Returns false (and changes nothing)
// when the dispatch has been superseded.
func (s *Slice[T]) Resolve(seq uint64, data T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.data = data
	s.loading = false
	s.err = nil
	return true
}

// Reject applies a rejected outcome. The slice exposes no partial data: the
// value is zeroed and the error stays populated until a later operation
// succeeds. Returns false when the dispatch has been superseded.
func (s *Slice[T]) Reject(seq uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	var zero T
	s.data = zero
	s.loading = false
	s.err = err
	return true
}

// RejectKeep applies a rejected outcome without discarding the data. Fetch
// failures use Reject so no partial data is ever exposed; a failed command
// (create, update, mark) keeps the last good value visible alongside the
// error. Returns false when the dispatch has been superseded.
func (s *Slice[T]) RejectKeep(seq uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.loading = false
	s.err = err
	return true
}

// State returns the current tuple.
func (s *Slice[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State[T]{Data: s.data, Loading: s.loading, Err: s.err}
}

// Seed replaces the data outside the three-phase cycle. Used only for
// snapshot rehydration at startup, before any operation is dispatched.
func (s *Slice[T]) Seed(data T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}
