package services

import "sync/atomic"

// Sequence is a monotonically increasing id allocator. Message ids come
// from a single process-wide sequence so orderings are comparable
// across channels and ids are never reused, even when a pre-allocated
// deferred send is later dropped.
type Sequence struct {
	n atomic.Int64
}

// NewSequence returns a sequence whose first Next() is start+1.
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.n.Store(start)
	return s
}

// Next allocates the next id.
func (s *Sequence) Next() int64 {
	return s.n.Add(1)
}

// Current returns the last allocated id.
func (s *Sequence) Current() int64 {
	return s.n.Load()
}

// Seed raises the sequence to at least n. Used when restoring from a
// snapshot so restored ids are never re-allocated.
func (s *Sequence) Seed(n int64) {
	for {
		cur := s.n.Load()
		if cur >= n {
			return
		}
		if s.n.CompareAndSwap(cur, n) {
			return
		}
	}
}
