package plan

import "sync"

// ChangeFunc is invoked after any store mutation. Listeners typically
// re-run validation of the remaining items; rendering concerns stay with
// the caller, which must marshal onto its own UI thread.
type ChangeFunc func()

// Store is the ordered sequence of staged plan items. Reads return
// snapshots; writes are guarded but callers are still expected to serialize
// mutation from a single logical owner at a time.
type Store struct {
	mu       sync.Mutex
	items    []Item
	onChange ChangeFunc
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// OnChange registers the single change-notification hook.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Add appends items in order and returns how many were added.
func (s *Store) Add(items []Item) int {
	if len(items) == 0 {
		return 0
	}
	s.mu.Lock()
	s.items = append(s.items, items...)
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return len(items)
}

// RemoveByIndices deletes the items at the given zero-based indices and
// returns how many were removed. Out-of-range and duplicate indices are
// ignored.
func (s *Store) RemoveByIndices(indices []int) int {
	s.mu.Lock()
	drop := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(s.items) {
			drop[idx] = true
		}
	}
	if len(drop) == 0 {
		s.mu.Unlock()
		return 0
	}

	kept := s.items[:0]
	for i, item := range s.items {
		if !drop[i] {
			kept = append(kept, item)
		}
	}
	s.items = kept
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return len(drop)
}

// Items returns a read-only snapshot of the staged items.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Count returns the number of staged items.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Clear removes every item and returns how many were dropped.
func (s *Store) Clear() int {
	s.mu.Lock()
	n := len(s.items)
	s.items = nil
	fn := s.onChange
	s.mu.Unlock()

	if n > 0 && fn != nil {
		fn()
	}
	return n
}
