package app

import "sync"

// SelectionStore tracks which review ids the operator has marked for
// public display. Process-wide, never persisted, empty at startup. It has
// no knowledge of valid ids; callers toggle whatever id they hold.
type SelectionStore struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewSelectionStore() *SelectionStore {
	return &SelectionStore{ids: make(map[string]struct{})}
}

// Toggle flips membership of id and returns the new state
// (true = now selected).
func (s *SelectionStore) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Selected reports membership of id.
func (s *SelectionStore) Selected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}
