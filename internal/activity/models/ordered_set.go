package models

// OrderedSet is a set that remembers insertion order. Session membership and
// visited-system tracking need both O(1) lookups and a stable order for the
// wire format, which plain maps cannot give.
type OrderedSet[T comparable] struct {
	present map[T]struct{}
	items   []T
}

// NewOrderedSet creates an empty ordered set.
func NewOrderedSet[T comparable]() *OrderedSet[T] {
	return &OrderedSet[T]{present: make(map[T]struct{})}
}

// Add inserts v, returning true when it was not already present.
func (s *OrderedSet[T]) Add(v T) bool {
	if _, ok := s.present[v]; ok {
		return false
	}
	s.present[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// Contains reports whether v is in the set.
func (s *OrderedSet[T]) Contains(v T) bool {
	_, ok := s.present[v]
	return ok
}

// Remove deletes v, returning true when it was present. Order of the
// remaining elements is preserved.
func (s *OrderedSet[T]) Remove(v T) bool {
	if _, ok := s.present[v]; !ok {
		return false
	}
	delete(s.present, v)
	for i, item := range s.items {
		if item == v {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of elements.
func (s *OrderedSet[T]) Len() int {
	return len(s.items)
}

// Values returns the elements in insertion order. The slice is a copy.
func (s *OrderedSet[T]) Values() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// ContainsAny reports whether any of the given values is in the set.
func (s *OrderedSet[T]) ContainsAny(values []T) bool {
	for _, v := range values {
		if _, ok := s.present[v]; ok {
			return true
		}
	}
	return false
}
