package orchestrator

import "sort"

// Selection is a toggle set of list indices, used by the TUI's
// multi-select list.
type Selection struct {
	indices map[int]bool
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{indices: make(map[int]bool)}
}

// Toggle flips membership of index and reports whether it is selected
// afterwards.
func (s *Selection) Toggle(index int) bool {
	if s.indices[index] {
		delete(s.indices, index)
		return false
	}
	s.indices[index] = true
	return true
}

// IsSelected reports whether index is in the selection.
func (s *Selection) IsSelected(index int) bool {
	return s.indices[index]
}

// Count returns the number of selected indices.
func (s *Selection) Count() int {
	return len(s.indices)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.indices = make(map[int]bool)
}

// Indices returns the selected indices in ascending order.
func (s *Selection) Indices() []int {
	out := make([]int, 0, len(s.indices))
	for i := range s.indices {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
