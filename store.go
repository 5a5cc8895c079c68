package metrics

import (
	"fmt"
	"sync"
)

// cellEntry binds one label tuple to its cell. The labels slice is owned by
// the store and never mutated after creation.
type cellEntry[V Value] struct {
	labels []FieldValue
	cell   Cell[V]
}

// cellStore maps label tuples to cells. Cells are created lazily on first
// access and are never removed: a cell handle obtained once stays valid for
// the store's lifetime. Safe for concurrent use.
type cellStore[V Value] struct {
	fields  []Field
	newCell func() Cell[V]

	mu    sync.RWMutex
	cells map[string]*cellEntry[V]
}

func newCellStore[V Value](fields []Field, newCell func() Cell[V]) *cellStore[V] {
	return &cellStore[V]{
		fields:  append([]Field(nil), fields...),
		newCell: newCell,
		cells:   make(map[string]*cellEntry[V]),
	}
}

func (s *cellStore[V]) fieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// checkLabels enforces the construction-time field contract. A mismatched
// arity or kind is a programmer error, not a runtime condition, so it
// panics rather than returning an error.
func (s *cellStore[V]) checkLabels(labels []FieldValue) {
	if len(labels) != len(s.fields) {
		panic(fmt.Sprintf("metrics: %d label values for %d declared fields", len(labels), len(s.fields)))
	}
	for i, v := range labels {
		if v.kind != s.fields[i].Kind {
			panic(fmt.Sprintf("metrics: field %q wants %s, got %s", s.fields[i].Name, s.fields[i].Kind, v.kind))
		}
	}
}

// GetOrCreateCell returns the cell bound to labels, creating it on first
// access. Concurrent first accesses to the same tuple converge on a single
// cell instance.
func (s *cellStore[V]) GetOrCreateCell(labels []FieldValue) Cell[V] {
	s.checkLabels(labels)
	key := encodeKey(labels)

	s.mu.RLock()
	entry, exists := s.cells[key]
	s.mu.RUnlock()

	if !exists {
		s.mu.Lock()
		if entry, exists = s.cells[key]; !exists {
			entry = &cellEntry[V]{
				labels: append([]FieldValue(nil), labels...),
				cell:   s.newCell(),
			}
			s.cells[key] = entry
		}
		s.mu.Unlock()
	}

	return entry.cell
}

// ForEachCell calls fn once per existing (cell, label tuple) pair. The
// enumeration order is the map's and is not stable across calls. fn must
// not call back into the store.
func (s *cellStore[V]) ForEachCell(fn func(cell Cell[V], labels []FieldValue)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.cells {
		fn(entry.cell, entry.labels)
	}
}
