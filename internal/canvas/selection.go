package canvas

import (
	"errors"
	"fmt"
	"slices"

	"topoview/internal/domain"
)

// ErrUnknownElement is returned when selecting something not on the canvas
var ErrUnknownElement = errors.New("element not on canvas")

// Selection returns the selected elements in selection order
func (s *Scene) Selection() []domain.Element {
	return slices.Clone(s.selection)
}

// Select replaces the selection. Vertices are matched by key and replaced by
// the registered value. Listeners are notified only when the set actually
// changes. Duplicate items are collapsed.
func (s *Scene) Select(items ...domain.Element) error {
	if s.dispatching {
		return ErrReentrantMutation
	}

	next := make([]domain.Element, 0, len(items))
	for _, item := range items {
		if !s.registered(item) {
			return fmt.Errorf("%w: %v", ErrUnknownElement, item)
		}
		if v, ok := item.(domain.Vertex); ok {
			item = s.vertices[v.Key()].vertex
		}
		if !slices.Contains(next, item) {
			next = append(next, item)
		}
	}

	if sameElements(s.selection, next) {
		return nil
	}
	prev := s.selection
	s.selection = next
	s.notifySelection(SelectionChanged{Previous: prev, Current: slices.Clone(next)})
	return nil
}

// ClearSelection empties the selection
func (s *Scene) ClearSelection() error {
	return s.Select()
}

// AddSelectionListener registers fn for selection changes
func (s *Scene) AddSelectionListener(fn func(SelectionChanged)) ListenerID {
	s.nextListenerID++
	s.selectionListeners = append(s.selectionListeners, selectionListener{id: s.nextListenerID, fn: fn})
	return s.nextListenerID
}

// RemoveSelectionListener unregisters a selection listener
func (s *Scene) RemoveSelectionListener(id ListenerID) {
	s.selectionListeners = slices.DeleteFunc(s.selectionListeners, func(l selectionListener) bool { return l.id == id })
}

func (s *Scene) registered(e domain.Element) bool {
	switch e := e.(type) {
	case domain.EdgeKey:
		return s.HasEdge(e)
	case domain.Vertex:
		return s.HasVertex(e)
	}
	return false
}

func (s *Scene) pruneSelection(drop func(domain.Element) bool) {
	if !slices.ContainsFunc(s.selection, drop) {
		return
	}
	prev := s.selection
	s.selection = slices.DeleteFunc(slices.Clone(prev), drop)
	s.notifySelection(SelectionChanged{Previous: prev, Current: slices.Clone(s.selection)})
}

func (s *Scene) notifySelection(ev SelectionChanged) {
	s.dispatching = true
	defer func() { s.dispatching = false }()
	for _, l := range slices.Clone(s.selectionListeners) {
		l.fn(ev)
	}
}

// sameElements compares as sets
func sameElements(a, b []domain.Element) bool {
	if len(a) != len(b) {
		return false
	}
	for _, e := range a {
		if !slices.Contains(b, e) {
			return false
		}
	}
	return true
}
