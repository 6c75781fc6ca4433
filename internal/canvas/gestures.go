package canvas

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"topoview/internal/domain"
	"topoview/internal/widget"
)

// ErrInvalidTarget is returned when a connection is dropped on something
// that is not a node or icon
var ErrInvalidTarget = errors.New("invalid connection target")

// MenuItem is one entry of a context menu
type MenuItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// MenuProvider builds context menus for canvas elements
type MenuProvider interface {
	MenuFor(e domain.Element) []MenuItem
}

// MenuProviderFunc adapts a function to MenuProvider
type MenuProviderFunc func(e domain.Element) []MenuItem

// MenuFor calls f
func (f MenuProviderFunc) MenuFor(e domain.Element) []MenuItem {
	return f(e)
}

// Click is the select gesture on a widget. Widgets without the select action
// ignore it with ErrActionDisabled.
func (s *Scene) Click(w widget.Widget) error {
	v, ok := s.FindVertex(w)
	if !ok {
		return ErrUnknownElement
	}
	if w.Removed() {
		return widget.ErrRemoved
	}
	if !w.Actions().Has(widget.ActionSelect) {
		return widget.ErrActionDisabled
	}
	return s.Select(v)
}

// Connect is the connect gesture: it joins source to target with a new edge.
// The source must carry the connect action and the target must be a node or
// icon.
func (s *Scene) Connect(source, target domain.Vertex) (domain.EdgeKey, error) {
	sw := s.FindWidget(source)
	if sw == nil {
		return "", fmt.Errorf("%w: source %v", ErrUnknownVertex, source)
	}
	if sw.Removed() {
		return "", widget.ErrRemoved
	}
	if !sw.Actions().Has(widget.ActionConnect) {
		return "", widget.ErrActionDisabled
	}
	if _, ok := s.FindWidget(target).(*widget.NodeWidget); !ok {
		return "", fmt.Errorf("%w: %v", ErrInvalidTarget, target)
	}

	key := domain.EdgeKey(uuid.NewString())
	if _, err := s.AddEdge(key, source, target); err != nil {
		return "", err
	}
	return key, nil
}

// ContextMenu returns the menu for e. Elements without the context menu
// action, including edges, get ErrActionDisabled.
func (s *Scene) ContextMenu(e domain.Element) ([]MenuItem, error) {
	var w widget.Widget
	switch e := e.(type) {
	case domain.EdgeKey:
		if !s.HasEdge(e) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEdge, e)
		}
		w = s.FindEdgeWidget(e)
	case domain.Vertex:
		if !s.HasVertex(e) {
			return nil, fmt.Errorf("%w: %v", ErrUnknownVertex, e)
		}
		w = s.FindWidget(e)
	}
	if w == nil || !w.Actions().Has(widget.ActionContextMenu) {
		return nil, widget.ErrActionDisabled
	}
	if s.menus == nil {
		return nil, nil
	}
	return s.menus.MenuFor(e), nil
}

// MoveVertex is the move gesture
func (s *Scene) MoveVertex(v domain.Vertex, to domain.Point) error {
	if s.dispatching {
		return ErrReentrantMutation
	}
	w := s.FindWidget(v)
	if w == nil {
		return fmt.Errorf("%w: %v", ErrUnknownVertex, v)
	}
	mover, ok := w.(interface{ MoveTo(domain.Point) error })
	if !ok {
		return widget.ErrActionDisabled
	}
	return mover.MoveTo(to)
}

// ResizeFrame is the resize gesture on a frame
func (s *Scene) ResizeFrame(v domain.FrameVertex, size domain.Size) error {
	if s.dispatching {
		return ErrReentrantMutation
	}
	f, ok := s.FindWidget(v).(*widget.FrameWidget)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownVertex, v)
	}
	return f.Resize(size)
}

// EditText is the inline edit gesture. Frames edit their title label.
func (s *Scene) EditText(v domain.Vertex, text string) error {
	if s.dispatching {
		return ErrReentrantMutation
	}
	switch w := s.FindWidget(v).(type) {
	case *widget.NodeWidget:
		return w.Edit(text)
	case *widget.LabelWidget:
		return w.Edit(text)
	case *widget.FrameWidget:
		return w.Title().Edit(text)
	case nil:
		return fmt.Errorf("%w: %v", ErrUnknownVertex, v)
	}
	return widget.ErrActionDisabled
}
