// Package widget implements the four renderable canvas primitives: object
// nodes, titled frames, free labels and routed connections.
//
// Widgets hold geometry and interaction state only. Which widget represents
// which vertex, and on which layer, is decided by the canvas.
package widget

import (
	"errors"
	"strings"

	"topoview/internal/domain"
)

// Text metrics used to size labels without a font backend
const (
	CharWidth  = 7
	LineHeight = 14
)

var (
	// ErrActionDisabled is returned when a gesture targets a widget that
	// does not carry the matching behavior
	ErrActionDisabled = errors.New("action not enabled on widget")
	// ErrRemoved is returned for gestures on a widget whose vertex or edge
	// has been removed from the canvas
	ErrRemoved = errors.New("widget removed from canvas")
	// ErrControlPointIndex is returned for an out-of-range control point
	ErrControlPointIndex = errors.New("control point index out of range")
)

// Action is an interaction behavior a widget may carry
type Action uint16

const (
	ActionSelect Action = 1 << iota
	ActionMove
	ActionResize
	ActionConnect
	ActionInlineEdit
	ActionContextMenu
	ActionAddRemoveControlPoint
	ActionMoveControlPoint
)

var actionNames = []struct {
	action Action
	name   string
}{
	{ActionSelect, "select"},
	{ActionMove, "move"},
	{ActionResize, "resize"},
	{ActionConnect, "connect"},
	{ActionInlineEdit, "inline-edit"},
	{ActionContextMenu, "context-menu"},
	{ActionAddRemoveControlPoint, "add-remove-control-point"},
	{ActionMoveControlPoint, "move-control-point"},
}

// Actions is a set of behaviors
type Actions uint16

// NewActions builds a set from individual actions
func NewActions(actions ...Action) Actions {
	var set Actions
	for _, a := range actions {
		set |= Actions(a)
	}
	return set
}

// Has reports whether a is in the set
func (s Actions) Has(a Action) bool {
	return s&Actions(a) != 0
}

// With returns the set extended by actions
func (s Actions) With(actions ...Action) Actions {
	return s | NewActions(actions...)
}

// Names lists the set members in declaration order
func (s Actions) Names() []string {
	var names []string
	for _, an := range actionNames {
		if s.Has(an.action) {
			names = append(names, an.name)
		}
	}
	return names
}

func (s Actions) String() string {
	return strings.Join(s.Names(), ",")
}

// Widget is the owned visual representation of one vertex or edge
type Widget interface {
	Layer() domain.Layer
	Location() domain.Point
	SetLocation(p domain.Point)
	Size() domain.Size
	Bounds() domain.Rect
	Actions() Actions
	Removed() bool
	Destroy()
}

// base carries the state every widget shares
type base struct {
	layer    domain.Layer
	location domain.Point
	size     domain.Size
	actions  Actions
	removed  bool
}

func newBase(layer domain.Layer, size domain.Size, actions Actions) base {
	return base{
		layer:   layer,
		size:    size,
		actions: actions,
	}
}

// Layer returns the layer the widget was attached to
func (b *base) Layer() domain.Layer { return b.layer }

// Location returns the preferred top-left location
func (b *base) Location() domain.Point { return b.location }

// SetLocation places the widget without gesture checks
func (b *base) SetLocation(p domain.Point) { b.location = p }

// Size returns the current extent
func (b *base) Size() domain.Size { return b.size }

// Bounds returns location and size as a rectangle
func (b *base) Bounds() domain.Rect { return domain.NewRect(b.location, b.size) }

// Actions returns the installed behaviors
func (b *base) Actions() Actions { return b.actions }

// Removed reports whether the canvas destroyed the widget
func (b *base) Removed() bool { return b.removed }

// Destroy marks the widget as removed
func (b *base) Destroy() { b.removed = true }

// MoveBy is the move gesture, completed on pointer release
func (b *base) MoveBy(dx, dy int) error {
	if err := b.check(ActionMove); err != nil {
		return err
	}
	b.location = b.location.Add(domain.Point{X: dx, Y: dy})
	return nil
}

// MoveTo is the move gesture with an absolute drop location
func (b *base) MoveTo(p domain.Point) error {
	if err := b.check(ActionMove); err != nil {
		return err
	}
	b.location = p
	return nil
}

func (b *base) check(a Action) error {
	if b.removed {
		return ErrRemoved
	}
	if !b.actions.Has(a) {
		return ErrActionDisabled
	}
	return nil
}

func textSize(text string) domain.Size {
	lines := strings.Split(text, "\n")
	width := 0
	for _, line := range lines {
		width = max(width, len([]rune(line))*CharWidth)
	}
	return domain.Size{W: width, H: len(lines) * LineHeight}
}
