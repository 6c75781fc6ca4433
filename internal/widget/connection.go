package widget

import (
	"slices"

	"topoview/internal/domain"
)

// ControlPointShape is how control points are drawn
type ControlPointShape string

const (
	ControlPointSquare ControlPointShape = "square"
	ControlPointCircle ControlPointShape = "circle"
)

// Anchor binds a connection endpoint to the widget it touches
type Anchor struct {
	related Widget
}

// NewAnchor creates an anchor on w, or returns nil when w is nil
func NewAnchor(w Widget) *Anchor {
	if w == nil {
		return nil
	}
	return &Anchor{related: w}
}

// Related returns the widget the anchor is attached to
func (a *Anchor) Related() Widget {
	if a == nil {
		return nil
	}
	return a.related
}

// Point returns the anchor location: the centre of the related widget
func (a *Anchor) Point() domain.Point {
	return a.related.Bounds().Center()
}

// Router computes the path a connection is drawn along
type Router interface {
	Route(c *ConnectionWidget) []domain.Point
}

// FreeRouter draws straight segments through the control points without
// avoiding other widgets
type FreeRouter struct{}

// Route returns source centre, control points, target centre; unbound
// endpoints are left out
func (FreeRouter) Route(c *ConnectionWidget) []domain.Point {
	points := make([]domain.Point, 0, len(c.controlPoints)+2)
	if c.source != nil {
		points = append(points, c.source.Point())
	}
	points = append(points, c.controlPoints...)
	if c.target != nil {
		points = append(points, c.target.Point())
	}
	return points
}

// ConnectionWidget is a routed line between two optional anchors
type ConnectionWidget struct {
	base
	name          string
	source        *Anchor
	target        *Anchor
	controlPoints []domain.Point
	lineWidth     int
	pointShape    ControlPointShape
	router        Router
}

// NewConnection creates a connection with line width 1, square control
// points and a free router
func NewConnection(layer domain.Layer, name string, actions Actions) *ConnectionWidget {
	return &ConnectionWidget{
		base:       newBase(layer, domain.Size{}, actions),
		name:       name,
		lineWidth:  1,
		pointShape: ControlPointSquare,
		router:     FreeRouter{},
	}
}

// Name returns the edge key the connection represents
func (c *ConnectionWidget) Name() string { return c.name }

// LineWidth returns the stroke width
func (c *ConnectionWidget) LineWidth() int { return c.lineWidth }

// ControlPointShape returns the control point marker shape
func (c *ConnectionWidget) ControlPointShape() ControlPointShape { return c.pointShape }

// Router returns the routing algorithm
func (c *ConnectionWidget) Router() Router { return c.router }

// SourceAnchor returns the source anchor, nil when unbound
func (c *ConnectionWidget) SourceAnchor() *Anchor { return c.source }

// TargetAnchor returns the target anchor, nil when unbound
func (c *ConnectionWidget) TargetAnchor() *Anchor { return c.target }

// SetSourceAnchor binds or, with nil, clears the source endpoint
func (c *ConnectionWidget) SetSourceAnchor(a *Anchor) { c.source = a }

// SetTargetAnchor binds or, with nil, clears the target endpoint
func (c *ConnectionWidget) SetTargetAnchor(a *Anchor) { c.target = a }

// ControlPoints returns a copy of the control points in order
func (c *ConnectionWidget) ControlPoints() []domain.Point {
	return slices.Clone(c.controlPoints)
}

// SetControlPoints replaces the control points without gesture checks
func (c *ConnectionWidget) SetControlPoints(points []domain.Point) {
	c.controlPoints = slices.Clone(points)
}

// AddControlPoint inserts p before index i; i == len appends
func (c *ConnectionWidget) AddControlPoint(i int, p domain.Point) error {
	if err := c.check(ActionAddRemoveControlPoint); err != nil {
		return err
	}
	if i < 0 || i > len(c.controlPoints) {
		return ErrControlPointIndex
	}
	c.controlPoints = slices.Insert(c.controlPoints, i, p)
	return nil
}

// RemoveControlPoint deletes the control point at index i
func (c *ConnectionWidget) RemoveControlPoint(i int) error {
	if err := c.check(ActionAddRemoveControlPoint); err != nil {
		return err
	}
	if i < 0 || i >= len(c.controlPoints) {
		return ErrControlPointIndex
	}
	c.controlPoints = slices.Delete(c.controlPoints, i, i+1)
	return nil
}

// MoveControlPoint is the control point drag gesture
func (c *ConnectionWidget) MoveControlPoint(i int, p domain.Point) error {
	if err := c.check(ActionMoveControlPoint); err != nil {
		return err
	}
	if i < 0 || i >= len(c.controlPoints) {
		return ErrControlPointIndex
	}
	c.controlPoints[i] = p
	return nil
}

// Route returns the drawn path
func (c *ConnectionWidget) Route() []domain.Point {
	return c.router.Route(c)
}

// Bounds returns the box around the routed path
func (c *ConnectionWidget) Bounds() domain.Rect {
	route := c.Route()
	if len(route) == 0 {
		return domain.Rect{}
	}
	r := domain.NewRect(route[0], domain.Size{})
	for _, p := range route[1:] {
		r = r.Union(domain.NewRect(p, domain.Size{}))
	}
	return r
}

// Location returns the top-left of the routed path
func (c *ConnectionWidget) Location() domain.Point {
	return c.Bounds().Location()
}

// Size returns the extent of the routed path
func (c *ConnectionWidget) Size() domain.Size {
	b := c.Bounds()
	return domain.Size{W: b.W, H: b.H}
}
