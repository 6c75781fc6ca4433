package domain

// Point is a location on the canvas
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns p translated by q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Size is a widget extent
type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Rect is an axis-aligned rectangle anchored at its top-left corner
type Rect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// NewRect creates a rectangle from a location and a size
func NewRect(loc Point, size Size) Rect {
	return Rect{X: loc.X, Y: loc.Y, W: size.W, H: size.H}
}

// Location returns the top-left corner
func (r Rect) Location() Point {
	return Point{X: r.X, Y: r.Y}
}

// Center returns the rectangle centre, rounded down
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies inside r (edges inclusive)
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Union returns the smallest rectangle containing r and o
func (r Rect) Union(o Rect) Rect {
	minX, minY := min(r.X, o.X), min(r.Y, o.Y)
	maxX, maxY := max(r.X+r.W, o.X+o.W), max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Sides returns the four sides of the rectangle clockwise from the top,
// each as a segment from (X0, Y0) to (X1, Y1)
func (r Rect) Sides() []Segment {
	right, bottom := r.X+r.W, r.Y+r.H
	return []Segment{
		{X0: r.X, Y0: r.Y, X1: right, Y1: r.Y},
		{X0: right, Y0: r.Y, X1: right, Y1: bottom},
		{X0: right, Y0: bottom, X1: r.X, Y1: bottom},
		{X0: r.X, Y0: bottom, X1: r.X, Y1: r.Y},
	}
}

// Segment is a straight line between two points
type Segment struct {
	X0 int `json:"x0" yaml:"x0"`
	X1 int `json:"x1" yaml:"x1"`
	Y0 int `json:"y0" yaml:"y0"`
	Y1 int `json:"y1" yaml:"y1"`
}
