package domain

// View document constants
const (
	ViewFormatVersion = "1.0"
	ViewClass         = "TopologyView"

	IconTypeCloud = 1

	PolygonColor  = "#000000"
	PolygonBorder = "8"
	PolygonFill   = "none"
)

// ViewDocument is the format-neutral snapshot of a canvas layout. Groups are
// kept in layer export order: nodes, icons, edges, labels, polygons.
type ViewDocument struct {
	Version  string        `json:"version" yaml:"version"`
	Class    string        `json:"class" yaml:"class"`
	Nodes    []ViewNode    `json:"nodes" yaml:"nodes"`
	Icons    []ViewIcon    `json:"icons" yaml:"icons"`
	Edges    []ViewEdge    `json:"edges" yaml:"edges"`
	Labels   []ViewLabel   `json:"labels" yaml:"labels"`
	Polygons []ViewPolygon `json:"polygons" yaml:"polygons"`
}

// ViewNode is an inventory object widget
type ViewNode struct {
	X        int    `json:"x" yaml:"x"`
	Y        int    `json:"y" yaml:"y"`
	Class    string `json:"class" yaml:"class"`
	ObjectID int64  `json:"object_id" yaml:"object_id"`
}

// ViewIcon is an ad-hoc icon widget
type ViewIcon struct {
	Type     int    `json:"type" yaml:"type"`
	ObjectID int64  `json:"object_id" yaml:"object_id"`
	X        int    `json:"x" yaml:"x"`
	Y        int    `json:"y" yaml:"y"`
	Text     string `json:"text" yaml:"text"`
}

// ViewEdge is a connection between two object widgets
type ViewEdge struct {
	ID            string  `json:"id" yaml:"id"`
	Class         string  `json:"class" yaml:"class"`
	Name          string  `json:"name" yaml:"name"`
	ASide         int64   `json:"aside" yaml:"aside"`
	BSide         int64   `json:"bside" yaml:"bside"`
	ControlPoints []Point `json:"control_points,omitempty" yaml:"control_points,omitempty"`
}

// ViewLabel is a free text label
type ViewLabel struct {
	X           int    `json:"x" yaml:"x"`
	Y           int    `json:"y" yaml:"y"`
	Orientation string `json:"orientation" yaml:"orientation"`
	Text        string `json:"text" yaml:"text"`
}

// ViewPolygon is a free frame
type ViewPolygon struct {
	Title    string    `json:"title" yaml:"title"`
	Color    string    `json:"color" yaml:"color"`
	Border   string    `json:"border" yaml:"border"`
	Fill     string    `json:"fill" yaml:"fill"`
	X        int       `json:"x" yaml:"x"`
	Y        int       `json:"y" yaml:"y"`
	W        int       `json:"w" yaml:"w"`
	H        int       `json:"h" yaml:"h"`
	Vertices []Segment `json:"vertices,omitempty" yaml:"vertices,omitempty"`
}

// NewViewDocument creates an empty document with the current version
func NewViewDocument() *ViewDocument {
	return &ViewDocument{
		Version:  ViewFormatVersion,
		Class:    ViewClass,
		Nodes:    make([]ViewNode, 0),
		Icons:    make([]ViewIcon, 0),
		Edges:    make([]ViewEdge, 0),
		Labels:   make([]ViewLabel, 0),
		Polygons: make([]ViewPolygon, 0),
	}
}

// Bounds returns the polygon's rectangle
func (p ViewPolygon) Bounds() Rect {
	return Rect{X: p.X, Y: p.Y, W: p.W, H: p.H}
}

// Empty reports whether the document holds no widgets
func (d *ViewDocument) Empty() bool {
	return len(d.Nodes) == 0 && len(d.Icons) == 0 && len(d.Edges) == 0 &&
		len(d.Labels) == 0 && len(d.Polygons) == 0
}
