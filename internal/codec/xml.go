package codec

import (
	"encoding/xml"
	"fmt"
	"io"

	"topoview/internal/domain"
)

// ViewXMLCodec reads and writes the view document format:
//
//	<view version="1.0">
//	  <class>TopologyView</class>
//	  <nodes><node x y class>objectId</node>...</nodes>
//	  <icons><icon type id x y>text</icon>...</icons>
//	  <edges><edge id class name aside bside><controlpoint x y/>...</edge>...</edges>
//	  <labels><label x y orientation>text</label>...</labels>
//	  <poligons><polygon title color border fill x y w h><vertex x0 x1 y0 y1/>...</polygon>...</poligons>
//	</view>
//
// The "poligons" spelling is part of the format.
type ViewXMLCodec struct {
	legacyPolygons bool
	indent         string
}

// XMLOption configures a ViewXMLCodec
type XMLOption func(*ViewXMLCodec)

// LegacyPolygonPlacement writes polygons as children of the root element
// after an empty poligons group, the layout older documents used. Only the
// placement changes: vertex elements always carry the four rectangle sides,
// so output is not byte-identical to documents whose vertices were written
// with the older side arithmetic.
func LegacyPolygonPlacement() XMLOption {
	return func(c *ViewXMLCodec) {
		c.legacyPolygons = true
	}
}

// WithIndent pretty-prints the output
func WithIndent(indent string) XMLOption {
	return func(c *ViewXMLCodec) {
		c.indent = indent
	}
}

// NewViewXMLCodec creates a new XML codec
func NewViewXMLCodec(opts ...XMLOption) *ViewXMLCodec {
	c := &ViewXMLCodec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Format returns the codec format identifier
func (c *ViewXMLCodec) Format() string {
	return "xml"
}

type xmlView struct {
	XMLName  xml.Name     `xml:"view"`
	Version  string       `xml:"version,attr"`
	Class    string       `xml:"class"`
	Nodes    xmlNodes     `xml:"nodes"`
	Icons    xmlIcons     `xml:"icons"`
	Edges    xmlEdges     `xml:"edges"`
	Labels   xmlLabels    `xml:"labels"`
	Polygons xmlPolygons  `xml:"poligons"`
	Legacy   []xmlPolygon `xml:"polygon"`
}

type xmlNodes struct {
	Items []xmlNode `xml:"node"`
}

type xmlNode struct {
	X        int    `xml:"x,attr"`
	Y        int    `xml:"y,attr"`
	Class    string `xml:"class,attr"`
	ObjectID int64  `xml:",chardata"`
}

type xmlIcons struct {
	Items []xmlIcon `xml:"icon"`
}

type xmlIcon struct {
	Type     int    `xml:"type,attr"`
	ObjectID int64  `xml:"id,attr"`
	X        int    `xml:"x,attr"`
	Y        int    `xml:"y,attr"`
	Text     string `xml:",chardata"`
}

type xmlEdges struct {
	Items []xmlEdge `xml:"edge"`
}

type xmlEdge struct {
	ID            string     `xml:"id,attr"`
	Class         string     `xml:"class,attr"`
	Name          string     `xml:"name,attr"`
	ASide         int64      `xml:"aside,attr"`
	BSide         int64      `xml:"bside,attr"`
	ControlPoints []xmlPoint `xml:"controlpoint"`
}

type xmlPoint struct {
	X int `xml:"x,attr"`
	Y int `xml:"y,attr"`
}

type xmlLabels struct {
	Items []xmlLabel `xml:"label"`
}

type xmlLabel struct {
	X           int    `xml:"x,attr"`
	Y           int    `xml:"y,attr"`
	Orientation string `xml:"orientation,attr"`
	Text        string `xml:",chardata"`
}

type xmlPolygons struct {
	Items []xmlPolygon `xml:"polygon"`
}

type xmlPolygon struct {
	Title    string      `xml:"title,attr"`
	Color    string      `xml:"color,attr"`
	Border   string      `xml:"border,attr"`
	Fill     string      `xml:"fill,attr"`
	X        int         `xml:"x,attr"`
	Y        int         `xml:"y,attr"`
	W        int         `xml:"w,attr"`
	H        int         `xml:"h,attr"`
	Vertices []xmlVertex `xml:"vertex"`
}

type xmlVertex struct {
	X0 int `xml:"x0,attr"`
	X1 int `xml:"x1,attr"`
	Y0 int `xml:"y0,attr"`
	Y1 int `xml:"y1,attr"`
}

// Export writes doc as XML
func (c *ViewXMLCodec) Export(doc *domain.ViewDocument, w io.Writer) error {
	enc := xml.NewEncoder(w)
	if c.indent != "" {
		enc.Indent("", c.indent)
	}
	if err := enc.Encode(c.toXML(doc)); err != nil {
		return fmt.Errorf("failed to encode XML: %w", err)
	}
	return enc.Close()
}

// Parse imports a view document from XML. Polygons are accepted in either
// placement.
func (c *ViewXMLCodec) Parse(r io.Reader) (*domain.ViewDocument, error) {
	var xv xmlView
	if err := xml.NewDecoder(r).Decode(&xv); err != nil {
		return nil, fmt.Errorf("%w: failed to parse XML: %v", ErrMalformedDocument, err)
	}
	return fromXML(&xv), nil
}

func (c *ViewXMLCodec) toXML(doc *domain.ViewDocument) *xmlView {
	xv := &xmlView{Version: doc.Version, Class: doc.Class}

	for _, n := range doc.Nodes {
		xv.Nodes.Items = append(xv.Nodes.Items, xmlNode{X: n.X, Y: n.Y, Class: n.Class, ObjectID: n.ObjectID})
	}
	for _, i := range doc.Icons {
		xv.Icons.Items = append(xv.Icons.Items, xmlIcon{Type: i.Type, ObjectID: i.ObjectID, X: i.X, Y: i.Y, Text: i.Text})
	}
	for _, e := range doc.Edges {
		xe := xmlEdge{ID: e.ID, Class: e.Class, Name: e.Name, ASide: e.ASide, BSide: e.BSide}
		for _, p := range e.ControlPoints {
			xe.ControlPoints = append(xe.ControlPoints, xmlPoint{X: p.X, Y: p.Y})
		}
		xv.Edges.Items = append(xv.Edges.Items, xe)
	}
	for _, l := range doc.Labels {
		xv.Labels.Items = append(xv.Labels.Items, xmlLabel{X: l.X, Y: l.Y, Orientation: l.Orientation, Text: l.Text})
	}

	polygons := make([]xmlPolygon, 0, len(doc.Polygons))
	for _, p := range doc.Polygons {
		xp := xmlPolygon{
			Title: p.Title, Color: p.Color, Border: p.Border, Fill: p.Fill,
			X: p.X, Y: p.Y, W: p.W, H: p.H,
		}
		for _, s := range p.Vertices {
			xp.Vertices = append(xp.Vertices, xmlVertex{X0: s.X0, X1: s.X1, Y0: s.Y0, Y1: s.Y1})
		}
		polygons = append(polygons, xp)
	}
	if c.legacyPolygons {
		xv.Legacy = polygons
	} else {
		xv.Polygons.Items = polygons
	}

	return xv
}

func fromXML(xv *xmlView) *domain.ViewDocument {
	doc := domain.NewViewDocument()
	doc.Version = xv.Version
	doc.Class = xv.Class

	for _, n := range xv.Nodes.Items {
		doc.Nodes = append(doc.Nodes, domain.ViewNode{X: n.X, Y: n.Y, Class: n.Class, ObjectID: n.ObjectID})
	}
	for _, i := range xv.Icons.Items {
		doc.Icons = append(doc.Icons, domain.ViewIcon{Type: i.Type, ObjectID: i.ObjectID, X: i.X, Y: i.Y, Text: i.Text})
	}
	for _, e := range xv.Edges.Items {
		ve := domain.ViewEdge{ID: e.ID, Class: e.Class, Name: e.Name, ASide: e.ASide, BSide: e.BSide}
		for _, p := range e.ControlPoints {
			ve.ControlPoints = append(ve.ControlPoints, domain.Point{X: p.X, Y: p.Y})
		}
		doc.Edges = append(doc.Edges, ve)
	}
	for _, l := range xv.Labels.Items {
		doc.Labels = append(doc.Labels, domain.ViewLabel{X: l.X, Y: l.Y, Orientation: l.Orientation, Text: l.Text})
	}
	for _, p := range append(xv.Polygons.Items, xv.Legacy...) {
		vp := domain.ViewPolygon{
			Title: p.Title, Color: p.Color, Border: p.Border, Fill: p.Fill,
			X: p.X, Y: p.Y, W: p.W, H: p.H,
		}
		for _, v := range p.Vertices {
			vp.Vertices = append(vp.Vertices, domain.Segment{X0: v.X0, X1: v.X1, Y0: v.Y0, Y1: v.Y1})
		}
		doc.Polygons = append(doc.Polygons, vp)
	}

	return doc
}
