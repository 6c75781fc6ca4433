package codec

import (
	"fmt"
	"io"

	"topoview/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export. The YAML form is meant to be written
// by hand: style attributes with their default value are omitted on export
// and filled in on import.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlView represents the YAML structure for a view
type yamlView struct {
	Version string      `yaml:"version,omitempty"`
	Nodes   []yamlNode  `yaml:"nodes,omitempty"`
	Clouds  []yamlCloud `yaml:"clouds,omitempty"`
	Edges   []yamlEdge  `yaml:"edges,omitempty"`
	Labels  []yamlLabel `yaml:"labels,omitempty"`
	Frames  []yamlFrame `yaml:"frames,omitempty"`
}

type yamlNode struct {
	Object int64  `yaml:"object"`
	Class  string `yaml:"class"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
}

type yamlCloud struct {
	Object int64  `yaml:"object,omitempty"`
	Text   string `yaml:"text"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
}

type yamlEdge struct {
	Name   string         `yaml:"name,omitempty"`
	From   int64          `yaml:"from"`
	To     int64          `yaml:"to"`
	Points []domain.Point `yaml:"points,omitempty"`
}

type yamlLabel struct {
	Text        string `yaml:"text"`
	X           int    `yaml:"x"`
	Y           int    `yaml:"y"`
	Orientation string `yaml:"orientation,omitempty"`
}

type yamlFrame struct {
	Title string `yaml:"title"`
	X     int    `yaml:"x"`
	Y     int    `yaml:"y"`
	W     int    `yaml:"w"`
	H     int    `yaml:"h"`
}

// Parse imports a view document from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.ViewDocument, error) {
	var yv yamlView
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&yv); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrMalformedDocument, err)
	}

	doc := domain.NewViewDocument()
	if yv.Version != "" {
		doc.Version = yv.Version
	}

	for _, yn := range yv.Nodes {
		doc.Nodes = append(doc.Nodes, domain.ViewNode{X: yn.X, Y: yn.Y, Class: yn.Class, ObjectID: yn.Object})
	}
	for _, yc := range yv.Clouds {
		doc.Icons = append(doc.Icons, domain.ViewIcon{
			Type:     domain.IconTypeCloud,
			ObjectID: yc.Object,
			X:        yc.X,
			Y:        yc.Y,
			Text:     yc.Text,
		})
	}
	for _, ye := range yv.Edges {
		doc.Edges = append(doc.Edges, domain.ViewEdge{
			Name:          ye.Name,
			ASide:         ye.From,
			BSide:         ye.To,
			ControlPoints: ye.Points,
		})
	}
	for _, yl := range yv.Labels {
		orientation := yl.Orientation
		if orientation == "" {
			orientation = defaultOrientation
		}
		doc.Labels = append(doc.Labels, domain.ViewLabel{X: yl.X, Y: yl.Y, Orientation: orientation, Text: yl.Text})
	}
	for _, yf := range yv.Frames {
		rect := domain.Rect{X: yf.X, Y: yf.Y, W: yf.W, H: yf.H}
		doc.Polygons = append(doc.Polygons, domain.ViewPolygon{
			Title:    yf.Title,
			Color:    domain.PolygonColor,
			Border:   domain.PolygonBorder,
			Fill:     domain.PolygonFill,
			X:        yf.X,
			Y:        yf.Y,
			W:        yf.W,
			H:        yf.H,
			Vertices: rect.Sides(),
		})
	}

	return doc, nil
}

// Export exports a view document to YAML
func (c *YAMLCodec) Export(doc *domain.ViewDocument, w io.Writer) error {
	yv := yamlView{Version: doc.Version}

	for _, n := range doc.Nodes {
		yv.Nodes = append(yv.Nodes, yamlNode{Object: n.ObjectID, Class: n.Class, X: n.X, Y: n.Y})
	}
	for _, i := range doc.Icons {
		yv.Clouds = append(yv.Clouds, yamlCloud{Object: i.ObjectID, Text: i.Text, X: i.X, Y: i.Y})
	}
	for _, e := range doc.Edges {
		yv.Edges = append(yv.Edges, yamlEdge{Name: e.Name, From: e.ASide, To: e.BSide, Points: e.ControlPoints})
	}
	for _, l := range doc.Labels {
		yl := yamlLabel{Text: l.Text, X: l.X, Y: l.Y}
		if l.Orientation != defaultOrientation {
			yl.Orientation = l.Orientation
		}
		yv.Labels = append(yv.Labels, yl)
	}
	for _, p := range doc.Polygons {
		yv.Frames = append(yv.Frames, yamlFrame{Title: p.Title, X: p.X, Y: p.Y, W: p.W, H: p.H})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yv); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
