package codec

import (
	"errors"
	"fmt"

	"topoview/internal/domain"
	"topoview/internal/widget"
)

// ErrUnresolvedAnchor is returned when exporting an edge with an endpoint
// that is not bound to a node widget
var ErrUnresolvedAnchor = errors.New("edge has an unresolved anchor")

// WidgetSource is the read-only view of a canvas the exporters need
type WidgetSource interface {
	Widgets(layer domain.Layer) []widget.Widget
}

// Snapshot captures the widgets of src as a document. Groups follow the
// export order nodes, icons, edges, labels, polygons whatever the insertion
// order on the canvas. It never mutates src.
func Snapshot(src WidgetSource) (*domain.ViewDocument, error) {
	doc := domain.NewViewDocument()

	for _, w := range src.Widgets(domain.LayerNodes) {
		n, ok := w.(*widget.NodeWidget)
		if !ok {
			continue
		}
		loc := n.Location()
		doc.Nodes = append(doc.Nodes, domain.ViewNode{
			X:        loc.X,
			Y:        loc.Y,
			Class:    n.Object().ClassName,
			ObjectID: n.Object().ID,
		})
	}

	for _, w := range src.Widgets(domain.LayerIcons) {
		n, ok := w.(*widget.NodeWidget)
		if !ok {
			continue
		}
		loc := n.Location()
		doc.Icons = append(doc.Icons, domain.ViewIcon{
			Type:     domain.IconTypeCloud,
			ObjectID: n.Object().ID,
			X:        loc.X,
			Y:        loc.Y,
			Text:     n.Label(),
		})
	}

	for _, w := range src.Widgets(domain.LayerEdges) {
		c, ok := w.(*widget.ConnectionWidget)
		if !ok {
			continue
		}
		aside, err := anchorObject(c.SourceAnchor())
		if err != nil {
			return nil, fmt.Errorf("edge %s source: %w", c.Name(), err)
		}
		bside, err := anchorObject(c.TargetAnchor())
		if err != nil {
			return nil, fmt.Errorf("edge %s target: %w", c.Name(), err)
		}
		doc.Edges = append(doc.Edges, domain.ViewEdge{
			Name:          c.Name(),
			ASide:         aside,
			BSide:         bside,
			ControlPoints: c.ControlPoints(),
		})
	}

	for _, w := range src.Widgets(domain.LayerLabels) {
		l, ok := w.(*widget.LabelWidget)
		if !ok {
			continue
		}
		loc := l.Location()
		doc.Labels = append(doc.Labels, domain.ViewLabel{
			X:           loc.X,
			Y:           loc.Y,
			Orientation: string(l.Orientation()),
			Text:        l.Text(),
		})
	}

	for _, w := range src.Widgets(domain.LayerFrames) {
		f, ok := w.(*widget.FrameWidget)
		if !ok {
			continue
		}
		b := f.Bounds()
		doc.Polygons = append(doc.Polygons, domain.ViewPolygon{
			Title:    f.Title().Text(),
			Color:    domain.PolygonColor,
			Border:   domain.PolygonBorder,
			Fill:     domain.PolygonFill,
			X:        b.X,
			Y:        b.Y,
			W:        b.W,
			H:        b.H,
			Vertices: b.Sides(),
		})
	}

	return doc, nil
}

func anchorObject(a *widget.Anchor) (int64, error) {
	n, ok := a.Related().(*widget.NodeWidget)
	if !ok || n == nil {
		return 0, ErrUnresolvedAnchor
	}
	return n.Object().ID, nil
}
