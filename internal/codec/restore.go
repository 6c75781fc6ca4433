package codec

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"topoview/internal/domain"
	"topoview/internal/widget"
)

const defaultOrientation = string(widget.OrientationNormal)

var (
	// ErrUnsupportedVersion is returned for documents of another format version
	ErrUnsupportedVersion = errors.New("unsupported view version")
	// ErrObjectNotFound is returned by resolvers for unknown objects
	ErrObjectNotFound = errors.New("object not found")
)

// ObjectResolver looks up the inventory objects a document refers to. It
// returns ErrObjectNotFound for unknown references.
type ObjectResolver interface {
	ResolveObject(className string, id int64) (domain.ObjectRef, error)
}

// ObjectResolverFunc adapts a function to ObjectResolver
type ObjectResolverFunc func(className string, id int64) (domain.ObjectRef, error)

// ResolveObject calls f
func (f ObjectResolverFunc) ResolveObject(className string, id int64) (domain.ObjectRef, error) {
	return f(className, id)
}

// SceneBuilder is the part of a canvas Restore writes to
type SceneBuilder interface {
	AddVertex(v domain.Vertex) (widget.Widget, error)
	AddEdge(key domain.EdgeKey, source, target domain.Vertex) (*widget.ConnectionWidget, error)
}

// RestoreReport summarizes what Restore placed on the canvas
type RestoreReport struct {
	Nodes  int `json:"nodes"`
	Icons  int `json:"icons"`
	Edges  int `json:"edges"`
	Labels int `json:"labels"`
	Frames int `json:"frames"`

	// Skipped lists document entries that were not restored
	Skipped []string `json:"skipped,omitempty"`
	// Dangling lists edges restored with an unbound endpoint
	Dangling []string `json:"dangling,omitempty"`
}

// Restore rebuilds a canvas from doc. Nodes whose object cannot be resolved
// are skipped; edges touching them are restored unanchored on that side.
// Resolver errors other than ErrObjectNotFound abort the restore.
func Restore(scene SceneBuilder, doc *domain.ViewDocument, resolver ObjectResolver) (*RestoreReport, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	report := &RestoreReport{}
	byObject := make(map[int64]domain.Vertex)

	for _, n := range doc.Nodes {
		ref, err := resolver.ResolveObject(n.Class, n.ObjectID)
		if errors.Is(err, ErrObjectNotFound) {
			report.Skipped = append(report.Skipped, fmt.Sprintf("node %s#%d: %v", n.Class, n.ObjectID, err))
			continue
		}
		if err != nil {
			return report, fmt.Errorf("resolve %s#%d: %w", n.Class, n.ObjectID, err)
		}

		v := domain.NewObjectVertex(ref)
		w, err := scene.AddVertex(v)
		if err != nil {
			return report, err
		}
		place(w, n.X, n.Y)
		byObject[n.ObjectID] = v
		report.Nodes++
	}

	for _, i := range doc.Icons {
		if i.Type != domain.IconTypeCloud {
			report.Skipped = append(report.Skipped, fmt.Sprintf("icon %d: unknown type %d", i.ObjectID, i.Type))
			continue
		}
		v := domain.CloudVertex{ID: domain.NewAnnotationID(), Text: i.Text, ObjectID: i.ObjectID}
		if i.ObjectID != 0 {
			v.ID = strconv.FormatInt(i.ObjectID, 10)
		}
		w, err := scene.AddVertex(v)
		if err != nil {
			return report, err
		}
		place(w, i.X, i.Y)
		if i.ObjectID != 0 {
			byObject[i.ObjectID] = v
		}
		report.Icons++
	}

	for _, p := range doc.Polygons {
		w, err := scene.AddVertex(domain.NewFrameVertex(p.Title))
		if err != nil {
			return report, err
		}
		if f, ok := w.(*widget.FrameWidget); ok {
			f.SetLocation(domain.Point{X: p.X, Y: p.Y})
			f.SetSize(domain.Size{W: p.W, H: p.H})
		}
		report.Frames++
	}

	for _, l := range doc.Labels {
		w, err := scene.AddVertex(domain.NewLabelVertex(l.Text))
		if err != nil {
			return report, err
		}
		if lw, ok := w.(*widget.LabelWidget); ok {
			lw.SetLocation(domain.Point{X: l.X, Y: l.Y})
			if o := widget.Orientation(l.Orientation); o == widget.OrientationRotate90 {
				lw.SetOrientation(o)
			}
		}
		report.Labels++
	}

	for _, e := range doc.Edges {
		key := domain.EdgeKey(e.Name)
		if key == "" {
			key = domain.EdgeKey(uuid.NewString())
		}
		source, target := byObject[e.ASide], byObject[e.BSide]
		c, err := scene.AddEdge(key, source, target)
		if err != nil {
			report.Skipped = append(report.Skipped, fmt.Sprintf("edge %s: %v", key, err))
			continue
		}
		c.SetControlPoints(e.ControlPoints)
		if source == nil || target == nil {
			report.Dangling = append(report.Dangling, string(key))
		}
		report.Edges++
	}

	return report, nil
}

// Validate checks the document header
func Validate(doc *domain.ViewDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}
	if doc.Version != domain.ViewFormatVersion {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.Version)
	}
	if doc.Class != "" && doc.Class != domain.ViewClass {
		return fmt.Errorf("%w: class %q", ErrMalformedDocument, doc.Class)
	}
	return nil
}

func place(w widget.Widget, x, y int) {
	if w != nil {
		w.SetLocation(domain.Point{X: x, Y: y})
	}
}
