package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topoview/internal/canvas"
	"topoview/internal/domain"
	"topoview/internal/widget"
)

type mapResolver map[int64]domain.ObjectRef

func (m mapResolver) ResolveObject(className string, id int64) (domain.ObjectRef, error) {
	ref, ok := m[id]
	if !ok || ref.ClassName != className {
		return domain.ObjectRef{}, ErrObjectNotFound
	}
	return ref, nil
}

func TestRestoreRebuildsExportedView(t *testing.T) {
	a := domain.NewObjectRef(1, "Router", "edge-1")
	b := domain.NewObjectRef(2, "Switch", "sw-1")
	resolver := mapResolver{1: a, 2: b}

	src := canvas.NewScene()
	av, bv := domain.NewObjectVertex(a), domain.NewObjectVertex(b)
	cloud := domain.CloudVertex{ID: "50", Text: "Internet", ObjectID: 50}
	for _, v := range []domain.Vertex{av, bv, cloud} {
		_, err := src.AddVertex(v)
		require.NoError(t, err)
	}
	src.FindWidget(av).SetLocation(domain.Point{X: 10, Y: 20})
	src.FindWidget(cloud).SetLocation(domain.Point{X: 300, Y: 40})
	fw, _ := src.AddVertex(domain.NewFrameVertex("site A"))
	fw.SetLocation(domain.Point{X: 5, Y: 5})
	require.NoError(t, fw.(*widget.FrameWidget).Resize(domain.Size{W: 400, H: 250}))
	_, _ = src.AddVertex(domain.NewLabelVertex("uplink"))
	c, err := src.AddEdge("e1", av, cloud)
	require.NoError(t, err)
	c.SetControlPoints([]domain.Point{{X: 100, Y: 100}})

	codec := NewViewXMLCodec()
	var buf bytes.Buffer
	require.NoError(t, ExportScene(codec, src, &buf))
	doc, err := codec.Parse(&buf)
	require.NoError(t, err)

	dst := canvas.NewScene()
	report, err := Restore(dst, doc, resolver)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Nodes)
	assert.Equal(t, 1, report.Icons)
	assert.Equal(t, 1, report.Frames)
	assert.Equal(t, 1, report.Labels)
	assert.Equal(t, 1, report.Edges)
	assert.Empty(t, report.Skipped)
	assert.Empty(t, report.Dangling)

	assert.Equal(t, domain.Point{X: 10, Y: 20}, dst.FindWidget(av).Location())
	restoredCloud := dst.FindWidget(cloud).(*widget.NodeWidget)
	assert.Equal(t, int64(50), restoredCloud.Object().ID)
	assert.Equal(t, "Internet", restoredCloud.Label())

	frames := dst.Widgets(domain.LayerFrames)
	require.Len(t, frames, 1)
	assert.Equal(t, domain.Rect{X: 5, Y: 5, W: 400, H: 250}, frames[0].Bounds())

	edge := dst.FindEdgeWidget("e1")
	require.NotNil(t, edge)
	assert.Equal(t, []domain.Point{{X: 100, Y: 100}}, edge.ControlPoints())
	assert.Equal(t, av, dst.EdgeSource("e1"))
	assert.Equal(t, cloud, dst.EdgeTarget("e1"))
}

func TestRestoreSkipsUnknownObjects(t *testing.T) {
	doc := domain.NewViewDocument()
	doc.Nodes = []domain.ViewNode{
		{X: 1, Y: 1, Class: "Router", ObjectID: 1},
		{X: 2, Y: 2, Class: "Router", ObjectID: 404},
	}
	doc.Edges = []domain.ViewEdge{{Name: "e1", ASide: 1, BSide: 404}}

	scene := canvas.NewScene()
	report, err := Restore(scene, doc, mapResolver{1: domain.NewObjectRef(1, "Router", "r1")})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Nodes)
	assert.Len(t, report.Skipped, 1)
	assert.Equal(t, []string{"e1"}, report.Dangling)
	assert.Nil(t, scene.FindEdgeWidget("e1").TargetAnchor())
}

func TestRestoreErrors(t *testing.T) {
	scene := canvas.NewScene()

	doc := domain.NewViewDocument()
	doc.Version = "2.0"
	_, err := Restore(scene, doc, mapResolver{})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	doc = domain.NewViewDocument()
	doc.Class = "Rack"
	_, err = Restore(scene, doc, mapResolver{})
	assert.ErrorIs(t, err, ErrMalformedDocument)

	boom := errors.New("db down")
	doc = domain.NewViewDocument()
	doc.Nodes = []domain.ViewNode{{Class: "Router", ObjectID: 1}}
	_, err = Restore(scene, doc, ObjectResolverFunc(func(string, int64) (domain.ObjectRef, error) {
		return domain.ObjectRef{}, boom
	}))
	assert.ErrorIs(t, err, boom)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(domain.NewViewDocument()))
	assert.ErrorIs(t, Validate(nil), ErrMalformedDocument)

	doc := domain.NewViewDocument()
	doc.Version = ""
	assert.ErrorIs(t, Validate(doc), ErrUnsupportedVersion)
}
