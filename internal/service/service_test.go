package service

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"topoview/internal/canvas"
	"topoview/internal/codec"
	"topoview/internal/domain"
	"topoview/internal/repository/sqlite"
)

func newTestService(t *testing.T) (*ViewService, *sqlite.Repository, chan Event) {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)

	bus := NewEventBus()
	events := make(chan Event, 256)
	bus.Subscribe(events)

	svc := NewViewService(repo, bus)
	t.Cleanup(func() {
		svc.Shutdown()
		repo.Close()
	})

	ctx := context.Background()
	require.NoError(t, repo.UpsertObjects(ctx, []domain.ObjectRef{
		domain.NewObjectRef(100, "Router", "core"),
		domain.NewObjectRef(200, "Switch", "access"),
	}))
	return svc, repo, events
}

func drain(events chan Event) []EventType {
	var types []EventType
	for {
		select {
		case ev := <-events:
			types = append(types, ev.Type)
		default:
			return types
		}
	}
}

func TestValidateViewName(t *testing.T) {
	assert.NoError(t, ValidateViewName("core-dc1.v2"))
	for _, bad := range []string{"", "../etc", "a b", ".hidden"} {
		assert.ErrorIs(t, ValidateViewName(bad), ErrInvalidViewName, bad)
	}
}

func TestOperationsNeedAnOpenView(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.AddLabel(context.Background(), "nope", "x", domain.Point{})
	assert.ErrorIs(t, err, ErrViewNotOpen)
}

func TestEditViewAndSave(t *testing.T) {
	svc, repo, events := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Open(ctx, "core"))
	require.NoError(t, svc.Open(ctx, "core"))

	r, err := svc.AddObject(ctx, "core", 100, domain.Point{X: 10, Y: 20})
	require.NoError(t, err)
	assert.Equal(t, "nodes", r.Layer)
	assert.Equal(t, "core", r.Text)

	sw, err := svc.AddObject(ctx, "core", 200, domain.Point{X: 200, Y: 20})
	require.NoError(t, err)

	_, err = svc.AddObject(ctx, "core", 999, domain.Point{})
	assert.ErrorIs(t, err, ErrObjectNotFound)

	cloud, err := svc.AddCloud(ctx, "core", "Internet", domain.Point{X: 100, Y: 200})
	require.NoError(t, err)
	assert.Equal(t, "icons", cloud.Layer)

	frame, err := svc.AddFrame(ctx, "core", "DC1", domain.Rect{X: 0, Y: 0, W: 400, H: 300})
	require.NoError(t, err)
	assert.Equal(t, 400, frame.Bounds.W)

	edge, err := svc.Connect(ctx, "core", r.Key, sw.Key)
	require.NoError(t, err)
	require.NotNil(t, edge.Source)
	assert.Equal(t, r.Key, *edge.Source)

	require.NoError(t, svc.Move(ctx, "core", r.Key, domain.Point{X: 15, Y: 25}))
	require.NoError(t, svc.Resize(ctx, "core", frame.Key, domain.Size{W: 500, H: 300}))
	require.NoError(t, svc.EditText(ctx, "core", frame.Key, "DC-1"))

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, "core", "xml", &buf))
	assert.Contains(t, buf.String(), `<node x="15" y="25" class="Router">100</node>`)
	assert.Contains(t, buf.String(), `title="DC-1"`)

	changed, err := svc.Save(ctx, "core", "xml")
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = svc.Save(ctx, "core", "xml")
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err := repo.GetView(ctx, "core")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, buf.String(), string(stored.Body))

	types := drain(events)
	assert.Contains(t, types, EventViewOpened)
	assert.Contains(t, types, EventObjectAdded)
	assert.Contains(t, types, EventEdgeAdded)
	assert.Contains(t, types, EventViewSaved)
}

func TestReopenRestoresSavedView(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Open(ctx, "v"))
	a, err := svc.AddObject(ctx, "v", 100, domain.Point{X: 1, Y: 2})
	require.NoError(t, err)
	b, err := svc.AddObject(ctx, "v", 200, domain.Point{X: 3, Y: 4})
	require.NoError(t, err)
	_, err = svc.Connect(ctx, "v", a.Key, b.Key)
	require.NoError(t, err)
	_, err = svc.AddLabel(ctx, "v", "note", domain.Point{X: 50, Y: 50})
	require.NoError(t, err)
	_, err = svc.Save(ctx, "v", "yaml")
	require.NoError(t, err)

	require.NoError(t, svc.Close(ctx, "v"))
	require.NoError(t, svc.Open(ctx, "v"))

	state, err := svc.State(ctx, "v")
	require.NoError(t, err)
	assert.Len(t, state.Vertices, 3)
	require.Len(t, state.Edges, 1)
	assert.Equal(t, a.Key, *state.Edges[0].Source)
	assert.Equal(t, b.Key, *state.Edges[0].Target)
}

func TestSelectionPublishesObject(t *testing.T) {
	svc, _, events := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Open(ctx, "v"))
	a, err := svc.AddObject(ctx, "v", 100, domain.Point{})
	require.NoError(t, err)
	b, err := svc.AddObject(ctx, "v", 200, domain.Point{})
	require.NoError(t, err)

	_, ok, err := svc.SelectedObject(ctx, "v")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Select(ctx, "v", []domain.VertexKey{a.Key}, nil))
	require.NoError(t, svc.Select(ctx, "v", []domain.VertexKey{a.Key, b.Key}, nil))

	ref, ok, err := svc.SelectedObject(ctx, "v")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(100), ref.ID)

	assert.Contains(t, drain(events), EventSelectionChanged)
}

func TestImportReplacesContent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Open(ctx, "v"))
	_, err := svc.AddLabel(ctx, "v", "old", domain.Point{})
	require.NoError(t, err)

	doc := `<view version="1.0"><class>TopologyView</class>` +
		`<nodes><node x="10" y="20" class="Router">100</node><node x="0" y="0" class="Router">404</node></nodes>` +
		`<icons></icons><edges></edges><labels></labels><poligons></poligons></view>`
	report, err := svc.Import(ctx, "v", "xml", strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Nodes)
	assert.Len(t, report.Skipped, 1)

	state, err := svc.State(ctx, "v")
	require.NoError(t, err)
	require.Len(t, state.Vertices, 1)
	assert.Equal(t, domain.VertexKindObject, state.Vertices[0].Kind)
}

func TestFailedImportKeepsView(t *testing.T) {
	svc, _, events := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Open(ctx, "v"))
	_, err := svc.AddLabel(ctx, "v", "keep", domain.Point{})
	require.NoError(t, err)
	drain(events)

	doc := `<view version="2.0"><class>TopologyView</class>` +
		`<nodes></nodes><icons></icons><edges></edges><labels></labels><poligons></poligons></view>`

	_, err = svc.Import(ctx, "v", "xml", strings.NewReader(doc))
	require.ErrorIs(t, err, codec.ErrUnsupportedVersion)

	state, err := svc.State(ctx, "v")
	require.NoError(t, err)
	require.Len(t, state.Vertices, 1)
	assert.Equal(t, domain.VertexKindLabel, state.Vertices[0].Kind)

	_, err = svc.Import(ctx, "fresh", "xml", strings.NewReader(doc))
	require.ErrorIs(t, err, codec.ErrUnsupportedVersion)
	open, err := svc.IsOpen(ctx, "fresh")
	require.NoError(t, err)
	assert.False(t, open)

	assert.NotContains(t, drain(events), EventViewImported)
}

func TestContextMenuAndRender(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Open(ctx, "v"))
	a, err := svc.AddObject(ctx, "v", 100, domain.Point{})
	require.NoError(t, err)

	items, err := svc.ContextMenu(ctx, "v", a.Key)
	require.NoError(t, err)
	assert.Contains(t, items, canvas.MenuItem{ID: "properties", Label: "Properties"})

	var buf bytes.Buffer
	require.NoError(t, svc.Render(ctx, "v", &buf))
	_, err = png.Decode(&buf)
	assert.NoError(t, err)
}

func TestDeleteView(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Open(ctx, "v"))
	_, err := svc.Save(ctx, "v", "json")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteView(ctx, "v"))
	_, err = svc.StoredView(ctx, "v")
	assert.ErrorIs(t, err, ErrViewNotFound)
	open, err := svc.IsOpen(ctx, "v")
	require.NoError(t, err)
	assert.False(t, open)
}

func TestShutdownRejectsOperations(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.Shutdown()
	assert.ErrorIs(t, svc.Open(context.Background(), "v"), ErrServiceStopped)
}

func TestContextCancellation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	_, err := svc.OpenViews(ctx)
	assert.Error(t, err)
}

type mockScanner struct {
	mock.Mock
}

func (m *mockScanner) Scan(ctx context.Context, targets []string) ([]domain.ObjectRef, error) {
	args := m.Called(ctx, targets)
	refs, _ := args.Get(0).([]domain.ObjectRef)
	return refs, args.Error(1)
}

func TestDiscoverStoresObjects(t *testing.T) {
	svc, _, events := newTestService(t)
	ctx := context.Background()

	scanner := &mockScanner{}
	found := []domain.ObjectRef{domain.NewObjectRef(300, "Server", "web1")}
	scanner.On("Scan", mock.Anything, []string{"10.0.0.0/24"}).Return(found, nil)

	refs, err := svc.Discover(ctx, scanner, []string{"10.0.0.0/24"})
	require.NoError(t, err)
	assert.Equal(t, found, refs)
	scanner.AssertExpectations(t)

	objects, err := svc.ListObjects(ctx)
	require.NoError(t, err)
	assert.Len(t, objects, 3)
	assert.Contains(t, drain(events), EventObjectsDiscovered)
}
