package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topoview/internal/domain"
	"topoview/internal/widget"
)

func TestSelect(t *testing.T) {
	s := NewScene()
	a, b := router(1, "a"), router(2, "b")
	_, _ = s.AddVertex(a)
	_, _ = s.AddVertex(b)

	var events []SelectionChanged
	s.AddSelectionListener(func(ev SelectionChanged) { events = append(events, ev) })

	require.NoError(t, s.Select(a))
	require.NoError(t, s.Select(a))
	require.NoError(t, s.Select(a, b))
	require.NoError(t, s.Select(b, a, b))

	require.Len(t, events, 2)
	assert.Empty(t, events[0].Previous)
	assert.Equal(t, []domain.Element{a}, events[0].Current)
	assert.Equal(t, []domain.Element{a, b}, events[1].Current)
	assert.Equal(t, []domain.Element{a, b}, s.Selection())

	assert.ErrorIs(t, s.Select(router(99, "ghost")), ErrUnknownElement)
	assert.ErrorIs(t, s.Select(domain.EdgeKey("ghost")), ErrUnknownElement)
}

func TestRemovingSelectedVertexPrunesSelection(t *testing.T) {
	s := NewScene()
	a, b := router(1, "a"), router(2, "b")
	_, _ = s.AddVertex(a)
	_, _ = s.AddVertex(b)
	require.NoError(t, s.Select(a, b))

	var last SelectionChanged
	s.AddSelectionListener(func(ev SelectionChanged) { last = ev })

	require.NoError(t, s.RemoveVertex(a))
	assert.Equal(t, []domain.Element{b}, s.Selection())
	assert.Equal(t, []domain.Element{b}, last.Current)
}

func TestClick(t *testing.T) {
	s := NewScene()
	obj := router(1, "a")
	w, _ := s.AddVertex(obj)
	cloud, _ := s.AddVertex(domain.NewCloudVertex("WAN"))

	require.NoError(t, s.Click(w))
	assert.Equal(t, []domain.Element{obj}, s.Selection())

	assert.ErrorIs(t, s.Click(cloud), widget.ErrActionDisabled)
	assert.Equal(t, []domain.Element{obj}, s.Selection())
}

func TestConnect(t *testing.T) {
	s := NewScene()
	a, b := router(1, "a"), router(2, "b")
	label := domain.NewLabelVertex("note")
	cloud := domain.NewCloudVertex("WAN")
	for _, v := range []domain.Vertex{a, b, label, cloud} {
		_, err := s.AddVertex(v)
		require.NoError(t, err)
	}

	key, err := s.Connect(a, b)
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	assert.Equal(t, a, s.EdgeSource(key))
	assert.Equal(t, b, s.EdgeTarget(key))

	_, err = s.Connect(a, cloud)
	require.NoError(t, err)

	_, err = s.Connect(a, label)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = s.Connect(label, a)
	assert.ErrorIs(t, err, widget.ErrActionDisabled)

	assert.Len(t, s.Edges(), 2)
}

func TestContextMenu(t *testing.T) {
	var asked []domain.Element
	menus := MenuProviderFunc(func(e domain.Element) []MenuItem {
		asked = append(asked, e)
		return []MenuItem{{ID: "props", Label: "Properties"}}
	})
	s := NewScene(WithMenuProvider(menus))
	a := router(1, "a")
	frame := domain.NewFrameVertex("rack")
	_, _ = s.AddVertex(a)
	_, _ = s.AddVertex(frame)
	_, err := s.AddEdge("e1", a, nil)
	require.NoError(t, err)

	items, err := s.ContextMenu(a)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = s.ContextMenu(frame)
	require.NoError(t, err)

	_, err = s.ContextMenu(domain.EdgeKey("e1"))
	assert.ErrorIs(t, err, widget.ErrActionDisabled)

	assert.Equal(t, []domain.Element{a, frame}, asked)
}

func TestGestures(t *testing.T) {
	s := NewScene()
	frame := domain.NewFrameVertex("rack")
	label := domain.NewLabelVertex("note")
	fw, _ := s.AddVertex(frame)
	_, _ = s.AddVertex(label)

	require.NoError(t, s.MoveVertex(frame, domain.Point{X: 50, Y: 60}))
	assert.Equal(t, domain.Point{X: 50, Y: 60}, fw.Location())
	assert.Equal(t, domain.Point{X: 50, Y: 60}, fw.(*widget.FrameWidget).Title().Location())

	require.NoError(t, s.ResizeFrame(frame, domain.Size{W: 300, H: 200}))
	assert.Equal(t, domain.Size{W: 300, H: 200}, fw.Size())

	require.NoError(t, s.EditText(frame, "rack 2"))
	assert.Equal(t, "rack 2", fw.(*widget.FrameWidget).Title().Text())

	require.NoError(t, s.EditText(label, "renamed"))

	obj := router(1, "a")
	_, _ = s.AddVertex(obj)
	assert.ErrorIs(t, s.EditText(obj, "x"), widget.ErrActionDisabled)
	assert.ErrorIs(t, s.MoveVertex(router(9, "ghost"), domain.Point{}), ErrUnknownVertex)
}
