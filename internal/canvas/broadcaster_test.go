package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topoview/internal/domain"
)

func TestBroadcasterPublishesSingleObject(t *testing.T) {
	s := NewScene()
	a, b := router(1, "a"), router(2, "b")
	frame := domain.NewFrameVertex("rack")
	for _, v := range []domain.Vertex{a, b, frame} {
		_, err := s.AddVertex(v)
		require.NoError(t, err)
	}

	lookup := NewLookup()
	var published []domain.ObjectRef
	unsubscribe := lookup.Subscribe(func(ref domain.ObjectRef) { published = append(published, ref) })
	defer unsubscribe()

	bc := NewBroadcaster(s, lookup)
	defer bc.Close()

	_, ok := lookup.Current()
	assert.False(t, ok)

	require.NoError(t, s.Select(a))
	cur, ok := lookup.Current()
	require.True(t, ok)
	assert.Equal(t, a.Ref, cur)

	// Multi-selection and non-object selection leave the value alone
	require.NoError(t, s.Select(a, b))
	require.NoError(t, s.Select(frame))
	require.NoError(t, s.ClearSelection())
	cur, _ = lookup.Current()
	assert.Equal(t, a.Ref, cur)

	require.NoError(t, s.Select(b))
	cur, _ = lookup.Current()
	assert.Equal(t, b.Ref, cur)

	_, err := s.AddEdge("a-b", a, b)
	require.NoError(t, err)
	require.NoError(t, s.Select(domain.EdgeKey("a-b")))
	cur, _ = lookup.Current()
	assert.Equal(t, b.Ref, cur)

	assert.Equal(t, []domain.ObjectRef{a.Ref, b.Ref}, published)
}

func TestLookupNotifiesInSubscriptionOrder(t *testing.T) {
	lookup := NewLookup()
	var order []int
	for i := range 5 {
		lookup.Subscribe(func(domain.ObjectRef) { order = append(order, i) })
	}
	unsubscribe := lookup.Subscribe(func(domain.ObjectRef) { order = append(order, 99) })
	unsubscribe()

	lookup.Publish(domain.NewObjectRef(1, "Router", "a"))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestBroadcasterClose(t *testing.T) {
	s := NewScene()
	a := router(1, "a")
	_, _ = s.AddVertex(a)

	lookup := NewLookup()
	NewBroadcaster(s, lookup).Close()

	require.NoError(t, s.Select(a))
	_, ok := lookup.Current()
	assert.False(t, ok)
}
