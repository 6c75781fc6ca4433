package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRect(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 100, H: 50}

	t.Run("center", func(t *testing.T) {
		assert.Equal(t, Point{X: 60, Y: 45}, r.Center())
	})

	t.Run("contains", func(t *testing.T) {
		assert.True(t, r.Contains(Point{X: 10, Y: 20}))
		assert.True(t, r.Contains(Point{X: 110, Y: 70}))
		assert.False(t, r.Contains(Point{X: 111, Y: 70}))
	})

	t.Run("union", func(t *testing.T) {
		u := r.Union(Rect{X: 0, Y: 0, W: 5, H: 5})
		assert.Equal(t, Rect{X: 0, Y: 0, W: 110, H: 70}, u)
	})

	t.Run("sides form a closed clockwise loop", func(t *testing.T) {
		sides := r.Sides()
		assert.Len(t, sides, 4)
		for i, s := range sides {
			next := sides[(i+1)%len(sides)]
			assert.Equal(t, s.X1, next.X0)
			assert.Equal(t, s.Y1, next.Y0)
		}
		assert.Equal(t, Segment{X0: 10, Y0: 20, X1: 110, Y1: 20}, sides[0])
	})
}

func TestLayers(t *testing.T) {
	assert.Equal(t, []Layer{LayerFrames, LayerEdges, LayerNodes, LayerIcons, LayerLabels}, Layers())
	assert.Equal(t, "icons", LayerIcons.String())
	assert.Equal(t, "unknown", Layer(9).String())
}
