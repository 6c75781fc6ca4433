package canvas

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topoview/internal/domain"
	"topoview/internal/icons"
	"topoview/internal/widget"
)

func TestPolicyIcons(t *testing.T) {
	routerIcon := image.NewRGBA(image.Rect(0, 0, 24, 24))
	provider := IconProviderFunc(func(class string) image.Image {
		if class == "Router" {
			return routerIcon
		}
		return nil
	})
	p := NewPolicy(provider)

	att, ok := p.Classify(router(1, "r1"))
	require.True(t, ok)
	assert.Same(t, routerIcon, att.Build().(*widget.NodeWidget).Icon())

	att, ok = p.Classify(domain.NewObjectVertex(domain.NewObjectRef(2, "Printer", "p1")))
	require.True(t, ok)
	assert.Equal(t, icons.Generic(), att.Build().(*widget.NodeWidget).Icon())
}

func TestPolicyMintsCloudObjects(t *testing.T) {
	p := NewPolicy(nil, WithIDMinter(func() int64 { return 77 }))

	att, ok := p.Classify(domain.NewCloudVertex("WAN"))
	require.True(t, ok)
	assert.Equal(t, domain.LayerIcons, att.Layer)

	n := att.Build().(*widget.NodeWidget)
	assert.Equal(t, domain.NewObjectRef(77, domain.ClassCloud, ""), n.Object())
	assert.Equal(t, CloudActions, n.Actions())
}

func TestPolicyDeclinesOpaque(t *testing.T) {
	_, ok := NewPolicy(nil).Classify(domain.OpaqueVertex{Raw: "x"})
	assert.False(t, ok)
}

func TestRandomObjectIDIsPositive(t *testing.T) {
	for range 100 {
		assert.Positive(t, randomObjectID())
	}
}
