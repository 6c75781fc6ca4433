package canvas

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/google/uuid"

	"topoview/internal/domain"
	"topoview/internal/icons"
	"topoview/internal/widget"
)

// Behaviors installed per variant
var (
	ObjectActions = widget.NewActions(widget.ActionSelect, widget.ActionMove,
		widget.ActionConnect, widget.ActionContextMenu)
	CloudActions = widget.NewActions(widget.ActionInlineEdit, widget.ActionMove,
		widget.ActionConnect, widget.ActionContextMenu)
	FrameActions = widget.NewActions(widget.ActionContextMenu, widget.ActionResize,
		widget.ActionMove)
	FrameTitleActions = widget.NewActions(widget.ActionInlineEdit)
	LabelActions      = widget.NewActions(widget.ActionMove, widget.ActionInlineEdit,
		widget.ActionContextMenu)
	EdgeActions = widget.NewActions(widget.ActionAddRemoveControlPoint,
		widget.ActionMoveControlPoint)
)

// IconProvider resolves the icon of an inventory class. It must be a
// synchronous, side-effect-free query; nil means no icon.
type IconProvider interface {
	ClassIcon(className string) image.Image
}

// IconProviderFunc adapts a function to IconProvider
type IconProviderFunc func(className string) image.Image

// ClassIcon calls f
func (f IconProviderFunc) ClassIcon(className string) image.Image {
	return f(className)
}

// Attachment is the result of classifying a vertex: the layer its widget
// lives on and how to build it
type Attachment struct {
	Layer domain.Layer
	Build func() widget.Widget
}

// Policy decides, per vertex, what widget to create and where to place it
type Policy struct {
	icons   IconProvider
	generic image.Image
	cloud   image.Image
	mintID  func() int64
}

// PolicyOption configures a Policy
type PolicyOption func(*Policy)

// WithGenericIcon replaces the fallback icon
func WithGenericIcon(img image.Image) PolicyOption {
	return func(p *Policy) {
		p.generic = img
	}
}

// WithCloudIcon replaces the cloud icon
func WithCloudIcon(img image.Image) PolicyOption {
	return func(p *Policy) {
		p.cloud = img
	}
}

// WithIDMinter replaces the generator of synthetic object ids
func WithIDMinter(fn func() int64) PolicyOption {
	return func(p *Policy) {
		p.mintID = fn
	}
}

// NewPolicy creates a policy resolving class icons through provider, which
// may be nil
func NewPolicy(provider IconProvider, opts ...PolicyOption) *Policy {
	p := &Policy{
		icons:   provider,
		generic: icons.Generic(),
		cloud:   icons.Cloud(),
		mintID:  randomObjectID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Classify returns the attachment for v. The second result is false when v
// has no visual representation.
//
// Order matters: an object whose name carries the cloud tag is a cloud, not
// a node, and is checked before frames and labels.
func (p *Policy) Classify(v domain.Vertex) (Attachment, bool) {
	if ov, ok := v.(domain.ObjectVertex); ok {
		v = domain.VertexFromObject(ov.Ref)
	}

	switch v := v.(type) {
	case domain.ObjectVertex:
		return Attachment{
			Layer: domain.LayerNodes,
			Build: func() widget.Widget {
				return widget.NewNode(domain.LayerNodes, v.Ref, v.Ref.DisplayName(),
					p.classIcon(v.Ref.ClassName), ObjectActions)
			},
		}, true

	case domain.CloudVertex:
		return Attachment{
			Layer: domain.LayerIcons,
			Build: func() widget.Widget {
				id := v.ObjectID
				if id == 0 {
					id = p.mintID()
				}
				obj := domain.NewObjectRef(id, domain.ClassCloud, "")
				return widget.NewNode(domain.LayerIcons, obj, v.Text, p.cloud, CloudActions)
			},
		}, true

	case domain.FrameVertex:
		return Attachment{
			Layer: domain.LayerFrames,
			Build: func() widget.Widget {
				return widget.NewFrame(domain.LayerFrames, v.Text, FrameActions, FrameTitleActions)
			},
		}, true

	case domain.LabelVertex:
		return Attachment{
			Layer: domain.LayerLabels,
			Build: func() widget.Widget {
				return widget.NewLabel(domain.LayerLabels, v.Text, LabelActions)
			},
		}, true
	}

	return Attachment{}, false
}

// AttachEdge builds the widget for an edge. Edges are never classified.
func (p *Policy) AttachEdge(key domain.EdgeKey) *widget.ConnectionWidget {
	return widget.NewConnection(domain.LayerEdges, string(key), EdgeActions)
}

func (p *Policy) classIcon(className string) image.Image {
	if p.icons != nil {
		if icon := p.icons.ClassIcon(className); icon != nil {
			return icon
		}
	}
	return p.generic
}

func randomObjectID() int64 {
	u := uuid.New()
	id := int64(binary.BigEndian.Uint64(u[:8]) & math.MaxInt64)
	if id == 0 {
		id = 1
	}
	return id
}
