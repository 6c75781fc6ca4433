package widget

import (
	"image"

	"topoview/internal/domain"
)

// NodeWidget is an icon with a label, bound to an inventory object
type NodeWidget struct {
	base
	object domain.ObjectRef
	label  string
	icon   image.Image
}

// NewNode creates a node widget. A nil icon renders as an empty square.
func NewNode(layer domain.Layer, object domain.ObjectRef, label string, icon image.Image, actions Actions) *NodeWidget {
	n := &NodeWidget{
		base:   newBase(layer, domain.Size{}, actions),
		object: object,
		label:  label,
		icon:   icon,
	}
	n.size = n.measure()
	return n
}

// Object returns the bound inventory object
func (n *NodeWidget) Object() domain.ObjectRef { return n.object }

// Label returns the text under the icon
func (n *NodeWidget) Label() string { return n.label }

// SetLabel replaces the label without gesture checks
func (n *NodeWidget) SetLabel(label string) {
	n.label = label
	n.size = n.measure()
}

// Edit is the inline-edit gesture on the label
func (n *NodeWidget) Edit(label string) error {
	if err := n.check(ActionInlineEdit); err != nil {
		return err
	}
	n.SetLabel(label)
	return nil
}

// Icon returns the node image
func (n *NodeWidget) Icon() image.Image { return n.icon }

// IconBounds returns the icon rectangle in canvas coordinates
func (n *NodeWidget) IconBounds() domain.Rect {
	is := iconSize(n.icon)
	x := n.location.X + (n.size.W-is.W)/2
	return domain.NewRect(domain.Point{X: x, Y: n.location.Y}, is)
}

func (n *NodeWidget) measure() domain.Size {
	is := iconSize(n.icon)
	ts := textSize(n.label)
	if n.label == "" {
		ts.H = 0
	}
	return domain.Size{W: max(is.W, ts.W), H: is.H + ts.H}
}

func iconSize(icon image.Image) domain.Size {
	if icon == nil {
		return domain.Size{W: 32, H: 32}
	}
	b := icon.Bounds()
	return domain.Size{W: b.Dx(), H: b.Dy()}
}
