package widget

import (
	"topoview/internal/domain"
)

// Frame sizing
const (
	FrameMinWidth      = 40
	FrameMinHeight     = 30
	FrameDefaultWidth  = 200
	FrameDefaultHeight = 120
)

// FrameWidget is a titled, resizable rectangle. Only its title label is
// editable; the frame itself never carries inline-edit.
type FrameWidget struct {
	base
	title *LabelWidget
}

// NewFrame creates a frame whose title carries titleActions
func NewFrame(layer domain.Layer, title string, actions, titleActions Actions) *FrameWidget {
	return &FrameWidget{
		base:  newBase(layer, domain.Size{W: FrameDefaultWidth, H: FrameDefaultHeight}, actions),
		title: NewLabel(layer, title, titleActions),
	}
}

// Title returns the nested title label
func (f *FrameWidget) Title() *LabelWidget { return f.title }

// SetLocation moves the frame and its title together
func (f *FrameWidget) SetLocation(p domain.Point) {
	f.base.SetLocation(p)
	f.title.SetLocation(p)
}

// MoveBy is the move gesture
func (f *FrameWidget) MoveBy(dx, dy int) error {
	if err := f.base.MoveBy(dx, dy); err != nil {
		return err
	}
	f.title.SetLocation(f.location)
	return nil
}

// MoveTo is the move gesture with an absolute drop location
func (f *FrameWidget) MoveTo(p domain.Point) error {
	if err := f.base.MoveTo(p); err != nil {
		return err
	}
	f.title.SetLocation(p)
	return nil
}

// SetSize changes the extent without gesture checks, clamped to the minimum
func (f *FrameWidget) SetSize(s domain.Size) {
	f.size = domain.Size{W: max(s.W, FrameMinWidth), H: max(s.H, FrameMinHeight)}
}

// Resize is the resize gesture
func (f *FrameWidget) Resize(s domain.Size) error {
	if err := f.check(ActionResize); err != nil {
		return err
	}
	f.SetSize(s)
	return nil
}

// Destroy removes the frame and its title
func (f *FrameWidget) Destroy() {
	f.base.Destroy()
	f.title.Destroy()
}
