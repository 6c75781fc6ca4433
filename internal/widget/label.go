package widget

import (
	"topoview/internal/domain"
)

// Orientation is the text direction of a label
type Orientation string

const (
	OrientationNormal   Orientation = "NORMAL"
	OrientationRotate90 Orientation = "ROTATE_90"
)

// LabelWidget is free, editable text
type LabelWidget struct {
	base
	text        string
	orientation Orientation
}

// NewLabel creates a label on the given layer
func NewLabel(layer domain.Layer, text string, actions Actions) *LabelWidget {
	return &LabelWidget{
		base:        newBase(layer, textSize(text), actions),
		text:        text,
		orientation: OrientationNormal,
	}
}

// Text returns the label text
func (l *LabelWidget) Text() string { return l.text }

// SetText replaces the text without gesture checks
func (l *LabelWidget) SetText(text string) {
	l.text = text
	l.size = l.measure()
}

// Edit is the inline-edit gesture
func (l *LabelWidget) Edit(text string) error {
	if err := l.check(ActionInlineEdit); err != nil {
		return err
	}
	l.SetText(text)
	return nil
}

// Orientation returns the text direction
func (l *LabelWidget) Orientation() Orientation { return l.orientation }

// SetOrientation changes the text direction
func (l *LabelWidget) SetOrientation(o Orientation) {
	l.orientation = o
	l.size = l.measure()
}

func (l *LabelWidget) measure() domain.Size {
	size := textSize(l.text)
	if l.orientation == OrientationRotate90 {
		size.W, size.H = size.H, size.W
	}
	return size
}
