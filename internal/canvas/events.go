package canvas

import (
	"topoview/internal/domain"
	"topoview/internal/widget"
)

// ListenerID identifies a registered listener
type ListenerID uint64

// ObjectAdded is emitted after a vertex is registered. Widget is nil when
// the vertex has no visual form.
type ObjectAdded struct {
	Vertex domain.Vertex
	Kind   domain.VertexKind
	Widget widget.Widget
}

// SelectionChanged is emitted when the selected set changes
type SelectionChanged struct {
	Previous []domain.Element
	Current  []domain.Element
}

type objectListener struct {
	id ListenerID
	fn func(ObjectAdded)
}

type selectionListener struct {
	id ListenerID
	fn func(SelectionChanged)
}
