package service

import (
	"topoview/internal/canvas"
	"topoview/internal/domain"
	"topoview/internal/widget"
)

// ElementInfo describes one vertex of a view and its widget
type ElementInfo struct {
	Key     domain.VertexKey  `json:"key"`
	Kind    domain.VertexKind `json:"kind"`
	Layer   string            `json:"layer,omitempty"`
	Object  *domain.ObjectRef `json:"object,omitempty"`
	Text    string            `json:"text,omitempty"`
	Bounds  *domain.Rect      `json:"bounds,omitempty"`
	Actions []string          `json:"actions,omitempty"`
}

// EdgeInfo describes one edge of a view
type EdgeInfo struct {
	Key           domain.EdgeKey    `json:"key"`
	Source        *domain.VertexKey `json:"source,omitempty"`
	Target        *domain.VertexKey `json:"target,omitempty"`
	ControlPoints []domain.Point    `json:"control_points,omitempty"`
}

// ViewState is the full description of an open view
type ViewState struct {
	Name      string        `json:"name"`
	Vertices  []ElementInfo `json:"vertices"`
	Edges     []EdgeInfo    `json:"edges"`
	Selection []string      `json:"selection"`
}

func describeVertex(v domain.Vertex, w widget.Widget) ElementInfo {
	info := ElementInfo{Key: v.Key(), Kind: v.Kind()}
	if w == nil {
		return info
	}

	b := w.Bounds()
	info.Layer = w.Layer().String()
	info.Bounds = &b
	info.Actions = w.Actions().Names()

	switch w := w.(type) {
	case *widget.NodeWidget:
		obj := w.Object()
		info.Object = &obj
		info.Text = w.Label()
	case *widget.FrameWidget:
		info.Text = w.Title().Text()
	case *widget.LabelWidget:
		info.Text = w.Text()
	}
	return info
}

func describeEdge(scene *canvas.Scene, key domain.EdgeKey) EdgeInfo {
	info := EdgeInfo{Key: key}
	if v := scene.EdgeSource(key); v != nil {
		k := v.Key()
		info.Source = &k
	}
	if v := scene.EdgeTarget(key); v != nil {
		k := v.Key()
		info.Target = &k
	}
	if c := scene.FindEdgeWidget(key); c != nil {
		info.ControlPoints = c.ControlPoints()
	}
	return info
}

func describeScene(name string, scene *canvas.Scene) *ViewState {
	state := &ViewState{
		Name:      name,
		Vertices:  make([]ElementInfo, 0),
		Edges:     make([]EdgeInfo, 0),
		Selection: elementKeys(scene.Selection()),
	}
	for _, v := range scene.Vertices() {
		state.Vertices = append(state.Vertices, describeVertex(v, scene.FindWidget(v)))
	}
	for _, key := range scene.Edges() {
		state.Edges = append(state.Edges, describeEdge(scene, key))
	}
	return state
}

// elementKeys renders vertices as "kind:id" and edges as their key
func elementKeys(items []domain.Element) []string {
	keys := make([]string, 0, len(items))
	for _, item := range items {
		switch item := item.(type) {
		case domain.Vertex:
			keys = append(keys, item.Key().String())
		case domain.EdgeKey:
			keys = append(keys, string(item))
		}
	}
	return keys
}
