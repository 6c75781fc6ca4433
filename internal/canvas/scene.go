package canvas

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"topoview/internal/domain"
	"topoview/internal/widget"
)

var (
	// ErrNilVertex is returned when a nil vertex is added
	ErrNilVertex = errors.New("nil vertex")
	// ErrEmptyEdgeKey is returned when an edge is added without a key
	ErrEmptyEdgeKey = errors.New("empty edge key")
	// ErrDuplicateEdge is returned when an edge key is already on the canvas
	ErrDuplicateEdge = errors.New("edge already exists")
	// ErrUnknownVertex is returned for vertices not on the canvas
	ErrUnknownVertex = errors.New("vertex not on canvas")
	// ErrUnknownEdge is returned for edge keys not on the canvas
	ErrUnknownEdge = errors.New("edge not on canvas")
	// ErrReentrantMutation is returned when a listener mutates the scene
	ErrReentrantMutation = errors.New("scene mutated from a listener")
)

type vertexEntry struct {
	vertex domain.Vertex
	widget widget.Widget
}

type edgeEntry struct {
	key    domain.EdgeKey
	widget *widget.ConnectionWidget
	source domain.Vertex
	target domain.Vertex
}

// Scene is the canvas model. See the package documentation for threading rules.
type Scene struct {
	policy *Policy
	menus  MenuProvider
	logger *zap.Logger

	vertices    map[domain.VertexKey]*vertexEntry
	vertexOrder []domain.VertexKey
	edges       map[domain.EdgeKey]*edgeEntry
	edgeOrder   []domain.EdgeKey
	owners      map[widget.Widget]domain.Element
	layers      [domain.LayerCount][]widget.Widget

	objectListeners    []objectListener
	selectionListeners []selectionListener
	nextListenerID     ListenerID
	dispatching        bool

	selection []domain.Element
}

// Option configures a Scene
type Option func(*Scene)

// WithPolicy replaces the attachment policy
func WithPolicy(p *Policy) Option {
	return func(s *Scene) {
		s.policy = p
	}
}

// WithLogger sets the scene logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Scene) {
		s.logger = l
	}
}

// WithMenuProvider sets the source of context menus
func WithMenuProvider(m MenuProvider) Option {
	return func(s *Scene) {
		s.menus = m
	}
}

// NewScene creates an empty canvas
func NewScene(opts ...Option) *Scene {
	s := &Scene{
		logger:   zap.NewNop(),
		vertices: make(map[domain.VertexKey]*vertexEntry),
		edges:    make(map[domain.EdgeKey]*edgeEntry),
		owners:   make(map[widget.Widget]domain.Element),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy == nil {
		s.policy = NewPolicy(nil)
	}
	return s
}

// AddVertex registers v and returns its widget. It is idempotent per vertex
// key: a second call returns the widget created by the first. The widget is
// nil when the policy cannot represent v; the vertex stays registered.
func (s *Scene) AddVertex(v domain.Vertex) (widget.Widget, error) {
	if v == nil {
		return nil, ErrNilVertex
	}
	if s.dispatching {
		return nil, ErrReentrantMutation
	}

	key := v.Key()
	if e, ok := s.vertices[key]; ok {
		return e.widget, nil
	}

	e := &vertexEntry{vertex: v}
	if att, ok := s.policy.Classify(v); ok {
		e.widget = att.Build()
		s.attach(att.Layer, e.widget, v)
	} else {
		s.logger.Debug("vertex has no visual representation", zap.Stringer("vertex", key))
	}

	s.vertices[key] = e
	s.vertexOrder = append(s.vertexOrder, key)

	s.notifyObjectAdded(ObjectAdded{Vertex: v, Kind: v.Kind(), Widget: e.widget})
	return e.widget, nil
}

// AddEdge registers an edge between optional source and target vertices and
// returns its connection widget. Anchors are bound to the endpoints' current
// widgets, or left unbound.
func (s *Scene) AddEdge(key domain.EdgeKey, source, target domain.Vertex) (*widget.ConnectionWidget, error) {
	if key == "" {
		return nil, ErrEmptyEdgeKey
	}
	if s.dispatching {
		return nil, ErrReentrantMutation
	}
	if _, ok := s.edges[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEdge, key)
	}

	e := &edgeEntry{
		key:    key,
		widget: s.policy.AttachEdge(key),
	}
	s.attach(domain.LayerEdges, e.widget, key)
	s.edges[key] = e
	s.edgeOrder = append(s.edgeOrder, key)

	s.bindSource(e, source)
	s.bindTarget(e, target)
	return e.widget, nil
}

// RemoveVertex deletes v and destroys its widget. Edges attached to v stay
// on the canvas with the corresponding endpoint unbound.
func (s *Scene) RemoveVertex(v domain.Vertex) error {
	if v == nil {
		return ErrNilVertex
	}
	if s.dispatching {
		return ErrReentrantMutation
	}

	key := v.Key()
	e, ok := s.vertices[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVertex, key)
	}

	for _, ek := range s.edgeOrder {
		edge := s.edges[ek]
		if edge.source != nil && edge.source.Key() == key {
			s.bindSource(edge, nil)
		}
		if edge.target != nil && edge.target.Key() == key {
			s.bindTarget(edge, nil)
		}
	}

	if e.widget != nil {
		s.detach(e.widget)
	}
	delete(s.vertices, key)
	s.vertexOrder = slices.DeleteFunc(s.vertexOrder, func(k domain.VertexKey) bool { return k == key })

	s.pruneSelection(func(el domain.Element) bool {
		vv, ok := el.(domain.Vertex)
		return ok && vv.Key() == key
	})
	return nil
}

// RemoveEdge deletes the edge and destroys its connection widget
func (s *Scene) RemoveEdge(key domain.EdgeKey) error {
	if s.dispatching {
		return ErrReentrantMutation
	}

	e, ok := s.edges[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEdge, key)
	}

	e.widget.SetSourceAnchor(nil)
	e.widget.SetTargetAnchor(nil)
	s.detach(e.widget)
	delete(s.edges, key)
	s.edgeOrder = slices.DeleteFunc(s.edgeOrder, func(k domain.EdgeKey) bool { return k == key })

	s.pruneSelection(func(el domain.Element) bool {
		ek, ok := el.(domain.EdgeKey)
		return ok && ek == key
	})
	return nil
}

// Clear removes every vertex, then every edge
func (s *Scene) Clear() error {
	if s.dispatching {
		return ErrReentrantMutation
	}
	for _, key := range slices.Clone(s.vertexOrder) {
		if err := s.RemoveVertex(s.vertices[key].vertex); err != nil {
			return err
		}
	}
	for _, key := range slices.Clone(s.edgeOrder) {
		if err := s.RemoveEdge(key); err != nil {
			return err
		}
	}
	return nil
}

// SetSourceAnchor rebinds the edge source to the current widget of v. A nil
// v, or a v without a widget, leaves the source unbound.
func (s *Scene) SetSourceAnchor(key domain.EdgeKey, v domain.Vertex) error {
	if s.dispatching {
		return ErrReentrantMutation
	}
	e, ok := s.edges[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEdge, key)
	}
	s.bindSource(e, v)
	return nil
}

// SetTargetAnchor rebinds the edge target; see SetSourceAnchor
func (s *Scene) SetTargetAnchor(key domain.EdgeKey, v domain.Vertex) error {
	if s.dispatching {
		return ErrReentrantMutation
	}
	e, ok := s.edges[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEdge, key)
	}
	s.bindTarget(e, v)
	return nil
}

// FindWidget returns the widget of v, or nil
func (s *Scene) FindWidget(v domain.Vertex) widget.Widget {
	if v == nil {
		return nil
	}
	if e, ok := s.vertices[v.Key()]; ok {
		return e.widget
	}
	return nil
}

// FindEdgeWidget returns the connection widget of key, or nil
func (s *Scene) FindEdgeWidget(key domain.EdgeKey) *widget.ConnectionWidget {
	if e, ok := s.edges[key]; ok {
		return e.widget
	}
	return nil
}

// FindVertex returns the vertex owning w
func (s *Scene) FindVertex(w widget.Widget) (domain.Vertex, bool) {
	v, ok := s.owners[w].(domain.Vertex)
	return v, ok
}

// FindEdge returns the edge key owning w
func (s *Scene) FindEdge(w widget.Widget) (domain.EdgeKey, bool) {
	k, ok := s.owners[w].(domain.EdgeKey)
	return k, ok
}

// Vertex returns the registered vertex with key
func (s *Scene) Vertex(key domain.VertexKey) (domain.Vertex, bool) {
	e, ok := s.vertices[key]
	if !ok {
		return nil, false
	}
	return e.vertex, true
}

// HasVertex reports whether v is registered
func (s *Scene) HasVertex(v domain.Vertex) bool {
	_, ok := s.vertices[v.Key()]
	return ok
}

// HasEdge reports whether key is registered
func (s *Scene) HasEdge(key domain.EdgeKey) bool {
	_, ok := s.edges[key]
	return ok
}

// EdgeSource returns the source vertex of the edge, nil when unset
func (s *Scene) EdgeSource(key domain.EdgeKey) domain.Vertex {
	if e, ok := s.edges[key]; ok {
		return e.source
	}
	return nil
}

// EdgeTarget returns the target vertex of the edge, nil when unset
func (s *Scene) EdgeTarget(key domain.EdgeKey) domain.Vertex {
	if e, ok := s.edges[key]; ok {
		return e.target
	}
	return nil
}

// Vertices returns registered vertices in insertion order
func (s *Scene) Vertices() []domain.Vertex {
	out := make([]domain.Vertex, 0, len(s.vertexOrder))
	for _, key := range s.vertexOrder {
		out = append(out, s.vertices[key].vertex)
	}
	return out
}

// Edges returns registered edge keys in insertion order
func (s *Scene) Edges() []domain.EdgeKey {
	return slices.Clone(s.edgeOrder)
}

// Widgets returns the widgets on layer in insertion order
func (s *Scene) Widgets(layer domain.Layer) []widget.Widget {
	if !layer.Valid() {
		return nil
	}
	return slices.Clone(s.layers[layer])
}

// WidgetCount returns the number of widgets across all layers
func (s *Scene) WidgetCount() int {
	n := 0
	for _, l := range s.layers {
		n += len(l)
	}
	return n
}

// AddObjectListener registers fn for object-added notifications
func (s *Scene) AddObjectListener(fn func(ObjectAdded)) ListenerID {
	s.nextListenerID++
	s.objectListeners = append(s.objectListeners, objectListener{id: s.nextListenerID, fn: fn})
	return s.nextListenerID
}

// RemoveObjectListener unregisters an object-added listener
func (s *Scene) RemoveObjectListener(id ListenerID) {
	s.objectListeners = slices.DeleteFunc(s.objectListeners, func(l objectListener) bool { return l.id == id })
}

func (s *Scene) attach(layer domain.Layer, w widget.Widget, owner domain.Element) {
	s.layers[layer] = append(s.layers[layer], w)
	s.owners[w] = owner
}

func (s *Scene) detach(w widget.Widget) {
	layer := w.Layer()
	s.layers[layer] = slices.DeleteFunc(s.layers[layer], func(x widget.Widget) bool { return x == w })
	delete(s.owners, w)
	w.Destroy()
}

func (s *Scene) bindSource(e *edgeEntry, v domain.Vertex) {
	e.source = v
	e.widget.SetSourceAnchor(widget.NewAnchor(s.FindWidget(v)))
}

func (s *Scene) bindTarget(e *edgeEntry, v domain.Vertex) {
	e.target = v
	e.widget.SetTargetAnchor(widget.NewAnchor(s.FindWidget(v)))
}

func (s *Scene) notifyObjectAdded(ev ObjectAdded) {
	s.dispatching = true
	defer func() { s.dispatching = false }()
	for _, l := range slices.Clone(s.objectListeners) {
		l.fn(ev)
	}
}
