package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"regexp"
	"sort"
	"sync"

	"go.uber.org/zap"

	"topoview/internal/canvas"
	"topoview/internal/codec"
	"topoview/internal/domain"
	"topoview/internal/metrics"
	"topoview/internal/render"
	"topoview/internal/repository"
	"topoview/internal/widget"
)

var (
	// ErrViewNotOpen is returned for operations on a view that is not open
	ErrViewNotOpen = errors.New("view not open")
	// ErrViewNotFound is returned when a stored view does not exist
	ErrViewNotFound = errors.New("view not found")
	// ErrInvalidViewName is returned for names outside [A-Za-z0-9._-]
	ErrInvalidViewName = errors.New("invalid view name")
	// ErrServiceStopped is returned after Shutdown
	ErrServiceStopped = errors.New("view service stopped")
	// ErrObjectNotFound is returned for unknown inventory objects
	ErrObjectNotFound = codec.ErrObjectNotFound
)

var viewNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateViewName checks that name can be used as a view name
func ValidateViewName(name string) error {
	if !viewNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidViewName, name)
	}
	return nil
}

type openView struct {
	name        string
	scene       *canvas.Scene
	lookup      *canvas.Lookup
	broadcaster *canvas.Broadcaster
}

// ViewService owns the open canvases. Scenes are not safe for concurrent
// use, so every scene access runs on the service's dispatch goroutine.
type ViewService struct {
	repo    repository.Repository
	bus     *EventBus
	codecs  *codec.Registry
	icons   canvas.IconProvider
	menus   canvas.MenuProvider
	metrics *metrics.Collector
	logger  *zap.Logger
	render  render.Options

	ops      chan func()
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// owned by the dispatch goroutine
	views map[string]*openView
}

// Option configures a ViewService
type Option func(*ViewService)

// WithIconProvider sets the class icon source
func WithIconProvider(p canvas.IconProvider) Option {
	return func(s *ViewService) {
		s.icons = p
	}
}

// WithMenuProvider replaces the default context menus
func WithMenuProvider(p canvas.MenuProvider) Option {
	return func(s *ViewService) {
		s.menus = p
	}
}

// WithMetrics records canvas and document metrics
func WithMetrics(c *metrics.Collector) Option {
	return func(s *ViewService) {
		s.metrics = c
	}
}

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) Option {
	return func(s *ViewService) {
		s.logger = l
	}
}

// WithRenderOptions sets PNG rendering options
func WithRenderOptions(o render.Options) Option {
	return func(s *ViewService) {
		s.render = o
	}
}

// NewViewService creates a view service and starts its dispatch goroutine
func NewViewService(repo repository.Repository, eventBus *EventBus, opts ...Option) *ViewService {
	s := &ViewService{
		repo:   repo,
		bus:    eventBus,
		codecs: codec.NewRegistry(),
		menus:  canvas.MenuProviderFunc(DefaultMenu),
		logger: zap.NewNop(),
		render: render.DefaultOptions(),
		ops:    make(chan func()),
		quit:   make(chan struct{}),
		views:  make(map[string]*openView),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.loop()
	return s
}

// Shutdown stops the dispatch goroutine. Open views are discarded.
func (s *ViewService) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.quit)
	})
	s.wg.Wait()
}

// Codecs returns the codec registry
func (s *ViewService) Codecs() *codec.Registry {
	return s.codecs
}

func (s *ViewService) loop() {
	defer s.wg.Done()
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.quit:
			return
		}
	}
}

// do runs fn on the dispatch goroutine and waits for its result
func (s *ViewService) do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	errc := make(chan error, 1)
	op := func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in view operation", zap.Any("panic", r))
				errc <- fmt.Errorf("internal error: %v", r)
			}
		}()
		errc <- fn()
	}

	select {
	case s.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.quit:
		return ErrServiceStopped
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ViewService) withView(ctx context.Context, name string, fn func(v *openView) error) error {
	return s.do(ctx, func() error {
		v, ok := s.views[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrViewNotOpen, name)
		}
		return fn(v)
	})
}

func (s *ViewService) newOpenView(name string) *openView {
	scene := canvas.NewScene(
		canvas.WithPolicy(canvas.NewPolicy(s.icons)),
		canvas.WithLogger(s.logger.With(zap.String("view", name))),
		canvas.WithMenuProvider(s.menus),
	)
	lookup := canvas.NewLookup()
	v := &openView{
		name:        name,
		scene:       scene,
		lookup:      lookup,
		broadcaster: canvas.NewBroadcaster(scene, lookup),
	}

	scene.AddObjectListener(func(ev canvas.ObjectAdded) {
		if ev.Widget != nil {
			s.metrics.RecordWidget(ev.Widget.Layer().String())
		}
		s.bus.Publish(Event{Type: EventObjectAdded, View: name, Payload: describeVertex(ev.Vertex, ev.Widget)})
	})
	scene.AddSelectionListener(func(ev canvas.SelectionChanged) {
		s.bus.Publish(Event{Type: EventSelectionChanged, View: name, Payload: elementKeys(ev.Current)})
	})

	return v
}

// IsOpen reports whether name is open
func (s *ViewService) IsOpen(ctx context.Context, name string) (bool, error) {
	var open bool
	err := s.do(ctx, func() error {
		_, open = s.views[name]
		return nil
	})
	return open, err
}

// OpenViews returns the names of open views, sorted
func (s *ViewService) OpenViews(ctx context.Context) ([]string, error) {
	var names []string
	err := s.do(ctx, func() error {
		for name := range s.views {
			names = append(names, name)
		}
		return nil
	})
	sort.Strings(names)
	return names, err
}

// Open opens a view, restoring it from the store when it has been saved.
// Opening an open view is a no-op.
func (s *ViewService) Open(ctx context.Context, name string) error {
	if err := ValidateViewName(name); err != nil {
		return err
	}
	open, err := s.IsOpen(ctx, name)
	if err != nil || open {
		return err
	}

	var doc *domain.ViewDocument
	stored, err := s.repo.GetView(ctx, name)
	if err != nil {
		return err
	}
	if stored != nil {
		c, err := s.codecs.Get(stored.Format)
		if err != nil {
			return err
		}
		if doc, err = c.Parse(bytes.NewReader(stored.Body)); err != nil {
			return fmt.Errorf("view %s: %w", name, err)
		}
	}

	resolver, err := s.objectResolver(ctx)
	if err != nil {
		return err
	}

	return s.do(ctx, func() error {
		if _, ok := s.views[name]; ok {
			return nil
		}
		v := s.newOpenView(name)
		if doc != nil {
			report, err := codec.Restore(v.scene, doc, resolver)
			if err != nil {
				v.broadcaster.Close()
				return fmt.Errorf("restore %s: %w", name, err)
			}
			s.logRestore(name, report)
		}
		s.views[name] = v
		s.metrics.SetOpenViews(len(s.views))
		s.bus.Publish(Event{Type: EventViewOpened, View: name})
		s.logger.Info("view opened", zap.String("view", name), zap.Bool("stored", doc != nil))
		return nil
	})
}

// Close discards an open view without saving it
func (s *ViewService) Close(ctx context.Context, name string) error {
	return s.withView(ctx, name, func(v *openView) error {
		v.broadcaster.Close()
		delete(s.views, name)
		s.metrics.SetOpenViews(len(s.views))
		s.bus.Publish(Event{Type: EventViewClosed, View: name})
		return nil
	})
}

// AddObject places a stored inventory object on a view
func (s *ViewService) AddObject(ctx context.Context, view string, id int64, at domain.Point) (*ElementInfo, error) {
	ref, err := s.repo.GetObject(ctx, id)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, fmt.Errorf("%w: %d", ErrObjectNotFound, id)
	}
	return s.addVertex(ctx, view, domain.NewObjectVertex(*ref), func(w widget.Widget) {
		w.SetLocation(at)
	})
}

// AddCloud places an ad-hoc cloud icon on a view
func (s *ViewService) AddCloud(ctx context.Context, view, text string, at domain.Point) (*ElementInfo, error) {
	return s.addVertex(ctx, view, domain.NewCloudVertex(text), func(w widget.Widget) {
		w.SetLocation(at)
	})
}

// AddFrame places a titled frame on a view
func (s *ViewService) AddFrame(ctx context.Context, view, title string, bounds domain.Rect) (*ElementInfo, error) {
	return s.addVertex(ctx, view, domain.NewFrameVertex(title), func(w widget.Widget) {
		w.SetLocation(bounds.Location())
		if f, ok := w.(*widget.FrameWidget); ok && bounds.W > 0 && bounds.H > 0 {
			f.SetSize(domain.Size{W: bounds.W, H: bounds.H})
		}
	})
}

// AddLabel places a free text label on a view
func (s *ViewService) AddLabel(ctx context.Context, view, text string, at domain.Point) (*ElementInfo, error) {
	return s.addVertex(ctx, view, domain.NewLabelVertex(text), func(w widget.Widget) {
		w.SetLocation(at)
	})
}

func (s *ViewService) addVertex(ctx context.Context, view string, vx domain.Vertex, place func(widget.Widget)) (*ElementInfo, error) {
	var info ElementInfo
	err := s.withView(ctx, view, func(v *openView) error {
		w, err := v.scene.AddVertex(vx)
		if err != nil {
			return err
		}
		if w != nil {
			place(w)
		}
		info = describeVertex(vx, w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Connect joins two vertices with a new edge, as the connect gesture does
func (s *ViewService) Connect(ctx context.Context, view string, source, target domain.VertexKey) (*EdgeInfo, error) {
	var info EdgeInfo
	err := s.withView(ctx, view, func(v *openView) error {
		src, err := vertex(v.scene, source)
		if err != nil {
			return err
		}
		dst, err := vertex(v.scene, target)
		if err != nil {
			return err
		}
		key, err := v.scene.Connect(src, dst)
		if err != nil {
			return err
		}
		info = describeEdge(v.scene, key)
		s.bus.Publish(Event{Type: EventEdgeAdded, View: view, Payload: info})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// SetControlPoints replaces the control points of an edge
func (s *ViewService) SetControlPoints(ctx context.Context, view string, key domain.EdgeKey, points []domain.Point) error {
	return s.withView(ctx, view, func(v *openView) error {
		c := v.scene.FindEdgeWidget(key)
		if c == nil {
			return fmt.Errorf("%w: %s", canvas.ErrUnknownEdge, key)
		}
		c.SetControlPoints(points)
		return nil
	})
}

// RemoveVertex removes a vertex from a view
func (s *ViewService) RemoveVertex(ctx context.Context, view string, key domain.VertexKey) error {
	return s.withView(ctx, view, func(v *openView) error {
		vx, err := vertex(v.scene, key)
		if err != nil {
			return err
		}
		if err := v.scene.RemoveVertex(vx); err != nil {
			return err
		}
		s.metrics.RecordVertexRemoved()
		s.bus.Publish(Event{Type: EventVertexRemoved, View: view, Payload: map[string]string{"key": key.String()}})
		return nil
	})
}

// RemoveEdge removes an edge from a view
func (s *ViewService) RemoveEdge(ctx context.Context, view string, key domain.EdgeKey) error {
	return s.withView(ctx, view, func(v *openView) error {
		if err := v.scene.RemoveEdge(key); err != nil {
			return err
		}
		s.bus.Publish(Event{Type: EventEdgeRemoved, View: view, Payload: map[string]string{"key": string(key)}})
		return nil
	})
}

// Move is the move gesture
func (s *ViewService) Move(ctx context.Context, view string, key domain.VertexKey, to domain.Point) error {
	return s.withView(ctx, view, func(v *openView) error {
		vx, err := vertex(v.scene, key)
		if err != nil {
			return err
		}
		return v.scene.MoveVertex(vx, to)
	})
}

// Resize is the resize gesture on a frame
func (s *ViewService) Resize(ctx context.Context, view string, key domain.VertexKey, size domain.Size) error {
	return s.withView(ctx, view, func(v *openView) error {
		vx, err := vertex(v.scene, key)
		if err != nil {
			return err
		}
		frame, ok := vx.(domain.FrameVertex)
		if !ok {
			return widget.ErrActionDisabled
		}
		return v.scene.ResizeFrame(frame, size)
	})
}

// EditText is the inline edit gesture
func (s *ViewService) EditText(ctx context.Context, view string, key domain.VertexKey, text string) error {
	return s.withView(ctx, view, func(v *openView) error {
		vx, err := vertex(v.scene, key)
		if err != nil {
			return err
		}
		return v.scene.EditText(vx, text)
	})
}

// Select replaces the selection of a view
func (s *ViewService) Select(ctx context.Context, view string, vertices []domain.VertexKey, edges []domain.EdgeKey) error {
	return s.withView(ctx, view, func(v *openView) error {
		items := make([]domain.Element, 0, len(vertices)+len(edges))
		for _, key := range vertices {
			vx, err := vertex(v.scene, key)
			if err != nil {
				return err
			}
			items = append(items, vx)
		}
		for _, key := range edges {
			items = append(items, key)
		}
		return v.scene.Select(items...)
	})
}

// SelectedObject returns the inventory object last selected on its own
func (s *ViewService) SelectedObject(ctx context.Context, view string) (domain.ObjectRef, bool, error) {
	var lookup *canvas.Lookup
	err := s.withView(ctx, view, func(v *openView) error {
		lookup = v.lookup
		return nil
	})
	if err != nil {
		return domain.ObjectRef{}, false, err
	}
	ref, ok := lookup.Current()
	return ref, ok, nil
}

// ContextMenu returns the context menu of a vertex
func (s *ViewService) ContextMenu(ctx context.Context, view string, key domain.VertexKey) ([]canvas.MenuItem, error) {
	var items []canvas.MenuItem
	err := s.withView(ctx, view, func(v *openView) error {
		vx, err := vertex(v.scene, key)
		if err != nil {
			return err
		}
		items, err = v.scene.ContextMenu(vx)
		return err
	})
	return items, err
}

// State describes every vertex, edge and the selection of a view
func (s *ViewService) State(ctx context.Context, view string) (*ViewState, error) {
	var state *ViewState
	err := s.withView(ctx, view, func(v *openView) error {
		state = describeScene(view, v.scene)
		return nil
	})
	return state, err
}

// Snapshot captures a view as a document
func (s *ViewService) Snapshot(ctx context.Context, view string) (*domain.ViewDocument, error) {
	var doc *domain.ViewDocument
	err := s.withView(ctx, view, func(v *openView) error {
		var err error
		doc, err = codec.Snapshot(v.scene)
		return err
	})
	return doc, err
}

// Export writes a view in format
func (s *ViewService) Export(ctx context.Context, view, format string, w io.Writer) error {
	c, err := s.codecs.Get(format)
	if err != nil {
		return err
	}
	doc, err := s.Snapshot(ctx, view)
	if err == nil {
		err = c.Export(doc, w)
	}
	s.metrics.RecordExport(c.Format(), err)
	return err
}

// Import replaces the content of a view with a parsed document, opening the
// view when needed. The document is restored onto a fresh canvas that takes
// the view's place only on success; the stored copy is not touched until Save.
func (s *ViewService) Import(ctx context.Context, view, format string, r io.Reader) (*codec.RestoreReport, error) {
	if err := ValidateViewName(view); err != nil {
		return nil, err
	}
	c, err := s.codecs.Get(format)
	if err != nil {
		return nil, err
	}
	doc, err := c.Parse(r)
	if err != nil {
		return nil, err
	}
	if err := codec.Validate(doc); err != nil {
		return nil, err
	}
	resolver, err := s.objectResolver(ctx)
	if err != nil {
		return nil, err
	}

	var report *codec.RestoreReport
	err = s.do(ctx, func() error {
		next := s.newOpenView(view)
		var err error
		report, err = codec.Restore(next.scene, doc, resolver)
		if err != nil {
			next.broadcaster.Close()
			return err
		}
		if prev, ok := s.views[view]; ok {
			prev.broadcaster.Close()
		}
		s.views[view] = next
		s.metrics.SetOpenViews(len(s.views))
		s.logRestore(view, report)
		s.bus.Publish(Event{Type: EventViewImported, View: view, Payload: report})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Save stores a view in format. It reports whether the stored body changed.
func (s *ViewService) Save(ctx context.Context, view, format string) (bool, error) {
	var buf bytes.Buffer
	if err := s.Export(ctx, view, format, &buf); err != nil {
		return false, err
	}
	c, _ := s.codecs.Get(format)

	changed, err := s.repo.SaveView(ctx, view, c.Format(), buf.Bytes())
	if err != nil {
		return false, err
	}
	s.metrics.RecordSave(changed)
	if changed {
		s.bus.Publish(Event{Type: EventViewSaved, View: view, Payload: map[string]string{"format": c.Format()}})
	}
	s.logger.Info("view saved", zap.String("view", view), zap.String("format", c.Format()), zap.Bool("changed", changed))
	return changed, nil
}

// Render writes a PNG image of a view
func (s *ViewService) Render(ctx context.Context, view string, w io.Writer) error {
	var img image.Image
	err := s.withView(ctx, view, func(v *openView) error {
		var err error
		img, err = render.Image(v.scene, s.render)
		return err
	})
	if err != nil {
		return err
	}
	return render.EncodePNG(img, w)
}

// StoredView returns a saved view
func (s *ViewService) StoredView(ctx context.Context, name string) (*repository.View, error) {
	v, err := s.repo.GetView(ctx, name)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	return v, nil
}

// ListViews returns the saved views
func (s *ViewService) ListViews(ctx context.Context) ([]repository.ViewSummary, error) {
	return s.repo.ListViews(ctx)
}

// DeleteView closes a view and removes its stored copy
func (s *ViewService) DeleteView(ctx context.Context, name string) error {
	err := s.Close(ctx, name)
	if err != nil && !errors.Is(err, ErrViewNotOpen) {
		return err
	}
	if err := s.repo.DeleteView(ctx, name); err != nil {
		return err
	}
	s.bus.Publish(Event{Type: EventViewDeleted, View: name})
	return nil
}

func (s *ViewService) logRestore(view string, report *codec.RestoreReport) {
	fields := []zap.Field{
		zap.String("view", view),
		zap.Int("nodes", report.Nodes),
		zap.Int("icons", report.Icons),
		zap.Int("edges", report.Edges),
	}
	if len(report.Skipped) > 0 || len(report.Dangling) > 0 {
		s.logger.Warn("view restored with gaps", append(fields,
			zap.Strings("skipped", report.Skipped),
			zap.Strings("dangling", report.Dangling))...)
		return
	}
	s.logger.Debug("view restored", fields...)
}

func vertex(scene *canvas.Scene, key domain.VertexKey) (domain.Vertex, error) {
	v, ok := scene.Vertex(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", canvas.ErrUnknownVertex, key)
	}
	return v, nil
}
