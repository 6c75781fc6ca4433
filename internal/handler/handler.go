package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"topoview/internal/canvas"
	"topoview/internal/codec"
	"topoview/internal/domain"
	"topoview/internal/render"
	"topoview/internal/service"
	"topoview/internal/widget"
)

// ViewHandler handles view API requests
type ViewHandler struct {
	svc     *service.ViewService
	scanner service.Scanner
	targets []string
	logger  *zap.Logger
}

// NewViewHandler creates a new view handler
func NewViewHandler(svc *service.ViewService, logger *zap.Logger) *ViewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewHandler{svc: svc, logger: logger}
}

// SetScanner enables the discovery endpoint. targets are scanned when a
// request names none.
func (h *ViewHandler) SetScanner(s service.Scanner, targets []string) {
	h.scanner = s
	h.targets = targets
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ViewListing combines stored and open views
type ViewListing struct {
	Stored []viewSummary `json:"stored"`
	Open   []string      `json:"open"`
}

type viewSummary struct {
	Name       string `json:"name"`
	Format     string `json:"format"`
	Digest     string `json:"digest"`
	Size       int    `json:"size"`
	Compressed int    `json:"compressed"`
	UpdatedAt  string `json:"updated_at"`
}

// ListViews returns stored and open views
func (h *ViewHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	stored, err := h.svc.ListViews(r.Context())
	if err != nil {
		h.fail(w, "Failed to list views", err)
		return
	}
	open, err := h.svc.OpenViews(r.Context())
	if err != nil {
		h.fail(w, "Failed to list views", err)
		return
	}

	resp := ViewListing{Stored: make([]viewSummary, 0, len(stored)), Open: open}
	for _, v := range stored {
		resp.Stored = append(resp.Stored, viewSummary{
			Name:       v.Name,
			Format:     v.Format,
			Digest:     v.Digest,
			Size:       v.Size,
			Compressed: v.Compressed,
			UpdatedAt:  v.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	if resp.Open == nil {
		resp.Open = []string{}
	}
	h.writeJSON(w, resp, http.StatusOK)
}

// GetView returns the stored document of a view. The digest is the ETag.
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.StoredView(r.Context(), viewName(r))
	if err != nil {
		h.fail(w, "Failed to get view", err)
		return
	}

	etag := `"` + v.Digest + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType(v.Format))
	w.Write(v.Body)
}

// DeleteView closes a view and removes its stored copy
func (h *ViewHandler) DeleteView(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteView(r.Context(), viewName(r)); err != nil {
		h.fail(w, "Failed to delete view", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenView opens a view for editing
func (h *ViewHandler) OpenView(w http.ResponseWriter, r *http.Request) {
	name := viewName(r)
	if err := h.svc.Open(r.Context(), name); err != nil {
		h.fail(w, "Failed to open view", err)
		return
	}
	h.writeState(w, r, name, http.StatusOK)
}

// CloseView discards an open view without saving
func (h *ViewHandler) CloseView(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Close(r.Context(), viewName(r)); err != nil {
		h.fail(w, "Failed to close view", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetState describes every vertex and edge of an open view
func (h *ViewHandler) GetState(w http.ResponseWriter, r *http.Request) {
	h.writeState(w, r, viewName(r), http.StatusOK)
}

// ExportView writes an open view in the requested format (xml by default)
func (h *ViewHandler) ExportView(w http.ResponseWriter, r *http.Request) {
	name := viewName(r)
	format := queryFormat(r)
	c, err := h.svc.Codecs().Get(format)
	if err != nil {
		h.fail(w, "Failed to export view", err)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), name, format, &buf); err != nil {
		h.fail(w, "Failed to export view", err)
		return
	}
	w.Header().Set("Content-Type", contentType(c.Format()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", name, c.Format()))
	buf.WriteTo(w)
}

// ImportView replaces the content of a view with the request body
func (h *ViewHandler) ImportView(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Import(r.Context(), viewName(r), queryFormat(r), r.Body)
	if err != nil {
		h.fail(w, "Failed to import view", err)
		return
	}
	h.writeJSON(w, report, http.StatusOK)
}

// SaveView stores an open view
func (h *ViewHandler) SaveView(w http.ResponseWriter, r *http.Request) {
	changed, err := h.svc.Save(r.Context(), viewName(r), queryFormat(r))
	if err != nil {
		h.fail(w, "Failed to save view", err)
		return
	}
	h.writeJSON(w, map[string]bool{"changed": changed}, http.StatusOK)
}

// RenderView writes a PNG image of an open view
func (h *ViewHandler) RenderView(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.Render(r.Context(), viewName(r), &buf); err != nil {
		h.fail(w, "Failed to render view", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	buf.WriteTo(w)
}

// AddVertexRequest places one vertex. Kind selects which fields apply.
type AddVertexRequest struct {
	Kind     domain.VertexKind `json:"kind"`
	ObjectID int64             `json:"object_id,omitempty"`
	Text     string            `json:"text,omitempty"`
	X        int               `json:"x"`
	Y        int               `json:"y"`
	W        int               `json:"w,omitempty"`
	H        int               `json:"h,omitempty"`
}

// AddVertex places an object, cloud, frame or label on an open view
func (h *ViewHandler) AddVertex(w http.ResponseWriter, r *http.Request) {
	var req AddVertexRequest
	if !h.decode(w, r, &req) {
		return
	}

	name := viewName(r)
	at := domain.Point{X: req.X, Y: req.Y}
	var (
		info *service.ElementInfo
		err  error
	)
	switch req.Kind {
	case domain.VertexKindObject:
		info, err = h.svc.AddObject(r.Context(), name, req.ObjectID, at)
	case domain.VertexKindCloud:
		info, err = h.svc.AddCloud(r.Context(), name, req.Text, at)
	case domain.VertexKindFrame:
		info, err = h.svc.AddFrame(r.Context(), name, req.Text, domain.Rect{X: req.X, Y: req.Y, W: req.W, H: req.H})
	case domain.VertexKindLabel:
		info, err = h.svc.AddLabel(r.Context(), name, req.Text, at)
	default:
		h.writeError(w, "Invalid vertex kind", string(req.Kind), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.fail(w, "Failed to add vertex", err)
		return
	}
	h.writeJSON(w, info, http.StatusCreated)
}

// RemoveVertex removes a vertex and unbinds its edges
func (h *ViewHandler) RemoveVertex(w http.ResponseWriter, r *http.Request) {
	key, ok := h.vertexKey(w, r)
	if !ok {
		return
	}
	if err := h.svc.RemoveVertex(r.Context(), viewName(r), key); err != nil {
		h.fail(w, "Failed to remove vertex", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveVertex moves a vertex to a new location
func (h *ViewHandler) MoveVertex(w http.ResponseWriter, r *http.Request) {
	key, ok := h.vertexKey(w, r)
	if !ok {
		return
	}
	var to domain.Point
	if !h.decode(w, r, &to) {
		return
	}
	if err := h.svc.Move(r.Context(), viewName(r), key, to); err != nil {
		h.fail(w, "Failed to move vertex", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResizeVertex resizes a frame
func (h *ViewHandler) ResizeVertex(w http.ResponseWriter, r *http.Request) {
	key, ok := h.vertexKey(w, r)
	if !ok {
		return
	}
	var size domain.Size
	if !h.decode(w, r, &size) {
		return
	}
	if err := h.svc.Resize(r.Context(), viewName(r), key, size); err != nil {
		h.fail(w, "Failed to resize vertex", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EditText replaces the text of a node, frame or label
func (h *ViewHandler) EditText(w http.ResponseWriter, r *http.Request) {
	key, ok := h.vertexKey(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.EditText(r.Context(), viewName(r), key, req.Text); err != nil {
		h.fail(w, "Failed to edit text", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ContextMenu returns the popup menu of a vertex
func (h *ViewHandler) ContextMenu(w http.ResponseWriter, r *http.Request) {
	key, ok := h.vertexKey(w, r)
	if !ok {
		return
	}
	items, err := h.svc.ContextMenu(r.Context(), viewName(r), key)
	if err != nil {
		h.fail(w, "Failed to build menu", err)
		return
	}
	if items == nil {
		items = []canvas.MenuItem{}
	}
	h.writeJSON(w, items, http.StatusOK)
}

// ConnectRequest joins two vertices
type ConnectRequest struct {
	Source domain.VertexKey `json:"source"`
	Target domain.VertexKey `json:"target"`
}

// Connect creates an edge between two vertices
func (h *ViewHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !h.decode(w, r, &req) {
		return
	}
	edge, err := h.svc.Connect(r.Context(), viewName(r), req.Source, req.Target)
	if err != nil {
		h.fail(w, "Failed to connect", err)
		return
	}
	h.writeJSON(w, edge, http.StatusCreated)
}

// RemoveEdge removes an edge
func (h *ViewHandler) RemoveEdge(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveEdge(r.Context(), viewName(r), edgeKey(r)); err != nil {
		h.fail(w, "Failed to remove edge", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetControlPoints replaces the bend points of an edge
func (h *ViewHandler) SetControlPoints(w http.ResponseWriter, r *http.Request) {
	var points []domain.Point
	if !h.decode(w, r, &points) {
		return
	}
	if err := h.svc.SetControlPoints(r.Context(), viewName(r), edgeKey(r), points); err != nil {
		h.fail(w, "Failed to set control points", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectRequest replaces the selection
type SelectRequest struct {
	Vertices []domain.VertexKey `json:"vertices"`
	Edges    []domain.EdgeKey   `json:"edges"`
}

// Select replaces the selection of an open view
func (h *ViewHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.Select(r.Context(), viewName(r), req.Vertices, req.Edges); err != nil {
		h.fail(w, "Failed to select", err)
		return
	}
	h.writeState(w, r, viewName(r), http.StatusOK)
}

// SelectedObject returns the object last published by the selection
// broadcaster, or 204 when none has been.
func (h *ViewHandler) SelectedObject(w http.ResponseWriter, r *http.Request) {
	ref, ok, err := h.svc.SelectedObject(r.Context(), viewName(r))
	if err != nil {
		h.fail(w, "Failed to get selected object", err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, ref, http.StatusOK)
}

// ListObjects returns the object inventory
func (h *ViewHandler) ListObjects(w http.ResponseWriter, r *http.Request) {
	refs, err := h.svc.ListObjects(r.Context())
	if err != nil {
		h.fail(w, "Failed to list objects", err)
		return
	}
	if refs == nil {
		refs = []domain.ObjectRef{}
	}
	h.writeJSON(w, refs, http.StatusOK)
}

// StoreObjects inserts or updates inventory objects
func (h *ViewHandler) StoreObjects(w http.ResponseWriter, r *http.Request) {
	var refs []domain.ObjectRef
	if !h.decode(w, r, &refs) {
		return
	}
	if err := h.svc.StoreObjects(r.Context(), refs); err != nil {
		h.writeError(w, "Failed to store objects", err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DiscoverRequest names the targets to scan
type DiscoverRequest struct {
	Targets []string `json:"targets"`
}

// Discover scans targets and stores what it finds
func (h *ViewHandler) Discover(w http.ResponseWriter, r *http.Request) {
	if h.scanner == nil {
		h.writeError(w, "Discovery not configured", "", http.StatusServiceUnavailable)
		return
	}
	var req DiscoverRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	targets := req.Targets
	if len(targets) == 0 {
		targets = h.targets
	}
	if len(targets) == 0 {
		h.writeError(w, "No targets", "set targets in the request or the config", http.StatusBadRequest)
		return
	}

	refs, err := h.svc.Discover(r.Context(), h.scanner, targets)
	if err != nil {
		h.fail(w, "Discovery failed", err)
		return
	}
	h.writeJSON(w, refs, http.StatusOK)
}

// Health reports liveness
func (h *ViewHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Helper methods

func (h *ViewHandler) writeState(w http.ResponseWriter, r *http.Request, name string, status int) {
	state, err := h.svc.State(r.Context(), name)
	if err != nil {
		h.fail(w, "Failed to get view state", err)
		return
	}
	h.writeJSON(w, state, status)
}

func (h *ViewHandler) vertexKey(w http.ResponseWriter, r *http.Request) (domain.VertexKey, bool) {
	key, err := domain.ParseVertexKey(pathParam(r, "key"))
	if err != nil {
		h.writeError(w, "Invalid vertex key", err.Error(), http.StatusBadRequest)
		return domain.VertexKey{}, false
	}
	return key, true
}

func (h *ViewHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// fail maps service errors onto status codes
func (h *ViewHandler) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	h.writeError(w, msg, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrViewNotOpen),
		errors.Is(err, service.ErrViewNotFound),
		errors.Is(err, service.ErrObjectNotFound),
		errors.Is(err, canvas.ErrUnknownVertex),
		errors.Is(err, canvas.ErrUnknownEdge),
		errors.Is(err, canvas.ErrUnknownElement):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidViewName),
		errors.Is(err, codec.ErrUnknownFormat),
		errors.Is(err, codec.ErrMalformedDocument),
		errors.Is(err, codec.ErrUnsupportedVersion),
		errors.Is(err, domain.ErrInvalidVertexKey),
		errors.Is(err, canvas.ErrInvalidTarget),
		errors.Is(err, widget.ErrControlPointIndex):
		return http.StatusBadRequest
	case errors.Is(err, widget.ErrActionDisabled):
		return http.StatusForbidden
	case errors.Is(err, canvas.ErrDuplicateEdge),
		errors.Is(err, codec.ErrUnresolvedAnchor):
		return http.StatusConflict
	case errors.Is(err, render.ErrEmptyView):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrServiceStopped):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *ViewHandler) writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *ViewHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}

func viewName(r *http.Request) string {
	return pathParam(r, "name")
}

func edgeKey(r *http.Request) domain.EdgeKey {
	return domain.EdgeKey(pathParam(r, "key"))
}

func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func queryFormat(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	return "xml"
}

func contentType(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "yaml":
		return "application/x-yaml"
	}
	return "application/xml"
}
