package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topoview/internal/domain"
	"topoview/internal/metrics"
	"topoview/internal/repository/sqlite"
	"topoview/internal/service"
)

type fakeScanner struct {
	refs    []domain.ObjectRef
	targets []string
}

func (f *fakeScanner) Scan(_ context.Context, targets []string) ([]domain.ObjectRef, error) {
	f.targets = targets
	return f.refs, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeScanner, *metrics.Collector) {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.UpsertObjects(context.Background(), []domain.ObjectRef{
		domain.NewObjectRef(1, "Router", "r1"),
		domain.NewObjectRef(2, "Switch", "s1"),
	}))

	svc := service.NewViewService(repo, service.NewEventBus())
	m := metrics.NewCollector("test")
	scanner := &fakeScanner{refs: []domain.ObjectRef{domain.NewObjectRef(3, "Host", "h1")}}

	h := NewViewHandler(svc, nil)
	h.SetScanner(scanner, []string{"192.0.2.0/24"})
	srv := httptest.NewServer(NewRouter(h, RouterConfig{Metrics: m}))
	t.Cleanup(func() {
		srv.Close()
		svc.Shutdown()
		repo.Close()
	})
	return srv, scanner, m
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestViewLifecycle(t *testing.T) {
	srv, _, _ := newTestServer(t)
	base := srv.URL + "/api/views/core"

	resp := do(t, http.MethodPost, base+"/open", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, base+"/vertices", AddVertexRequest{Kind: domain.VertexKindObject, ObjectID: 1, X: 10, Y: 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	r1 := decodeBody[service.ElementInfo](t, resp)
	assert.Equal(t, "object:1", r1.Key.String())

	resp = do(t, http.MethodPost, base+"/vertices", AddVertexRequest{Kind: domain.VertexKindObject, ObjectID: 2, X: 100, Y: 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodPost, base+"/edges", ConnectRequest{
		Source: domain.VertexKey{Kind: domain.VertexKindObject, ID: "1"},
		Target: domain.VertexKey{Kind: domain.VertexKindObject, ID: "2"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodPut, base+"/vertices/object:1/location", domain.Point{X: 20, Y: 30})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodPut, base+"/selection", SelectRequest{Vertices: []domain.VertexKey{{Kind: domain.VertexKindObject, ID: "1"}}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeBody[service.ViewState](t, resp)
	assert.Equal(t, []string{"object:1"}, state.Selection)

	resp = do(t, http.MethodGet, base+"/selection/object", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "r1", decodeBody[domain.ObjectRef](t, resp).Name)

	resp = do(t, http.MethodGet, base+"/export?format=xml", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `<node x="20" y="30" class="Router">1</node>`)
	assert.Contains(t, string(body), `<edge id="" class=""`)

	resp = do(t, http.MethodPost, base+"/save?format=xml", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]bool{"changed": true}, decodeBody[map[string]bool](t, resp))

	resp = do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, _ := http.NewRequest(http.MethodGet, base, nil)
	req.Header.Set("If-None-Match", etag)
	cached, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	cached.Body.Close()
	assert.Equal(t, http.StatusNotModified, cached.StatusCode)

	resp = do(t, http.MethodGet, base+"/render.png", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp = do(t, http.MethodGet, srv.URL+"/api/views", nil)
	listing := decodeBody[ViewListing](t, resp)
	require.Len(t, listing.Stored, 1)
	assert.Equal(t, []string{"core"}, listing.Open)

	resp = do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrorStatuses(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"view not open", http.MethodGet, "/api/views/nope/state", nil, http.StatusNotFound},
		{"bad view name", http.MethodPost, "/api/views/.bad/open", nil, http.StatusBadRequest},
		{"bad vertex key", http.MethodDelete, "/api/views/nope/vertices/bogus", nil, http.StatusBadRequest},
		{"bad body", http.MethodPost, "/api/views/nope/edges", "{", http.StatusBadRequest},
		{"unknown format", http.MethodPut, "/api/views/x/import?format=toml", "", http.StatusBadRequest},
		{"malformed document", http.MethodPut, "/api/views/x/import?format=xml", "<view", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, decodeBody[ErrorResponse](t, resp).Error)
		})
	}
}

func TestImportAndMenu(t *testing.T) {
	srv, _, _ := newTestServer(t)
	base := srv.URL + "/api/views/imported"

	doc := `<view version="1.0"><class>TopologyView</class><nodes><node x="1" y="2" class="Router">1</node></nodes>` +
		`<icons></icons><edges></edges><labels></labels><poligons></poligons></view>`
	resp := do(t, http.MethodPut, base+"/import?format=xml", doc)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, base+"/vertices/object:1/menu", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decodeBody[[]map[string]string](t, resp)
	assert.NotEmpty(t, items)
}

func TestDiscoverUsesDefaultTargets(t *testing.T) {
	srv, scanner, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/discover", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"192.0.2.0/24"}, scanner.targets)

	resp = do(t, http.MethodGet, srv.URL+"/api/objects", nil)
	assert.Len(t, decodeBody[[]domain.ObjectRef](t, resp), 3)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	do(t, http.MethodGet, srv.URL+"/health", nil)
	resp := do(t, http.MethodGet, srv.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `test_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
