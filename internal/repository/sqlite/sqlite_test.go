package sqlite

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topoview/internal/domain"
)

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

const viewBody = `<view version="1.0"><class>TopologyView</class><nodes><node x="10" y="20" class="Router">100</node></nodes></view>`

func TestSaveAndGetView(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	changed, err := repo.SaveView(ctx, "core", "xml", []byte(viewBody))
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := repo.GetView(ctx, "core")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "core", v.Name)
	assert.Equal(t, "xml", v.Format)
	assert.Equal(t, viewBody, string(v.Body))
	assert.Equal(t, Digest([]byte(viewBody)), v.Digest)
	assert.Len(t, v.Digest, 64)
}

func TestSaveViewDetectsUnchangedBody(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SaveView(ctx, "core", "xml", []byte(viewBody))
	require.NoError(t, err)

	changed, err := repo.SaveView(ctx, "core", "xml", []byte(viewBody))
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = repo.SaveView(ctx, "core", "xml", []byte(viewBody+" "))
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestGetViewNotFound(t *testing.T) {
	repo := newTestRepo(t)
	v, err := repo.GetView(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestListAndDeleteViews(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	big := bytes.Repeat([]byte("<node/>"), 1000)
	_, err := repo.SaveView(ctx, "b", "xml", big)
	require.NoError(t, err)
	_, err = repo.SaveView(ctx, "a", "yaml", []byte("nodes: []\n"))
	require.NoError(t, err)

	views, err := repo.ListViews(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "a", views[0].Name)
	assert.Equal(t, "yaml", views[0].Format)
	assert.Equal(t, "b", views[1].Name)
	assert.Equal(t, len(big), views[1].Size)
	assert.Less(t, views[1].Compressed, views[1].Size)

	require.NoError(t, repo.DeleteView(ctx, "b"))
	require.NoError(t, repo.DeleteView(ctx, "b"))

	views, err = repo.ListViews(ctx)
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestObjects(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertObject(ctx, domain.NewObjectRef(2, "Switch", "sw1")))
	require.NoError(t, repo.UpsertObjects(ctx, []domain.ObjectRef{
		domain.NewObjectRef(1, "Router", "r1"),
		domain.NewObjectRef(2, "Switch", "sw1-renamed"),
	}))

	ref, err := repo.GetObject(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "sw1-renamed", ref.Name)

	missing, err := repo.GetObject(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	refs, err := repo.ListObjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ObjectRef{
		domain.NewObjectRef(1, "Router", "r1"),
		domain.NewObjectRef(2, "Switch", "sw1-renamed"),
	}, refs)
}
