package icons

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuiltinIcons(t *testing.T) {
	assert.Equal(t, image.Rect(0, 0, IconSize, IconSize), Generic().Bounds())
	assert.Equal(t, image.Rect(0, 0, IconSize, IconSize), Cloud().Bounds())
	assert.Same(t, Generic(), Generic())
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "Router.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 24, 24))))
	require.NoError(t, f.Close())

	p := NewFileProvider(dir, zap.NewNop())

	t.Run("loads class icon", func(t *testing.T) {
		icon := p.ClassIcon("Router")
		require.NotNil(t, icon)
		assert.Equal(t, 24, icon.Bounds().Dx())
	})

	t.Run("missing class returns nil", func(t *testing.T) {
		assert.Nil(t, p.ClassIcon("Switch"))
	})

	t.Run("corrupt file returns nil", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Port.png"), []byte("not a png"), 0o644))
		assert.Nil(t, p.ClassIcon("Port"))
	})

	t.Run("empty directory disables lookup", func(t *testing.T) {
		assert.Nil(t, NewFileProvider("", nil).ClassIcon("Router"))
	})
}
