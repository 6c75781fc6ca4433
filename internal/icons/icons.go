// Package icons resolves class icons for node widgets.
package icons

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

// IconSize is the edge length of the built-in icons
const IconSize = 32

var (
	genericOnce sync.Once
	genericIcon image.Image
	cloudOnce   sync.Once
	cloudIcon   image.Image
)

// Generic returns the icon used when no class icon exists
func Generic() image.Image {
	genericOnce.Do(func() {
		dc := gg.NewContext(IconSize, IconSize)
		dc.SetColor(color.RGBA{R: 0x4a, G: 0x6f, B: 0xa5, A: 0xff})
		dc.DrawRoundedRectangle(2, 2, IconSize-4, IconSize-4, 4)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawRectangle(8, 12, IconSize-16, 8)
		dc.Fill()
		genericIcon = dc.Image()
	})
	return genericIcon
}

// Cloud returns the icon for ad-hoc cloud nodes
func Cloud() image.Image {
	cloudOnce.Do(func() {
		dc := gg.NewContext(IconSize, IconSize)
		dc.SetColor(color.RGBA{R: 0x9a, G: 0xb8, B: 0xd8, A: 0xff})
		dc.DrawCircle(11, 18, 8)
		dc.DrawCircle(18, 13, 9)
		dc.DrawCircle(23, 19, 7)
		dc.DrawRectangle(9, 18, 16, 8)
		dc.Fill()
		cloudIcon = dc.Image()
	})
	return cloudIcon
}

// FileProvider loads <ClassName>.png from a directory. Results, including
// misses, are cached.
type FileProvider struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewFileProvider creates a provider reading from dir
func NewFileProvider(dir string, logger *zap.Logger) *FileProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileProvider{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]image.Image),
	}
}

// ClassIcon returns the icon for className, or nil when none exists
func (p *FileProvider) ClassIcon(className string) image.Image {
	if p.dir == "" || className == "" {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if icon, ok := p.cache[className]; ok {
		return icon
	}

	icon, err := p.load(className)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		p.logger.Warn("failed to load class icon",
			zap.String("class", className),
			zap.Error(err),
		)
	}
	p.cache[className] = icon
	return icon
}

func (p *FileProvider) load(className string) (image.Image, error) {
	f, err := os.Open(filepath.Join(p.dir, filepath.Base(className)+".png"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}
