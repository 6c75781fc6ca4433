// Package render paints a canvas to PNG.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"topoview/internal/domain"
	"topoview/internal/widget"
)

// ErrEmptyView is returned when there is nothing to draw
var ErrEmptyView = errors.New("nothing to render")

const (
	defaultPadding  = 20
	defaultFontSize = 11.0
	markerSize      = 4.0
)

// WidgetSource is the read-only view of a canvas the renderer needs
type WidgetSource interface {
	Widgets(layer domain.Layer) []widget.Widget
}

// Options controls rendering
type Options struct {
	Padding    int
	FontSize   float64
	Background color.Color
	Foreground color.Color
}

// DefaultOptions returns black on white with a small margin
func DefaultOptions() Options {
	return Options{
		Padding:    defaultPadding,
		FontSize:   defaultFontSize,
		Background: color.White,
		Foreground: color.Black,
	}
}

var (
	fontOnce sync.Once
	monoFont *truetype.Font
	fontErr  error
)

func face(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		monoFont, fontErr = truetype.Parse(gomono.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse font: %w", fontErr)
	}
	return truetype.NewFace(monoFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// Image paints every layer of src back to front: frames, edges, nodes,
// icons, labels. The image covers the union of all widget bounds.
func Image(src WidgetSource, opts Options) (image.Image, error) {
	layers := make([][]widget.Widget, domain.LayerCount)
	var bounds domain.Rect
	found := false
	for _, layer := range domain.Layers() {
		for _, w := range src.Widgets(layer) {
			if !drawable(w) {
				continue
			}
			layers[layer] = append(layers[layer], w)
			if !found {
				bounds, found = w.Bounds(), true
			} else {
				bounds = bounds.Union(w.Bounds())
			}
		}
	}
	if !found {
		return nil, ErrEmptyView
	}

	f, err := face(opts.FontSize)
	if err != nil {
		return nil, err
	}

	pad := opts.Padding
	dc := gg.NewContext(bounds.W+2*pad, bounds.H+2*pad)
	dc.SetColor(opts.Background)
	dc.Clear()
	dc.SetFontFace(f)
	dc.Translate(float64(pad-bounds.X), float64(pad-bounds.Y))

	p := painter{dc: dc, fg: opts.Foreground}
	for _, layer := range domain.Layers() {
		for _, w := range layers[layer] {
			p.paint(w)
		}
	}

	return dc.Image(), nil
}

// PNG renders src and writes it as PNG
func PNG(src WidgetSource, opts Options, w io.Writer) error {
	img, err := Image(src, opts)
	if err != nil {
		return err
	}
	return EncodePNG(img, w)
}

// EncodePNG writes img as PNG
func EncodePNG(img image.Image, w io.Writer) error {
	if err := gg.NewContextForImage(img).EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

func drawable(w widget.Widget) bool {
	if w.Removed() {
		return false
	}
	if c, ok := w.(*widget.ConnectionWidget); ok {
		return len(c.Route()) >= 2
	}
	return true
}

type painter struct {
	dc *gg.Context
	fg color.Color
}

func (p painter) paint(w widget.Widget) {
	switch w := w.(type) {
	case *widget.FrameWidget:
		p.frame(w)
	case *widget.ConnectionWidget:
		p.connection(w)
	case *widget.NodeWidget:
		p.node(w)
	case *widget.LabelWidget:
		p.label(w)
	}
}

func (p painter) frame(f *widget.FrameWidget) {
	b := f.Bounds()
	p.dc.SetColor(p.fg)
	p.dc.SetLineWidth(2)
	p.dc.DrawRectangle(float64(b.X), float64(b.Y), float64(b.W), float64(b.H))
	p.dc.Stroke()
	p.text(f.Title().Text(), float64(b.X+4), float64(b.Y+widget.LineHeight))
}

func (p painter) connection(c *widget.ConnectionWidget) {
	route := c.Route()
	p.dc.SetColor(p.fg)
	p.dc.SetLineWidth(float64(c.LineWidth()))
	p.dc.MoveTo(float64(route[0].X), float64(route[0].Y))
	for _, pt := range route[1:] {
		p.dc.LineTo(float64(pt.X), float64(pt.Y))
	}
	p.dc.Stroke()

	for _, cp := range c.ControlPoints() {
		x, y := float64(cp.X), float64(cp.Y)
		if c.ControlPointShape() == widget.ControlPointCircle {
			p.dc.DrawCircle(x, y, markerSize/2)
		} else {
			p.dc.DrawRectangle(x-markerSize/2, y-markerSize/2, markerSize, markerSize)
		}
		p.dc.Fill()
	}
}

func (p painter) node(n *widget.NodeWidget) {
	ib := n.IconBounds()
	if icon := n.Icon(); icon != nil {
		p.dc.DrawImage(icon, ib.X, ib.Y)
	} else {
		p.dc.SetColor(p.fg)
		p.dc.SetLineWidth(1)
		p.dc.DrawRectangle(float64(ib.X), float64(ib.Y), float64(ib.W), float64(ib.H))
		p.dc.Stroke()
	}
	if n.Label() == "" {
		return
	}
	b := n.Bounds()
	p.dc.SetColor(p.fg)
	cx := float64(b.X) + float64(b.W)/2
	for i, line := range strings.Split(n.Label(), "\n") {
		p.dc.DrawStringAnchored(line, cx, float64(ib.Y+ib.H+(i+1)*widget.LineHeight), 0.5, 0)
	}
}

func (p painter) label(l *widget.LabelWidget) {
	loc := l.Location()
	x, y := float64(loc.X), float64(loc.Y)
	if l.Orientation() != widget.OrientationRotate90 {
		p.text(l.Text(), x, y+widget.LineHeight)
		return
	}
	// Rotated text runs down from the location with glyphs to its right
	p.dc.Push()
	p.dc.RotateAbout(gg.Radians(90), x, y)
	p.text(l.Text(), x, y)
	p.dc.Pop()
}

func (p painter) text(s string, x, baseline float64) {
	p.dc.SetColor(p.fg)
	for i, line := range strings.Split(s, "\n") {
		p.dc.DrawString(line, x, baseline+float64(i*widget.LineHeight))
	}
}
