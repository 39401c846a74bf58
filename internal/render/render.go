package render

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"strings"
	"sync/atomic"
)

// Presenter is the drawing surface the frame loop talks to. It never
// exposes pixels; images enter through Prepare and are drawn as Textures.
type Presenter interface {
	// Prepare converts a decoded image into a screen-ready Texture.
	// It returns nil when img cannot be displayed.
	Prepare(img image.Image) *Texture
	// Release frees a Texture. Releasing nil is a no-op.
	Release(tex *Texture)

	// DrawFullscreen starts a frame with tex covering the screen, or a
	// cleared background when tex is nil.
	DrawFullscreen(tex *Texture)
	DrawCenteredText(text string)
	DrawOverlayBar(overlay Overlay)
	Present() error
}

// Renderer is a Presenter with a device lifecycle.
type Renderer interface {
	Presenter
	Start(ctx context.Context) error
	Stop() error
}

// Overlay is the content of the transient bottom bar.
type Overlay struct {
	CategoryLabel   string
	Index           int // zero-based
	Count           int
	IntervalMinutes int
	Status          string
	// QRPayload, when set, is rendered as a QR code at the right edge.
	QRPayload string
}

// Texture is a prepared, screen-sized image owned by whoever called Prepare.
type Texture struct {
	img *image.RGBA
	id  uint64
}

var textureIDs atomic.Uint64

func newTexture(img *image.RGBA) *Texture {
	return &Texture{img: img, id: textureIDs.Add(1)}
}

// NewTexture wraps img without scaling.
func NewTexture(img image.Image) *Texture {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return newTexture(rgba)
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return newTexture(rgba)
}

func (t *Texture) Valid() bool { return t != nil && t.img != nil }

// Image returns the texture pixels, or nil once released.
func (t *Texture) Image() *image.RGBA {
	if t == nil {
		return nil
	}
	return t.img
}

func (t *Texture) release() {
	if t != nil {
		t.img = nil
	}
}

// NoopRenderer discards all drawing. Prepared textures are kept unscaled.
type NoopRenderer struct{}

func (NoopRenderer) Start(ctx context.Context) error  { return nil }
func (NoopRenderer) Stop() error                      { return nil }
func (NoopRenderer) Prepare(img image.Image) *Texture { return NewTexture(img) }
func (NoopRenderer) Release(tex *Texture)             { tex.release() }
func (NoopRenderer) DrawFullscreen(tex *Texture)      {}
func (NoopRenderer) DrawCenteredText(text string)     {}
func (NoopRenderer) DrawOverlayBar(overlay Overlay)   {}
func (NoopRenderer) Present() error                   { return nil }

// frameKey accumulates a description of the draw calls of one frame so
// unchanged frames can skip the expensive device blit.
type frameKey struct {
	b strings.Builder
}

func (k *frameKey) reset() { k.b.Reset() }

func (k *frameKey) add(format string, args ...interface{}) {
	fmt.Fprintf(&k.b, format, args...)
	k.b.WriteByte('|')
}

func (k *frameKey) String() string { return k.b.String() }
