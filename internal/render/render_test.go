package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.RGBA{R: 0xFF, A: 0xFF}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestParseScaleMode(t *testing.T) {
	for in, want := range map[string]ScaleMode{"": ScaleFit, "fit": ScaleFit, "FILL": ScaleFill, " stretch ": ScaleStretch} {
		got, err := ParseScaleMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseScaleMode("zoom")
	assert.Error(t, err)
}

func TestCanvas_PrepareFitLetterboxes(t *testing.T) {
	c := NewCanvas(160, 90, 12, nil)
	tex := c.Prepare(solid(90, 90, red))
	require.True(t, tex.Valid())

	img := tex.Image()
	assert.Equal(t, c.Bounds(), img.Bounds())
	assert.Equal(t, Background, img.RGBAAt(2, 45), "left bar")
	assert.Equal(t, Background, img.RGBAAt(157, 45), "right bar")
	assert.Equal(t, red, img.RGBAAt(80, 45), "center")
}

func TestCanvas_PrepareStretchCovers(t *testing.T) {
	c := NewCanvas(160, 90, 12, nil)
	c.Scale = ScaleStretch
	tex := c.Prepare(solid(10, 10, red))
	require.True(t, tex.Valid())
	assert.Equal(t, red, tex.Image().RGBAAt(1, 1))
	assert.Equal(t, red, tex.Image().RGBAAt(158, 88))
}

func TestCanvas_PrepareRejectsEmpty(t *testing.T) {
	c := NewCanvas(160, 90, 12, nil)
	assert.Nil(t, c.Prepare(nil))
	assert.Nil(t, c.Prepare(image.NewRGBA(image.Rect(0, 0, 0, 0))))
}

func TestCanvas_Release(t *testing.T) {
	c := NewCanvas(160, 90, 12, nil)
	tex := c.Prepare(solid(4, 4, red))
	c.Release(tex)
	assert.False(t, tex.Valid())
	assert.Nil(t, tex.Image())
	c.Release(nil)
}

func TestCanvas_DrawFullscreenNilClears(t *testing.T) {
	c := NewCanvas(160, 90, 12, nil)
	c.DrawFullscreen(c.Prepare(solid(16, 9, red)))
	assert.Equal(t, red, c.Image().RGBAAt(80, 45))

	c.DrawFullscreen(nil)
	assert.Equal(t, Background, c.Image().RGBAAt(80, 45))
}

func TestCanvas_CenteredTextMarksPixels(t *testing.T) {
	c := NewCanvas(320, 180, 22, nil)
	c.DrawFullscreen(nil)
	c.DrawCenteredText(LoadingText)

	changed := 0
	img := c.Image()
	for y := 0; y < 180; y++ {
		for x := 0; x < 320; x++ {
			if img.RGBAAt(x, y) != Background {
				changed++
			}
		}
	}
	assert.Positive(t, changed)
}

func TestCanvas_FrameSignature(t *testing.T) {
	c := NewCanvas(160, 90, 12, nil)
	tex := c.Prepare(solid(16, 9, red))
	o := Overlay{CategoryLabel: "Album", Index: 0, Count: 2, IntervalMinutes: 5, Status: "Waiting..."}

	c.DrawFullscreen(tex)
	c.DrawOverlayBar(o)
	first := c.frameSignature()

	c.DrawFullscreen(tex)
	c.DrawOverlayBar(o)
	assert.Equal(t, first, c.frameSignature())

	c.DrawFullscreen(tex)
	assert.NotEqual(t, first, c.frameSignature(), "hidden overlay is a different frame")

	other := c.Prepare(solid(16, 9, red))
	c.DrawFullscreen(other)
	c.DrawOverlayBar(o)
	assert.NotEqual(t, first, c.frameSignature(), "new texture is a different frame")
}

func TestOverlayRows(t *testing.T) {
	rows := OverlayRows(Overlay{CategoryLabel: "Landscapes", Index: 2, Count: 4, IntervalMinutes: 7, Status: "OK (10 bytes, HTTP 200)"})
	assert.Equal(t, "< >  Category: [Landscapes]  (3/4)", rows[0])
	assert.Equal(t, "Interval: 7 min(s)     + Increase     - Decrease     Esc Exit", rows[1])
	assert.Equal(t, "Fetch: OK (10 bytes, HTTP 200)", rows[2])
}

func TestCanvas_OverlayQRPanel(t *testing.T) {
	c := NewCanvas(640, 360, 14, nil)
	c.DrawFullscreen(nil)
	c.DrawOverlayBar(Overlay{Count: 1, QRPayload: "https://example.com/image.jpg"})

	// The QR quiet zone is white, the bar is translucent black.
	img := c.Image()
	white := 0
	for y := 360 - barHeight; y < 360; y++ {
		for x := 640 - barHeight; x < 640; x++ {
			if img.RGBAAt(x, y) == (color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}) {
				white++
			}
		}
	}
	assert.Positive(t, white)

	c.ShowQR = false
	c.DrawFullscreen(nil)
	c.DrawOverlayBar(Overlay{Count: 1, QRPayload: "https://example.com/image.jpg"})
	assert.NotEqual(t, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, img.RGBAAt(630, 355))
}

func TestSourceQRCode(t *testing.T) {
	img, err := SourceQRCode("", 64)
	assert.NoError(t, err)
	assert.Nil(t, img)

	img, err = SourceQRCode("https://example.com/"+strings.Repeat("a", 235), 0)
	require.NoError(t, err)
	assert.Equal(t, qrModulePx, img.Bounds().Dx())
}

type recordingDevice struct {
	bounds image.Rectangle
	px     map[image.Point]color.Color
}

func (d *recordingDevice) Bounds() image.Rectangle { return d.bounds }
func (d *recordingDevice) Set(x, y int, c color.Color) {
	d.px[image.Pt(x, y)] = c
}

func TestBlitToFB_Scales(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 4, 2))
	canvas.SetRGBA(3, 1, red)
	dev := &recordingDevice{bounds: image.Rect(0, 0, 8, 4), px: map[image.Point]color.Color{}}

	blitToFB(dev, canvas)

	assert.Len(t, dev.px, 32)
	assert.Equal(t, red, dev.px[image.Pt(7, 3)])
	assert.Equal(t, red, dev.px[image.Pt(6, 2)])
	assert.Equal(t, color.RGBA{A: 0xFF}, dev.px[image.Pt(0, 0)])
}

func TestCanvasRenderer_WritesChangedFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames", "frame.png")
	r := NewCanvasRenderer(NewCanvas(160, 90, 12, nil), path, nil)
	require.NoError(t, r.Start(t.Context()))

	r.DrawFullscreen(nil)
	r.DrawCenteredText("Waiting...")
	require.NoError(t, r.Present())
	r.DrawFullscreen(nil)
	r.DrawCenteredText("Waiting...")
	require.NoError(t, r.Present())
	assert.Equal(t, 1, r.Frames())

	r.DrawFullscreen(nil)
	r.DrawCenteredText("No internet connection.")
	require.NoError(t, r.Present())
	assert.Equal(t, 2, r.Frames())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
}

func TestNoopRenderer(t *testing.T) {
	var r Renderer = NoopRenderer{}
	tex := r.Prepare(solid(2, 2, red))
	require.True(t, tex.Valid())
	r.DrawFullscreen(tex)
	assert.NoError(t, r.Present())
	r.Release(tex)
	assert.False(t, tex.Valid())
}
