package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/rook-computer/photoframe/internal/assets"
	"github.com/rook-computer/photoframe/internal/render/layout"
)

// ScaleMode selects how Prepare maps an image onto the canvas.
type ScaleMode int

const (
	// ScaleFit keeps the aspect ratio and letterboxes.
	ScaleFit ScaleMode = iota
	// ScaleFill keeps the aspect ratio and crops.
	ScaleFill
	// ScaleStretch ignores the aspect ratio.
	ScaleStretch
)

func (m ScaleMode) String() string {
	switch m {
	case ScaleFill:
		return "fill"
	case ScaleStretch:
		return "stretch"
	default:
		return "fit"
	}
}

// ParseScaleMode parses "fit", "fill" or "stretch". Empty means fit.
func ParseScaleMode(s string) (ScaleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fit":
		return ScaleFit, nil
	case "fill":
		return ScaleFill, nil
	case "stretch":
		return ScaleStretch, nil
	}
	return ScaleFit, fmt.Errorf("unknown scale mode %q", s)
}

const (
	barHeight     = 100
	barTextX      = 20
	barPadding    = 8
	textBoxMargin = 16
)

type logger interface {
	Infof(component, format string, args ...interface{})
	Errorf(component, format string, args ...interface{})
}

// Canvas is an offscreen logical screen implementing the drawing half of
// Presenter. Device renderers embed it and add Present.
type Canvas struct {
	Scale  ScaleMode
	ShowQR bool
	Logger logger

	img  *image.RGBA
	face font.Face
	key  frameKey

	qrPayload string
	qrImg     image.Image
}

// NewCanvas allocates a width x height canvas with text at fontSize points.
// Non-positive sizes fall back to the package defaults.
func NewCanvas(width, height int, fontSize float64, l logger) *Canvas {
	if width <= 0 || height <= 0 {
		width, height = CanvasWidth, CanvasHeight
	}
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	c := &Canvas{
		ShowQR: true,
		Logger: l,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	c.face = loadFace(fontSize, l)
	c.clear()
	return c
}

func loadFace(size float64, l logger) font.Face {
	tt, err := truetype.Parse(assets.FontTTF)
	if err != nil {
		if l != nil {
			l.Errorf("render", "truetype parse failed, using basicfont: %v", err)
		}
		return basicfont.Face7x13
	}
	return truetype.NewFace(tt, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

// Image exposes the canvas pixels of the frame being drawn.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Prepare scales img onto a canvas-sized texture according to Scale.
func (c *Canvas) Prepare(img image.Image) *Texture {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	bounds := c.img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, &image.Uniform{C: Background}, image.Point{}, draw.Src)

	src := img.Bounds()
	var target image.Rectangle
	switch c.Scale {
	case ScaleFill:
		target = layout.Fill(src.Size(), bounds)
	case ScaleStretch:
		target = bounds
	default:
		target = layout.Fit(src.Size(), bounds)
	}
	if target.Empty() {
		return nil
	}
	xdraw.ApproxBiLinear.Scale(dst, target, img, src, xdraw.Over, nil)
	return newTexture(dst)
}

// Release drops the texture pixels.
func (c *Canvas) Release(tex *Texture) { tex.release() }

// DrawFullscreen starts a new frame.
func (c *Canvas) DrawFullscreen(tex *Texture) {
	c.key.reset()
	if !tex.Valid() {
		c.clear()
		c.key.add("clear")
		return
	}
	src := tex.img
	if src.Bounds() != c.img.Bounds() {
		c.clear()
	}
	draw.Draw(c.img, c.img.Bounds(), src, src.Bounds().Min, draw.Src)
	c.key.add("image:%d", tex.id)
}

// DrawCenteredText draws text on a dark box in the middle of the canvas.
func (c *Canvas) DrawCenteredText(text string) {
	c.key.add("text:%s", text)
	if text == "" {
		return
	}
	bounds := c.img.Bounds()
	d := &font.Drawer{Dst: c.img, Src: image.NewUniform(TextColor), Face: c.face}
	width := d.MeasureString(text).Ceil()
	m := c.face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()

	x := bounds.Min.X + (bounds.Dx()-width)/2
	baseline := bounds.Min.Y + (bounds.Dy()+ascent-descent)/2
	box := image.Rect(x-textBoxMargin, baseline-ascent-textBoxMargin, x+width+textBoxMargin, baseline+descent+textBoxMargin)
	draw.Draw(c.img, box.Intersect(bounds), &image.Uniform{C: BarColor}, image.Point{}, draw.Over)

	d.Dot = fixed.P(x, baseline)
	d.DrawString(text)
}

// DrawOverlayBar draws the three-row control bar at the bottom of the canvas.
func (c *Canvas) DrawOverlayBar(o Overlay) {
	c.key.add("bar:%s|%d|%d|%d|%s|%s", o.CategoryLabel, o.Index, o.Count, o.IntervalMinutes, o.Status, o.QRPayload)

	bounds := c.img.Bounds()
	_, bar := layout.SplitHorizontal(bounds, bounds.Dy()-barHeight)
	draw.Draw(c.img, bar, &image.Uniform{C: BarColor}, image.Point{}, draw.Over)

	textArea := bar
	if c.ShowQR && o.QRPayload != "" {
		var qrArea image.Rectangle
		textArea, qrArea = layout.SplitVertical(bar, bar.Dx()-bar.Dy())
		c.drawQR(layout.FitSquare(layout.Inset(qrArea, barPadding)), o.QRPayload)
	}

	rows := OverlayRows(o)
	colors := []color.Color{CategoryColor, IntervalColor, StatusColor}
	// Row tops match a 100px bar; baselines add the ascent.
	tops := []int{5, 38, 68}
	ascent := c.face.Metrics().Ascent.Ceil()
	for i, row := range rows {
		d := &font.Drawer{Dst: c.img, Src: image.NewUniform(colors[i]), Face: c.face}
		d.Dot = fixed.P(textArea.Min.X+barTextX, bar.Min.Y+tops[i]+ascent)
		d.DrawString(row)
	}
}

// OverlayRows returns the text of the overlay bar, top to bottom.
func OverlayRows(o Overlay) [3]string {
	return [3]string{
		fmt.Sprintf("< >  Category: [%s]  (%d/%d)", o.CategoryLabel, o.Index+1, o.Count),
		fmt.Sprintf("Interval: %d min(s)     + Increase     - Decrease     Esc Exit", o.IntervalMinutes),
		"Fetch: " + o.Status,
	}
}

func (c *Canvas) drawQR(rect image.Rectangle, payload string) {
	if rect.Empty() {
		return
	}
	if qr := c.cachedQR(payload); qr != nil {
		xdraw.NearestNeighbor.Scale(c.img, rect, qr, qr.Bounds(), xdraw.Src, nil)
	}
}

func (c *Canvas) clear() {
	draw.Draw(c.img, c.img.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)
}

// frameSignature describes the draw calls since the last DrawFullscreen.
func (c *Canvas) frameSignature() string { return c.key.String() }
