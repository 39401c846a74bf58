package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"

	fb "github.com/gonutz/framebuffer"
)

const DefaultDevice = "/dev/fb0"

// FBRenderer renders to the Linux framebuffer using an offscreen logical canvas.
type FBRenderer struct {
	*Canvas
	Device string
	Logger logger

	fbDev     *fb.Device
	running   atomic.Bool
	presented string
	frames    uint64
}

func NewFBRenderer(device string, canvas *Canvas, l logger) *FBRenderer {
	if device == "" {
		device = DefaultDevice
	}
	return &FBRenderer{Canvas: canvas, Device: device, Logger: l}
}

func (r *FBRenderer) Start(ctx context.Context) error {
	if r.Canvas == nil {
		return errors.New("fb renderer has no canvas")
	}
	dev, err := fb.Open(r.Device)
	if err != nil {
		return err
	}
	r.fbDev = dev
	if r.Logger != nil {
		bounds := dev.Bounds()
		canvas := r.Canvas.Bounds()
		r.Logger.Infof("fb", "framebuffer %s open, bounds=%dx%d canvas=%dx%d", r.Device, bounds.Dx(), bounds.Dy(), canvas.Dx(), canvas.Dy())
	}
	r.presented = ""
	r.running.Store(true)
	return nil
}

func (r *FBRenderer) Stop() error {
	r.running.Store(false)
	if r.fbDev != nil {
		r.fbDev.Close()
		r.fbDev = nil
	}
	return nil
}

// Present copies the canvas to the framebuffer. Frames identical to the
// previous one are skipped.
func (r *FBRenderer) Present() error {
	if !r.running.Load() || r.fbDev == nil {
		return nil
	}
	sig := r.frameSignature()
	if sig != "" && sig == r.presented {
		return nil
	}
	blitToFB(r.fbDev, r.Image())
	r.presented = sig
	r.frames++
	if r.Logger != nil && r.frames%100 == 1 {
		r.Logger.Infof("fb", "frame %d presented", r.frames)
	}
	return nil
}

type pixelSetter interface {
	Bounds() image.Rectangle
	Set(x, y int, c color.Color)
}

// blitToFB writes canvas to dev with nearest-neighbor scaling.
func blitToFB(dev pixelSetter, canvas *image.RGBA) {
	if dev == nil || canvas == nil {
		return
	}
	bounds := dev.Bounds()
	fbWidth, fbHeight := bounds.Dx(), bounds.Dy()
	cb := canvas.Bounds()
	cw, ch := cb.Dx(), cb.Dy()
	if fbWidth <= 0 || fbHeight <= 0 || cw <= 0 || ch <= 0 {
		return
	}
	for y := 0; y < fbHeight; y++ {
		sy := cb.Min.Y + (y*ch)/fbHeight
		for x := 0; x < fbWidth; x++ {
			sx := cb.Min.X + (x*cw)/fbWidth
			pixel := canvas.RGBAAt(sx, sy)
			dev.Set(bounds.Min.X+x, bounds.Min.Y+y, color.RGBA{R: pixel.R, G: pixel.G, B: pixel.B, A: 0xFF})
		}
	}
}
