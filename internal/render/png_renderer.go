package render

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

// CanvasRenderer draws on a Canvas without a device. When Path is set, each
// changed frame is written there as a PNG.
type CanvasRenderer struct {
	*Canvas
	Path   string
	Logger logger

	mu        sync.Mutex
	presented string
	frames    int
}

func NewCanvasRenderer(canvas *Canvas, path string, l logger) *CanvasRenderer {
	return &CanvasRenderer{Canvas: canvas, Path: path, Logger: l}
}

func (r *CanvasRenderer) Start(ctx context.Context) error {
	if r.Path == "" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(r.Path), 0o755)
}

func (r *CanvasRenderer) Stop() error { return nil }

// Present records the frame and writes it to Path if it changed.
func (r *CanvasRenderer) Present() error {
	sig := r.frameSignature()
	r.mu.Lock()
	defer r.mu.Unlock()
	if sig != "" && sig == r.presented {
		return nil
	}
	r.presented = sig
	r.frames++
	if r.Path == "" {
		return nil
	}
	if err := writePNG(r.Path, r.Canvas); err != nil {
		if r.Logger != nil {
			r.Logger.Errorf("render", "write frame: %v", err)
		}
		return err
	}
	return nil
}

// Frames returns how many distinct frames were presented.
func (r *CanvasRenderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// writePNG replaces path atomically so readers never see a partial frame.
func writePNG(path string, c *Canvas) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("create temp frame: %w", err)
	}
	if err := png.Encode(tmp, c.Image()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
