package render

import "image/color"

// Global render configuration for colors and default logical canvas.
var (
	Background = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}
	TextColor  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	// Overlay bar rows.
	CategoryColor = color.RGBA{R: 80, G: 220, B: 255, A: 0xFF}
	IntervalColor = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	StatusColor   = color.RGBA{R: 255, G: 220, B: 80, A: 0xFF}
	BarColor      = color.NRGBA{R: 0, G: 0, B: 0, A: 170}

	// Logical canvas size; scaled to framebuffer.
	CanvasWidth  = 1280
	CanvasHeight = 720

	DefaultFontSize = 22.0
)

// LoadingText is drawn over the current image while a remote fetch runs.
const LoadingText = "Loading..."
