package layout

import "image"

// Inset shrinks rect by paddingPx on all sides.
func Inset(rect image.Rectangle, paddingPx int) image.Rectangle {
	if paddingPx <= 0 {
		return rect
	}
	out := image.Rect(rect.Min.X+paddingPx, rect.Min.Y+paddingPx, rect.Max.X-paddingPx, rect.Max.Y-paddingPx)
	return Normalize(out)
}

// Normalize ensures Min is <= Max on both axes.
func Normalize(rect image.Rectangle) image.Rectangle {
	if rect.Min.X > rect.Max.X {
		rect.Min.X, rect.Max.X = rect.Max.X, rect.Min.X
	}
	if rect.Min.Y > rect.Max.Y {
		rect.Min.Y, rect.Max.Y = rect.Max.Y, rect.Min.Y
	}
	return rect
}

// SplitVertical splits rect into left and right parts.
// leftWidthPx is clamped to [0, rect.Dx()].
func SplitVertical(rect image.Rectangle, leftWidthPx int) (left image.Rectangle, right image.Rectangle) {
	rect = Normalize(rect)
	leftWidthPx = clamp(leftWidthPx, 0, rect.Dx())
	left = image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+leftWidthPx, rect.Max.Y)
	right = image.Rect(rect.Min.X+leftWidthPx, rect.Min.Y, rect.Max.X, rect.Max.Y)
	return left, right
}

// SplitHorizontal splits rect into top and bottom parts.
// topHeightPx is clamped to [0, rect.Dy()].
func SplitHorizontal(rect image.Rectangle, topHeightPx int) (top image.Rectangle, bottom image.Rectangle) {
	rect = Normalize(rect)
	topHeightPx = clamp(topHeightPx, 0, rect.Dy())
	top = image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+topHeightPx)
	bottom = image.Rect(rect.Min.X, rect.Min.Y+topHeightPx, rect.Max.X, rect.Max.Y)
	return top, bottom
}

// FitSquare returns the largest square that fits into rect, anchored at the top-right.
func FitSquare(rect image.Rectangle) image.Rectangle {
	rect = Normalize(rect)
	size := rect.Dx()
	if rect.Dy() < size {
		size = rect.Dy()
	}
	return image.Rect(rect.Max.X-size, rect.Min.Y, rect.Max.X, rect.Min.Y+size)
}

// Fit returns the largest rectangle with the aspect ratio of src that fits
// inside dst, centered.
func Fit(src image.Point, dst image.Rectangle) image.Rectangle {
	return scaleCentered(src, Normalize(dst), false)
}

// Fill returns the smallest rectangle with the aspect ratio of src that
// covers dst, centered. The result may extend beyond dst.
func Fill(src image.Point, dst image.Rectangle) image.Rectangle {
	return scaleCentered(src, Normalize(dst), true)
}

func scaleCentered(src image.Point, dst image.Rectangle, cover bool) image.Rectangle {
	if src.X <= 0 || src.Y <= 0 || dst.Empty() {
		return image.Rectangle{Min: dst.Min, Max: dst.Min}
	}
	// Compare dst.Dx/src.X against dst.Dy/src.Y without floating point.
	widthBound := dst.Dx()*src.Y <= dst.Dy()*src.X
	if cover {
		widthBound = !widthBound
	}
	var w, h int
	if widthBound {
		w = dst.Dx()
		h = src.Y * dst.Dx() / src.X
	} else {
		h = dst.Dy()
		w = src.X * dst.Dy() / src.Y
	}
	x := dst.Min.X + (dst.Dx()-w)/2
	y := dst.Min.Y + (dst.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
