// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package geom holds the bounding-box arithmetic shared by the raster and
// textrender packages.
package geom

// BoundingBox is an axis-aligned rectangle in pixel space. Width and Height
// may be negative-free only; a zero Width or Height describes an empty box.
type BoundingBox struct {
	X, Y, Width, Height int
}

// Rect builds a BoundingBox from opposite corners the way image.Rect does.
func Rect(x0, y0, x1, y1 int) BoundingBox {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return BoundingBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Empty reports whether the box covers zero pixels.
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Right returns the exclusive x coordinate of the box's right edge.
func (b BoundingBox) Right() int { return b.X + b.Width }

// Bottom returns the exclusive y coordinate of the box's bottom edge.
func (b BoundingBox) Bottom() int { return b.Y + b.Height }

// Contains reports whether (x, y) falls inside the box.
func (b BoundingBox) Contains(x, y int) bool {
	return x >= b.X && x < b.Right() && y >= b.Y && y < b.Bottom()
}

// Intersect returns the largest box contained in both b and o. The result is
// empty if b and o do not overlap.
func (b BoundingBox) Intersect(o BoundingBox) BoundingBox {
	x0 := max(b.X, o.X)
	y0 := max(b.Y, o.Y)
	x1 := min(b.Right(), o.Right())
	y1 := min(b.Bottom(), o.Bottom())
	if x1 < x0 || y1 < y0 {
		return BoundingBox{}
	}
	return Rect(x0, y0, x1, y1)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
