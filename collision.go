package main

import "math"

// Rect is an axis-aligned rectangle anchored at its top-left corner
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PointInRect reports whether (px,py) lies strictly inside r.
// A point on the boundary is not a collision.
func PointInRect(px, py float64, r Rect) bool {
	return r.X < px && px < r.X+r.Width &&
		r.Y < py && py < r.Y+r.Height
}

// PointInRectMargin tests (px,py) against r inflated by margin on every side,
// so a circle of radius margin centred on the point cannot overlap r.
func PointInRectMargin(px, py, margin float64, r Rect) bool {
	return r.X-margin < px && px < r.X+r.Width+margin &&
		r.Y-margin < py && py < r.Y+r.Height+margin
}

// CheckCollision checks if two circles overlap. Touching circles do not.
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	return Distance(x1, y1, x2, y2) < r1+r2
}

// reflectAxis picks the velocity component to flip when (px,py) has
// penetrated r: the axis whose nearest edge is closer. Ties flip x.
func reflectAxis(px, py float64, r Rect) (flipX bool) {
	edgeX := math.Min(px-r.X, r.X+r.Width-px)
	edgeY := math.Min(py-r.Y, r.Y+r.Height-py)
	return edgeX <= edgeY
}
