// Package geometry converts pixel-space distances into millimeters using a
// physical reference object of known width.
package geometry

import "math"

// CardWidthMM is the width of an ISO/IEC 7810 ID-1 card in millimeters.
const CardWidthMM = 85.6

// Point is a location in the coordinate space of the source image.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint creates a new Point.
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	return Distance(p, other)
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Distance returns the Euclidean distance between p1 and p2. It is exact for
// separations whose squares would underflow or overflow.
func Distance(p1, p2 Point) float64 {
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// PixelsPerMM derives the image scale from the two edges of a standard card.
// Coincident points yield exactly 0, which callers must treat as "not calibrated".
func PixelsPerMM(cardLeft, cardRight Point) float64 {
	return PixelsPerMMWithReference(cardLeft, cardRight, CardWidthMM)
}

// PixelsPerMMWithReference is PixelsPerMM for a reference object of widthMM.
func PixelsPerMMWithReference(left, right Point, widthMM float64) float64 {
	return Distance(left, right) / widthMM
}

// PixelsToMM converts a pixel length to millimeters. scale must be > 0.
func PixelsToMM(pixels, scale float64) float64 {
	return pixels / scale
}
