package geometry

import (
	"math"

	"github.com/fieldline/planview/pkg/models"
)

// Viewport describes the visible window onto a drawing page: a zoom factor
// and a pan offset in screen pixels. Screen coordinates are what the client
// reports for a tap; page coordinates are PDF points anchored to content.
//
//	screen = page*Zoom + Pan
type Viewport struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
}

// DefaultViewport is the identity view: no pan, no zoom.
var DefaultViewport = Viewport{Zoom: 1}

// Valid reports whether the viewport can be inverted. A zero, negative,
// or non-finite zoom has no usable inverse.
func (v Viewport) Valid() bool {
	return v.Zoom > 0 && !math.IsInf(v.Zoom, 1) &&
		!math.IsNaN(v.PanX) && !math.IsNaN(v.PanY)
}

// ScreenToPage projects a tapped screen point into page-local coordinates
// under the current viewport.
func (v Viewport) ScreenToPage(p models.Point) models.Point {
	return models.Point{
		X: (p.X - v.PanX) / v.Zoom,
		Y: (p.Y - v.PanY) / v.Zoom,
	}
}

// PageToScreen is the inverse of ScreenToPage, used to redraw stored
// annotations under the current viewport.
func (v Viewport) PageToScreen(p models.Point) models.Point {
	return models.Point{
		X: p.X*v.Zoom + v.PanX,
		Y: p.Y*v.Zoom + v.PanY,
	}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b models.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b models.Point) models.Point {
	return models.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
