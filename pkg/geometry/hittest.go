package geometry

import (
	"math"

	"github.com/fieldline/planview/pkg/models"
)

// TapTolerance is the selection radius around a tap, in screen pixels.
// Hit testing in page space divides this by the current zoom so the touch
// target stays the same size on screen at any magnification.
const TapTolerance = 25.0

// PageTolerance converts the screen-space tap tolerance into page units for
// the given viewport.
func (v Viewport) PageTolerance() float64 {
	return TapTolerance / v.Zoom
}

// DistanceToSegment returns the shortest distance from p to the segment ab.
func DistanceToSegment(p, a, b models.Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Distance(p, a)
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	closest := models.Point{X: a.X + t*dx, Y: a.Y + t*dy}
	return Distance(p, closest)
}

// DistanceToPolyline returns the shortest distance from p to any segment of
// the polyline. A single-point polyline degenerates to point distance.
func DistanceToPolyline(p models.Point, pts []models.Point) float64 {
	if len(pts) == 0 {
		return math.Inf(1)
	}
	if len(pts) == 1 {
		return Distance(p, pts[0])
	}

	min := math.Inf(1)
	for i := 0; i < len(pts)-1; i++ {
		if d := DistanceToSegment(p, pts[i], pts[i+1]); d < min {
			min = d
		}
	}
	return min
}

// DistanceToRect returns the distance from p to the rectangle spanned by two
// opposite corners. Points inside the rectangle are distance zero.
func DistanceToRect(p, c1, c2 models.Point) float64 {
	minX := math.Min(c1.X, c2.X)
	maxX := math.Max(c1.X, c2.X)
	minY := math.Min(c1.Y, c2.Y)
	maxY := math.Max(c1.Y, c2.Y)

	dx := math.Max(math.Max(minX-p.X, 0), p.X-maxX)
	dy := math.Max(math.Max(minY-p.Y, 0), p.Y-maxY)
	return math.Hypot(dx, dy)
}

// DistanceToEllipse returns an approximate distance from p to the ellipse
// inscribed in the rectangle spanned by two opposite corners. Inside counts
// as zero, matching the fill-area hit behavior of the rectangle test.
func DistanceToEllipse(p, c1, c2 models.Point) float64 {
	cx := (c1.X + c2.X) / 2
	cy := (c1.Y + c2.Y) / 2
	rx := math.Abs(c2.X-c1.X) / 2
	ry := math.Abs(c2.Y-c1.Y) / 2
	if rx == 0 || ry == 0 {
		return DistanceToSegment(p, c1, c2)
	}

	// Normalized radial position: <=1 means inside.
	nx := (p.X - cx) / rx
	ny := (p.Y - cy) / ry
	r := math.Hypot(nx, ny)
	if r <= 1 {
		return 0
	}

	// Scale back by the smaller radius for a conservative estimate.
	return (r - 1) * math.Min(rx, ry)
}
