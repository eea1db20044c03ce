package measure

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fieldline/planview/pkg/geometry"
	"github.com/fieldline/planview/pkg/models"
)

var (
	// ErrInvalidDistance rejects non-positive or non-finite calibration
	// input instead of dropping it silently.
	ErrInvalidDistance = errors.New("calibration distance must be a positive finite number")

	// ErrZeroSegment rejects coincident calibration points.
	ErrZeroSegment = errors.New("calibration points must not coincide")

	// ErrNotCalibrated is returned by measurements before a scale is known.
	ErrNotCalibrated = errors.New("no calibration scale set")

	// ErrNoPendingPoint is returned when completing a calibration that was
	// never started.
	ErrNoPendingPoint = errors.New("no calibration point placed")
)

// State tracks calibration progress.
type State int

const (
	StateIdle State = iota
	StateFirstPoint
	StateScaleKnown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFirstPoint:
		return "first-point-placed"
	case StateScaleKnown:
		return "scale-known"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Engine derives a drawing scale from a user-supplied reference measurement
// and computes real-world distances and areas from page-space points.
//
// The scale survives switching drawings within a session; sheets in one set
// share a scale until Reset. Starting a re-calibration leaves the previous
// scale in effect until the new one completes. Safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	pending *models.Point
	// scale is PDF points per foot; zero means not calibrated.
	scale float64
}

// NewEngine returns an engine in the idle state.
func NewEngine() *Engine {
	return &Engine{}
}

// State returns the current calibration state. A placed first point reports
// StateFirstPoint even when an earlier scale is still in effect.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.pending != nil:
		return StateFirstPoint
	case e.scale > 0:
		return StateScaleKnown
	}
	return StateIdle
}

// Scale returns points-per-foot and whether a scale is known.
func (e *Engine) Scale() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scale, e.scale > 0
}

// PlaceFirstPoint records the first calibration reference point.
func (e *Engine) PlaceFirstPoint(p models.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = &p
}

// Complete finishes calibration with the second reference point and the
// known real-world distance between the two. On failure the pending point
// is kept so the user can retry with corrected input.
func (e *Engine) Complete(second models.Point, distance float64, unit Unit) error {
	feet, err := ToFeet(distance, unit)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending == nil {
		return ErrNoPendingPoint
	}

	span := geometry.Distance(*e.pending, second)
	if span == 0 {
		return ErrZeroSegment
	}

	e.scale = span / feet
	e.pending = nil
	return nil
}

// SetScale runs the whole calibration in one call: both reference points
// plus the known distance.
func (e *Engine) SetScale(p1, p2 models.Point, distance float64, unit Unit) error {
	e.PlaceFirstPoint(p1)
	return e.Complete(p2, distance, unit)
}

// Distance returns the real-world distance in feet between two page points.
func (e *Engine) Distance(p1, p2 models.Point) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.scale <= 0 {
		return 0, ErrNotCalibrated
	}
	return geometry.Distance(p1, p2) / e.scale, nil
}

// Area returns the axis-aligned bounding area in square feet spanned by two
// opposite corner points.
func (e *Engine) Area(p1, p2 models.Point) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.scale <= 0 {
		return 0, ErrNotCalibrated
	}

	dx := p2.X - p1.X
	if dx < 0 {
		dx = -dx
	}
	dy := p2.Y - p1.Y
	if dy < 0 {
		dy = -dy
	}
	return (dx / e.scale) * (dy / e.scale), nil
}

// Reset drops the calibration from any state.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = nil
	e.scale = 0
}
