package annotation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/planview/pkg/geometry"
	"github.com/fieldline/planview/pkg/models"
)

var (
	ErrNotFound    = errors.New("annotation not found")
	ErrInvalidKind = errors.New("unknown annotation kind")
	ErrNoGeometry  = errors.New("annotation has no points")
)

// Store holds the annotations drawn during a viewing session, keyed by ID
// and ordered by creation. Geometry lives in page coordinates; the overlay
// re-projects to screen space each frame, so nothing here depends on the
// viewport. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]int
	items []models.Annotation
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{
		byID: make(map[string]int),
	}
}

// Add validates and stores a shape, assigning its ID and timestamp.
func (s *Store) Add(a models.Annotation) (models.Annotation, error) {
	if !a.Kind.Valid() {
		return models.Annotation{}, fmt.Errorf("kind %q: %w", a.Kind, ErrInvalidKind)
	}
	if len(a.Points) == 0 {
		return models.Annotation{}, ErrNoGeometry
	}
	if a.Page < 0 {
		return models.Annotation{}, fmt.Errorf("page %d is negative", a.Page)
	}

	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[a.ID] = len(s.items)
	s.items = append(s.items, a)
	return a, nil
}

// Get returns one annotation by ID.
func (s *Store) Get(id string) (models.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return models.Annotation{}, ErrNotFound
	}
	return s.items[idx], nil
}

// List returns every annotation in creation order.
func (s *Store) List() []models.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Annotation, len(s.items))
	copy(out, s.items)
	return out
}

// ListPage returns the annotations on one page, in creation order.
func (s *Store) ListPage(page int) []models.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Annotation
	for _, a := range s.items {
		if a.Page == page {
			out = append(out, a)
		}
	}
	return out
}

// Remove deletes one annotation by ID.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}

	s.items = append(s.items[:idx], s.items[idx+1:]...)
	delete(s.byID, id)
	for i := idx; i < len(s.items); i++ {
		s.byID[s.items[i].ID] = i
	}
	return nil
}

// Clear drops every annotation and reports how many were removed. This backs
// the delete-all call.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.items)
	s.items = nil
	s.byID = make(map[string]int)
	return n
}

// Len returns the number of stored annotations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// HitTest returns the topmost annotation on the page within tol page units
// of the point. Topmost means most recently created, matching draw order.
func (s *Store) HitTest(page int, p models.Point, tol float64) (models.Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.items) - 1; i >= 0; i-- {
		a := s.items[i]
		if a.Page != page {
			continue
		}
		if hitDistance(a, p) <= tol {
			return a, true
		}
	}
	return models.Annotation{}, false
}

// hitDistance computes the page-space distance from p to the shape, using
// the geometry the tool kind implies.
func hitDistance(a models.Annotation, p models.Point) float64 {
	pts := a.Points
	switch a.Kind {
	case models.KindPin, models.KindText:
		return geometry.Distance(p, pts[0])
	case models.KindLine, models.KindArrow:
		if len(pts) < 2 {
			return geometry.Distance(p, pts[0])
		}
		return geometry.DistanceToSegment(p, pts[0], pts[1])
	case models.KindRectangle, models.KindCloud, models.KindHighlight:
		if len(pts) < 2 {
			return geometry.Distance(p, pts[0])
		}
		return geometry.DistanceToRect(p, pts[0], pts[1])
	case models.KindCircle:
		if len(pts) < 2 {
			return geometry.Distance(p, pts[0])
		}
		return geometry.DistanceToEllipse(p, pts[0], pts[1])
	case models.KindFreehand:
		return geometry.DistanceToPolyline(p, pts)
	}
	return geometry.DistanceToPolyline(p, pts)
}
