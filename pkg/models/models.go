package models

import (
	"time"
)

// Point is a location on a drawing page, in PDF points. The origin is the
// top-left corner of the page, matching the rasterizer's pixel grid at 72
// dpi, so page coordinates and bitmap pixels coincide at scale 1.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PageDimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Drawing is one sheet set entry: a PDF file plus the metadata the backend
// tracks for it.
type Drawing struct {
	ID         string            `json:"id"`
	ProjectID  string            `json:"project_id"`
	Title      string            `json:"title"`
	Discipline string            `json:"discipline,omitempty"`
	Revision   string            `json:"revision,omitempty"`
	FileURL    string            `json:"file_url,omitempty"`
	LocalPath  string            `json:"-"`
	PageCount  int               `json:"page_count"`
	TitleBlock map[string]string `json:"title_block,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type Project struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Status   string `json:"status,omitempty"`
}

type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AnnotationKind string

const (
	KindPin       AnnotationKind = "pin"
	KindLine      AnnotationKind = "line"
	KindArrow     AnnotationKind = "arrow"
	KindRectangle AnnotationKind = "rectangle"
	KindCircle    AnnotationKind = "circle"
	KindFreehand  AnnotationKind = "freehand"
	KindText      AnnotationKind = "text"
	KindCloud     AnnotationKind = "cloud"
	KindHighlight AnnotationKind = "highlight"
)

// Valid reports whether k is one of the supported annotation tools.
func (k AnnotationKind) Valid() bool {
	switch k {
	case KindPin, KindLine, KindArrow, KindRectangle, KindCircle,
		KindFreehand, KindText, KindCloud, KindHighlight:
		return true
	}
	return false
}

// Annotation is a user-drawn shape anchored to document content. Geometry is
// stored in page coordinates so the shape stays put under pan and zoom.
//
// Point count by kind: pin and text carry one point, line and arrow two
// (start, end), rectangle, circle, cloud and highlight two (opposite
// corners of the bounding box), freehand any number along the stroke.
type Annotation struct {
	ID        string         `json:"id"`
	DrawingID string         `json:"drawing_id"`
	Page      int            `json:"page"`
	Kind      AnnotationKind `json:"kind"`
	Color     string         `json:"color,omitempty"`
	Points    []Point        `json:"points"`
	Text      string         `json:"text,omitempty"`
	Label     string         `json:"label,omitempty"`
	CreatedBy string         `json:"created_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
