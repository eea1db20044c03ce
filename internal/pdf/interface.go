package pdf

import (
	"context"
	"image"

	"github.com/fieldline/planview/pkg/models"
)

// Renderer rasterizes drawing pages. Page numbers are zero-indexed.
type Renderer interface {
	PageCount() int
	PageDims(page int) (models.PageDimensions, error)
	RenderPage(ctx context.Context, page, targetWidth int) (*image.RGBA, error)
	Close() error
}
