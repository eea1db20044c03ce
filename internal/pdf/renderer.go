package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/gen2brain/go-fitz"

	"github.com/fieldline/planview/pkg/logger"
	"github.com/fieldline/planview/pkg/models"
)

const (
	// baseDPI is the resolution at which one rendered pixel equals one PDF
	// point, so page coordinates line up with bitmap pixels at scale 1.
	baseDPI = 72.0

	// MaxRenderWidth caps the requested raster width. Construction sheets
	// are large (A1 is ~2384 points wide); anything past this burns memory
	// without helping legibility on a device screen.
	MaxRenderWidth = 8192
)

var (
	ErrPageOutOfRange = errors.New("page index out of range")
	ErrBadRenderWidth = errors.New("render width must be positive")
)

// Document wraps an open drawing file for rasterization.
type Document struct {
	path string
	doc  *fitz.Document
	log  *logger.Logger
}

// Open opens a drawing PDF for rendering.
func Open(path string, log *logger.Logger) (*Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open drawing %s: %w", path, err)
	}

	return &Document{
		path: path,
		doc:  doc,
		log:  log,
	}, nil
}

// Path returns the file the document was opened from.
func (d *Document) Path() string {
	return d.path
}

// PageCount returns the number of pages in the drawing.
func (d *Document) PageCount() int {
	return d.doc.NumPage()
}

// PageDims returns the intrinsic size of a page in PDF points.
func (d *Document) PageDims(page int) (models.PageDimensions, error) {
	if page < 0 || page >= d.doc.NumPage() {
		return models.PageDimensions{}, fmt.Errorf("page %d of %d: %w", page, d.doc.NumPage(), ErrPageOutOfRange)
	}

	bounds, err := d.doc.Bound(page)
	if err != nil {
		return models.PageDimensions{}, fmt.Errorf("failed to get bounds for page %d: %w", page, err)
	}

	return models.PageDimensions{
		Width:  float64(bounds.Dx()),
		Height: float64(bounds.Dy()),
	}, nil
}

// RenderPage rasterizes a page to an RGBA bitmap targetWidth pixels wide,
// preserving the page aspect ratio.
func (d *Document) RenderPage(ctx context.Context, page, targetWidth int) (*image.RGBA, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if targetWidth <= 0 {
		return nil, fmt.Errorf("width %d: %w", targetWidth, ErrBadRenderWidth)
	}
	if targetWidth > MaxRenderWidth {
		targetWidth = MaxRenderWidth
	}

	dims, err := d.PageDims(page)
	if err != nil {
		return nil, err
	}
	if dims.Width <= 0 {
		return nil, fmt.Errorf("page %d has no width", page)
	}

	dpi := baseDPI * float64(targetWidth) / dims.Width
	d.log.Trace("Rendering page %d of %s at %.1f dpi (%d px wide)", page, d.path, dpi, targetWidth)

	img, err := d.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}

	return img, nil
}

// Text extracts the page text, used for title-block scraping.
func (d *Document) Text(page int) (string, error) {
	if page < 0 || page >= d.doc.NumPage() {
		return "", fmt.Errorf("page %d of %d: %w", page, d.doc.NumPage(), ErrPageOutOfRange)
	}

	text, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", page, err)
	}
	return text, nil
}

// Close releases the underlying MuPDF handles.
func (d *Document) Close() error {
	return d.doc.Close()
}

// SavePNG writes a rendered bitmap to disk.
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
