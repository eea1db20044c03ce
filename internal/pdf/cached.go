package pdf

import (
	"context"
	"fmt"
	"image"

	"github.com/fieldline/planview/internal/cache"
	"github.com/fieldline/planview/pkg/logger"
	"github.com/fieldline/planview/pkg/models"
)

// CachedRenderer fronts a Document with the shared bitmap cache. Keys carry
// the file's size and modification time, so a re-downloaded drawing never
// serves stale pages.
type CachedRenderer struct {
	doc    *Document
	docID  cache.DocID
	bitmap *cache.BitmapCache
	log    *logger.Logger
}

// OpenCached opens a drawing and binds it to the given cache.
func OpenCached(path string, bitmaps *cache.BitmapCache, log *logger.Logger) (*CachedRenderer, error) {
	docID, err := cache.Stamp(path)
	if err != nil {
		return nil, err
	}

	doc, err := Open(path, log)
	if err != nil {
		return nil, err
	}

	return &CachedRenderer{
		doc:    doc,
		docID:  docID,
		bitmap: bitmaps,
		log:    log,
	}, nil
}

func (r *CachedRenderer) PageCount() int {
	return r.doc.PageCount()
}

func (r *CachedRenderer) PageDims(page int) (models.PageDimensions, error) {
	return r.doc.PageDims(page)
}

// RenderPage returns the cached bitmap when present, rendering and storing
// it otherwise.
func (r *CachedRenderer) RenderPage(ctx context.Context, page, targetWidth int) (*image.RGBA, error) {
	if targetWidth <= 0 {
		return nil, fmt.Errorf("width %d: %w", targetWidth, ErrBadRenderWidth)
	}
	if targetWidth > MaxRenderWidth {
		targetWidth = MaxRenderWidth
	}

	key := cache.Key{Doc: r.docID, Page: page, Width: targetWidth}
	if img, ok := r.bitmap.Get(key); ok {
		r.log.Trace("Cache hit for %s page %d width %d", r.doc.Path(), page, targetWidth)
		return img, nil
	}

	img, err := r.doc.RenderPage(ctx, page, targetWidth)
	if err != nil {
		return nil, err
	}

	r.bitmap.Put(key, img)
	return img, nil
}

func (r *CachedRenderer) Close() error {
	return r.doc.Close()
}
