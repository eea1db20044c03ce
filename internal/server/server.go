package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldline/planview/internal/annotation"
	"github.com/fieldline/planview/internal/backend"
	"github.com/fieldline/planview/internal/cache"
	"github.com/fieldline/planview/internal/config"
	"github.com/fieldline/planview/internal/measure"
	"github.com/fieldline/planview/internal/pdf"
	"github.com/fieldline/planview/pkg/logger"
)

var errBadDrawingID = errors.New("invalid drawing id")

// drawingsBucket is the storage bucket holding drawing PDFs on the backend.
const drawingsBucket = "drawings"

// signTTL bounds how long a fetched download link stays valid.
const signTTL = 15 * time.Minute

// Server exposes the drawing subsystem over HTTP so the mobile clients can
// share one renderer, cache, annotation session, and calibration scale.
//
// One measurement engine serves the whole process: sheets in a session
// share a scale until it is reset.
type Server struct {
	cfg     *config.Config
	log     *logger.Logger
	bitmaps *cache.BitmapCache
	engine  *measure.Engine
	backend *backend.Client

	mu        sync.Mutex
	renderers map[string]*pdf.CachedRenderer
	stores    map[string]*annotation.Store
}

// New assembles a server around the shared cache and session state. The
// backend client may be nil for offline use.
func New(cfg *config.Config, client *backend.Client, log *logger.Logger) *Server {
	return &Server{
		cfg:       cfg,
		log:       log,
		bitmaps:   cache.New(cfg.CacheBudgetBytes()),
		engine:    measure.NewEngine(),
		backend:   client,
		renderers: make(map[string]*pdf.CachedRenderer),
		stores:    make(map[string]*annotation.Store),
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.GET("/drawings", s.handleListDrawings)
	r.GET("/drawings/:id/info", s.handleDrawingInfo)
	r.GET("/drawings/:id/pages/:page/bitmap", s.handleBitmap)

	r.POST("/drawings/:id/annotations", s.handleAddAnnotation)
	r.GET("/drawings/:id/annotations", s.handleListAnnotations)
	r.POST("/drawings/:id/annotations/hit-test", s.handleHitTest)
	r.DELETE("/drawings/:id/annotations/:annID", s.handleRemoveAnnotation)
	r.DELETE("/drawings/:id/annotations", s.handleClearAnnotations)

	r.GET("/calibration", s.handleCalibrationState)
	r.POST("/calibration", s.handleCalibrate)
	r.DELETE("/calibration", s.handleResetCalibration)

	r.POST("/measure/distance", s.handleMeasureDistance)
	r.POST("/measure/area", s.handleMeasureArea)

	return r
}

// Close releases every open document.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.renderers {
		if err := r.Close(); err != nil {
			s.log.Info("Error closing drawing %s: %v", id, err)
		}
	}
	s.renderers = make(map[string]*pdf.CachedRenderer)
}

// drawingPath resolves a drawing id to a file under the drawings dir,
// refusing anything that escapes it.
func (s *Server) drawingPath(id string) (string, error) {
	if id == "" || strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("id %q: %w", id, errBadDrawingID)
	}
	return filepath.Join(s.cfg.DrawingsDir, id+".pdf"), nil
}

// locate resolves a drawing id to an on-disk file: the drawings dir first,
// then the local cache of fetched drawings, then the backend. Without a
// backend the drawings-dir path is returned as-is so the caller surfaces
// the usual not-found error.
func (s *Server) locate(ctx context.Context, id string) (string, error) {
	local, err := s.drawingPath(id)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	cached := filepath.Join(s.cfg.CacheDir, id+".pdf")
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}

	if s.backend == nil {
		return local, nil
	}
	if err := s.fetch(ctx, id, cached); err != nil {
		return "", err
	}
	return cached, nil
}

// fetch pulls a drawing from the backend into the cache dir: look up its
// record, sign a download URL for its stored file, stream it to destPath.
func (s *Server) fetch(ctx context.Context, id, destPath string) error {
	d, err := s.backend.GetDrawing(ctx, id)
	if err != nil {
		return fmt.Errorf("looking up drawing %s: %w", id, err)
	}
	if d.FileURL == "" {
		return fmt.Errorf("drawing %s has no stored file", id)
	}

	signed, err := s.backend.SignURL(ctx, drawingsBucket, d.FileURL, signTTL)
	if err != nil {
		return fmt.Errorf("signing download for drawing %s: %w", id, err)
	}

	if err := os.MkdirAll(s.cfg.CacheDir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	s.log.Info("Fetching drawing %s into %s", id, destPath)
	return s.backend.Download(ctx, signed, destPath)
}

// renderer returns the open document for a drawing, opening it on first use.
// The mutex is not held across locate, which may hit the network.
func (s *Server) renderer(ctx context.Context, id string) (*pdf.CachedRenderer, error) {
	s.mu.Lock()
	if r, ok := s.renderers[id]; ok {
		s.mu.Unlock()
		return r, nil
	}
	s.mu.Unlock()

	path, err := s.locate(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.renderers[id]; ok {
		return r, nil
	}

	r, err := pdf.OpenCached(path, s.bitmaps, s.log)
	if err != nil {
		return nil, err
	}
	s.renderers[id] = r
	return r, nil
}

// store returns the session annotation store for a drawing.
func (s *Server) store(id string) *annotation.Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stores[id]
	if !ok {
		st = annotation.NewStore()
		s.stores[id] = st
	}
	return st
}
