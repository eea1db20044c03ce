package server

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldline/planview/internal/annotation"
	"github.com/fieldline/planview/internal/backend"
	"github.com/fieldline/planview/internal/measure"
	"github.com/fieldline/planview/internal/pdf"
	"github.com/fieldline/planview/internal/scanner"
	"github.com/fieldline/planview/pkg/geometry"
	"github.com/fieldline/planview/pkg/models"
)

func (s *Server) handleHealth(c *gin.Context) {
	hits, misses := s.bitmaps.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"cache_bytes": s.bitmaps.Size(),
		"cache_hits":  hits,
		"cache_miss":  misses,
	})
}

func (s *Server) handleListDrawings(c *gin.Context) {
	finder := scanner.New(s.log)
	found, err := finder.FindDrawings(c.Request.Context(), s.cfg.DrawingsDir)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]gin.H, 0, len(found))
	for _, f := range found {
		out = append(out, gin.H{"path": f.RelativePath})
	}
	c.JSON(http.StatusOK, gin.H{"drawings": out})
}

func (s *Server) handleDrawingInfo(c *gin.Context) {
	r, err := s.renderer(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	pages := make([]models.PageDimensions, 0, r.PageCount())
	for page := 0; page < r.PageCount(); page++ {
		dims, err := r.PageDims(page)
		if err != nil {
			s.fail(c, err)
			return
		}
		pages = append(pages, dims)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         c.Param("id"),
		"page_count": r.PageCount(),
		"pages":      pages,
	})
}

func (s *Server) handleBitmap(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be an integer"})
		return
	}

	width := s.cfg.RenderWidth
	if q := c.Query("width"); q != "" {
		width, err = strconv.Atoi(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "width must be an integer"})
			return
		}
	}

	r, err := s.renderer(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	img, err := r.RenderPage(c.Request.Context(), page, width)
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleAddAnnotation(c *gin.Context) {
	var a models.Annotation
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.DrawingID = c.Param("id")

	added, err := s.store(a.DrawingID).Add(a)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

func (s *Server) handleListAnnotations(c *gin.Context) {
	st := s.store(c.Param("id"))

	if q := c.Query("page"); q != "" {
		page, err := strconv.Atoi(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be an integer"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"annotations": st.ListPage(page)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"annotations": st.List()})
}

type hitTestRequest struct {
	Page     int               `json:"page"`
	Point    models.Point      `json:"point"`
	Viewport geometry.Viewport `json:"viewport"`
	InScreen bool              `json:"in_screen"`
}

func (s *Server) handleHitTest(c *gin.Context) {
	var req hitTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	point := req.Point
	tol := geometry.TapTolerance
	if req.InScreen {
		if !req.Viewport.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "viewport zoom must be positive"})
			return
		}
		point = req.Viewport.ScreenToPage(req.Point)
		tol = req.Viewport.PageTolerance()
	}

	hit, ok := s.store(c.Param("id")).HitTest(req.Page, point, tol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no annotation at point"})
		return
	}
	c.JSON(http.StatusOK, hit)
}

func (s *Server) handleRemoveAnnotation(c *gin.Context) {
	if err := s.store(c.Param("id")).Remove(c.Param("annID")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleClearAnnotations(c *gin.Context) {
	id := c.Param("id")
	removed := s.store(id).Clear()

	// Mirror the delete-all to the backend when one is configured; local
	// state already cleared either way.
	if s.backend != nil {
		if err := s.backend.DeleteAnnotations(c.Request.Context(), id); err != nil {
			s.log.Info("Backend annotation delete failed for %s: %v", id, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) handleCalibrationState(c *gin.Context) {
	scale, known := s.engine.Scale()
	c.JSON(http.StatusOK, gin.H{
		"state":       s.engine.State().String(),
		"scale_known": known,
		"scale":       scale,
	})
}

type calibrateRequest struct {
	P1       models.Point `json:"p1"`
	P2       models.Point `json:"p2"`
	Distance float64      `json:"distance"`
	Unit     string       `json:"unit"`
}

func (s *Server) handleCalibrate(c *gin.Context) {
	var req calibrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit, err := measure.ParseUnit(req.Unit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.engine.SetScale(req.P1, req.P2, req.Distance, unit); err != nil {
		s.fail(c, err)
		return
	}

	scale, _ := s.engine.Scale()
	c.JSON(http.StatusOK, gin.H{"scale": scale})
}

func (s *Server) handleResetCalibration(c *gin.Context) {
	s.engine.Reset()
	c.Status(http.StatusNoContent)
}

type measureRequest struct {
	P1 models.Point `json:"p1"`
	P2 models.Point `json:"p2"`
}

func (s *Server) handleMeasureDistance(c *gin.Context) {
	var req measureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feet, err := s.engine.Distance(req.P1, req.P2)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"feet":  feet,
		"label": measure.FormatFeetInches(feet),
	})
}

func (s *Server) handleMeasureArea(c *gin.Context) {
	var req measureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sqft, err := s.engine.Area(req.P1, req.P2)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"square_feet": sqft,
		"label":       measure.FormatArea(sqft),
	})
}

// fail maps domain errors to HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, annotation.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pdf.ErrPageOutOfRange):
		status = http.StatusNotFound
	case errors.Is(err, os.ErrNotExist):
		status = http.StatusNotFound
	case errors.Is(err, backend.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errBadDrawingID),
		errors.Is(err, pdf.ErrBadRenderWidth),
		errors.Is(err, annotation.ErrInvalidKind),
		errors.Is(err, annotation.ErrNoGeometry),
		errors.Is(err, measure.ErrInvalidDistance),
		errors.Is(err, measure.ErrZeroSegment):
		status = http.StatusBadRequest
	case errors.Is(err, measure.ErrNotCalibrated),
		errors.Is(err, measure.ErrNoPendingPoint):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.log.Info("Request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
