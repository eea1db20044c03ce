package prefetch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/fieldline/planview/internal/pdf"
	"github.com/fieldline/planview/pkg/logger"
)

// Job names one page render to warm.
type Job struct {
	Page  int
	Width int
}

// Warmer fans page renders out to a small worker pool so a sheet set is
// rasterized before the user pages through it. Rendering through a
// CachedRenderer is what makes warming stick.
type Warmer struct {
	workers int
	logger  *logger.Logger
}

func New(workers int, log *logger.Logger) *Warmer {
	if workers <= 0 {
		workers = 3
	}
	return &Warmer{workers: workers, logger: log}
}

// WarmDocument renders every page of the document at the given width.
func (w *Warmer) WarmDocument(ctx context.Context, renderer pdf.Renderer, width int) error {
	jobs := make([]Job, 0, renderer.PageCount())
	for page := 0; page < renderer.PageCount(); page++ {
		jobs = append(jobs, Job{Page: page, Width: width})
	}
	return w.Warm(ctx, renderer, jobs)
}

// Warm runs the given render jobs. The first failure cancels the rest.
func (w *Warmer) Warm(ctx context.Context, renderer pdf.Renderer, jobs []Job) error {
	g, ctx := errgroup.WithContext(ctx)
	queue := make(chan Job)

	g.Go(func() error {
		defer close(queue)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case queue <- job:
			}
		}
		return nil
	})

	for i := 0; i < w.workers; i++ {
		worker := i + 1
		g.Go(func() error {
			for job := range queue {
				w.logger.Trace("Worker %d warming page %d at width %d", worker, job.Page, job.Width)
				if _, err := renderer.RenderPage(ctx, job.Page, job.Width); err != nil {
					return fmt.Errorf("worker %d failed on page %d: %w", worker, job.Page, err)
				}
			}
			return nil
		})
	}

	return g.Wait()
}
