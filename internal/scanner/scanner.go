package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fieldline/planview/pkg/logger"
)

// DrawingFile is a PDF found in a local drawing set directory.
type DrawingFile struct {
	AbsolutePath string
	RelativePath string
}

type DirectoryScanner struct {
	logger *logger.Logger
}

func New(log *logger.Logger) *DirectoryScanner {
	return &DirectoryScanner{logger: log}
}

// FindDrawings walks dir and returns every PDF under it, relative paths
// preserved so sheet numbering by folder survives.
func (s *DirectoryScanner) FindDrawings(ctx context.Context, dir string) ([]DrawingFile, error) {
	var drawings []DrawingFile

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			s.logger.Debug("Scanning directory: %s", path)
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			relPath = path
		}

		drawings = append(drawings, DrawingFile{
			AbsolutePath: path,
			RelativePath: relPath,
		})
		return nil
	})

	if err != nil {
		return nil, err
	}

	if len(drawings) == 0 {
		return nil, fmt.Errorf("no drawing PDFs found in %s or its subdirectories", dir)
	}

	return drawings, nil
}
