package pdf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/fieldline/planview/pkg/models"
)

// Info summarizes a drawing file before it is handed to the rasterizer.
type Info struct {
	Path      string
	PageCount int
	Pages     []models.PageDimensions
}

// Inspect validates a drawing file with pdfcpu and collects page geometry.
// A file that fails validation is rejected before MuPDF ever touches it.
func Inspect(path string) (*Info, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return nil, fmt.Errorf("drawing failed validation: %w", err)
	}

	count, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	dims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	pages := make([]models.PageDimensions, 0, len(dims))
	for _, dim := range dims {
		pages = append(pages, models.PageDimensions{
			Width:  dim.Width,
			Height: dim.Height,
		})
	}

	return &Info{
		Path:      path,
		PageCount: count,
		Pages:     pages,
	}, nil
}

// Title-block fields commonly printed on construction sheets. The value is
// whatever follows the label on the same line.
var titleBlockLabels = map[string]*regexp.Regexp{
	"sheet":    regexp.MustCompile(`(?i)\bSHEET(?:\s*(?:NO|NUMBER))?\.?[:#]?\s*([A-Z]{1,3}[-.]?\d[\d.]*)`),
	"revision": regexp.MustCompile(`(?i)\bREV(?:ISION)?\.?[:#]?\s*([A-Z0-9]{1,4})\b`),
	"scale":    regexp.MustCompile(`(?i)\bSCALE[:#]?\s*([\d/]+"\s*=\s*[\d'\-]+["']?|AS NOTED|NTS)`),
	"date":     regexp.MustCompile(`(?i)\bDATE[:#]?\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`),
}

// ExtractTitleBlock scrapes recognizable title-block fields from page text.
// Missing fields are simply absent from the result.
func ExtractTitleBlock(text string) map[string]string {
	fields := make(map[string]string)
	for name, re := range titleBlockLabels {
		if m := re.FindStringSubmatch(text); m != nil {
			fields[name] = strings.TrimSpace(m[1])
		}
	}
	return fields
}
