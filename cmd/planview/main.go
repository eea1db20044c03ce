package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fieldline/planview/internal/cache"
	"github.com/fieldline/planview/internal/config"
	"github.com/fieldline/planview/internal/measure"
	"github.com/fieldline/planview/internal/pdf"
	"github.com/fieldline/planview/internal/prefetch"
	"github.com/fieldline/planview/internal/scanner"
	"github.com/fieldline/planview/pkg/logger"
	"github.com/fieldline/planview/pkg/models"
	"github.com/fieldline/planview/pkg/updater"
	"github.com/fieldline/planview/pkg/version"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	drawingsDir := flag.String("drawings-dir", "", "directory containing drawing PDFs (overrides config)")
	drawing := flag.String("drawing", "", "render a single drawing instead of scanning the directory")
	outputDir := flag.String("output-dir", "rendered", "directory to save rendered pages")
	width := flag.Int("width", 0, "target bitmap width in pixels (overrides config)")
	warm := flag.Bool("prefetch", false, "pre-render every page of each drawing into the cache")
	calibrate := flag.String("calibrate", "", "calibration as 'x1,y1 x2,y2 distance unit' applied before -measure")
	measureFlag := flag.String("measure", "", "measure 'x1,y1 x2,y2' in page points using the calibrated scale")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	debug := flag.Bool("debug", false, "enable debug mode with trace logging")
	showVersion := flag.Bool("version", false, "print version information and exit")
	checkUpdate := flag.Bool("check-update", false, "check for a newer release and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetDetailedVersionInfo())
		os.Exit(0)
	}

	logOptions := []logger.Option{
		logger.WithPrefix("[planview] "),
	}

	log := logger.New(logOptions...)
	log.SetVerbose(*verbose)

	if *debug {
		log.SetLevel(logger.LevelTrace)
	}

	if *checkUpdate {
		checker := updater.NewChecker(log)
		info, err := checker.CheckForUpdates()
		if err != nil {
			log.Fatal("Update check failed: %v", err)
		}
		if info.IsAvailable {
			fmt.Printf("Update available: %s -> %s\n%s\n", info.CurrentVersion, info.LatestVersion, info.DownloadURL)
		} else {
			fmt.Printf("PlanView %s is up to date\n", info.CurrentVersion)
		}
		os.Exit(0)
	}

	if *measureFlag != "" {
		if err := runMeasure(*calibrate, *measureFlag); err != nil {
			log.Fatal("Measurement failed: %v", err)
		}
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Error loading config: %v", err)
	}

	if *drawingsDir != "" {
		cfg.DrawingsDir = *drawingsDir
	}
	if *width > 0 {
		cfg.RenderWidth = *width
	}

	bitmaps := cache.New(cfg.CacheBudgetBytes())

	var drawings []scanner.DrawingFile
	if *drawing != "" {
		drawings = []scanner.DrawingFile{{
			AbsolutePath: *drawing,
			RelativePath: filepath.Base(*drawing),
		}}
	} else {
		if _, err := os.Stat(cfg.DrawingsDir); os.IsNotExist(err) {
			log.Fatal("Drawings directory does not exist: %s", cfg.DrawingsDir)
		}

		dirScanner := scanner.New(log)

		log.Info("Scanning directory: %s", cfg.DrawingsDir)
		drawings, err = dirScanner.FindDrawings(context.Background(), cfg.DrawingsDir)
		if err != nil {
			log.Fatal("Error finding drawings: %v", err)
		}
	}

	log.Info("Found %d drawings", len(drawings))

	if *warm {
		warmer := prefetch.New(cfg.Prefetch.Workers, log)
		for _, d := range drawings {
			renderer, err := pdf.OpenCached(d.AbsolutePath, bitmaps, log)
			if err != nil {
				log.Error("Error opening %s: %v", d.RelativePath, err)
				continue
			}
			if err := warmer.WarmDocument(context.Background(), renderer, cfg.RenderWidth); err != nil {
				log.Error("Error prefetching %s: %v", d.RelativePath, err)
			}
			renderer.Close()
		}
		hits, misses := bitmaps.Stats()
		log.Info("Cache warmed: %d entries, %d bytes (hits=%d misses=%d)", bitmaps.Len(), bitmaps.Size(), hits, misses)
		return
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatal("Error creating output directory: %v", err)
	}

	for _, d := range drawings {
		if err := renderDrawing(context.Background(), d, *outputDir, cfg.RenderWidth, bitmaps, log); err != nil {
			log.Error("Error rendering %s: %v", d.RelativePath, err)
		}
	}
}

func renderDrawing(ctx context.Context, d scanner.DrawingFile, outputDir string, width int, bitmaps *cache.BitmapCache, log *logger.Logger) error {
	renderer, err := pdf.OpenCached(d.AbsolutePath, bitmaps, log)
	if err != nil {
		return err
	}
	defer renderer.Close()

	base := strings.TrimSuffix(filepath.Base(d.RelativePath), filepath.Ext(d.RelativePath))

	for page := 0; page < renderer.PageCount(); page++ {
		img, err := renderer.RenderPage(ctx, page, width)
		if err != nil {
			return fmt.Errorf("rendering page %d: %w", page, err)
		}

		outPath := filepath.Join(outputDir, fmt.Sprintf("%s-page-%d.png", base, page+1))
		if err := pdf.SavePNG(img, outPath); err != nil {
			return fmt.Errorf("saving page %d: %w", page, err)
		}

		log.Debug("Rendered %s page %d -> %s", d.RelativePath, page+1, outPath)
	}

	log.Info("Rendered %d pages of %s", renderer.PageCount(), d.RelativePath)
	return nil
}

// runMeasure performs a one-shot calibrate-then-measure on the command line.
// The calibration spec pins two page points to a known real distance; the
// measurement spec is then reported in feet and inches.
func runMeasure(calibrateSpec, measureSpec string) error {
	if calibrateSpec == "" {
		return fmt.Errorf("-measure requires -calibrate")
	}

	engine := measure.NewEngine()

	c1, c2, rest, err := parsePointPair(calibrateSpec)
	if err != nil {
		return fmt.Errorf("parsing -calibrate: %w", err)
	}
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return fmt.Errorf("parsing -calibrate: expected 'x1,y1 x2,y2 distance unit'")
	}
	var distance float64
	if _, err := fmt.Sscanf(fields[0], "%f", &distance); err != nil {
		return fmt.Errorf("parsing -calibrate distance: %w", err)
	}
	unit, err := measure.ParseUnit(fields[1])
	if err != nil {
		return fmt.Errorf("parsing -calibrate unit: %w", err)
	}

	if err := engine.SetScale(c1, c2, distance, unit); err != nil {
		return err
	}

	m1, m2, rest, err := parsePointPair(measureSpec)
	if err != nil {
		return fmt.Errorf("parsing -measure: %w", err)
	}
	if strings.TrimSpace(rest) != "" {
		return fmt.Errorf("parsing -measure: expected 'x1,y1 x2,y2'")
	}

	feet, err := engine.Distance(m1, m2)
	if err != nil {
		return err
	}

	fmt.Println(measure.FormatFeetInches(feet))
	return nil
}

// parsePointPair reads two 'x,y' tokens off the front of spec and returns
// whatever trails them.
func parsePointPair(spec string) (models.Point, models.Point, string, error) {
	fields := strings.Fields(spec)
	if len(fields) < 2 {
		return models.Point{}, models.Point{}, "", fmt.Errorf("expected two 'x,y' points")
	}

	parse := func(tok string) (models.Point, error) {
		var p models.Point
		if _, err := fmt.Sscanf(tok, "%f,%f", &p.X, &p.Y); err != nil {
			return models.Point{}, fmt.Errorf("invalid point %q: %w", tok, err)
		}
		return p, nil
	}

	p1, err := parse(fields[0])
	if err != nil {
		return models.Point{}, models.Point{}, "", err
	}
	p2, err := parse(fields[1])
	if err != nil {
		return models.Point{}, models.Point{}, "", err
	}

	return p1, p2, strings.Join(fields[2:], " "), nil
}
