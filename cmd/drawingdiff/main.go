package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fieldline/planview/internal/pdf"
	"github.com/fieldline/planview/pkg/logger"
	"github.com/fieldline/planview/pkg/utils"
)

// drawingdiff renders two revisions of a drawing at the same width and
// reports which pages changed between them.
func main() {
	oldPath := flag.String("old", "", "Path to the previous revision PDF")
	newPath := flag.String("new", "", "Path to the current revision PDF")
	width := flag.Int("width", 2048, "render width used for comparison")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	flag.Parse()

	if *oldPath == "" || *newPath == "" {
		fmt.Println("Please provide both revisions using -old and -new flags")
		os.Exit(1)
	}

	log := logger.New(logger.WithPrefix("[drawingdiff] "))
	log.SetVerbose(*verbose)

	oldDoc, err := pdf.Open(*oldPath, log)
	if err != nil {
		fmt.Printf("Error opening %s: %v\n", *oldPath, err)
		os.Exit(1)
	}
	defer oldDoc.Close()

	newDoc, err := pdf.Open(*newPath, log)
	if err != nil {
		fmt.Printf("Error opening %s: %v\n", *newPath, err)
		os.Exit(1)
	}
	defer newDoc.Close()

	if oldDoc.PageCount() != newDoc.PageCount() {
		fmt.Printf("Page count changed: %d -> %d\n", oldDoc.PageCount(), newDoc.PageCount())
	}

	pages := oldDoc.PageCount()
	if newDoc.PageCount() < pages {
		pages = newDoc.PageCount()
	}

	ctx := context.Background()
	changed := 0

	for page := 0; page < pages; page++ {
		oldImg, err := oldDoc.RenderPage(ctx, page, *width)
		if err != nil {
			fmt.Printf("Error rendering old page %d: %v\n", page+1, err)
			os.Exit(1)
		}
		newImg, err := newDoc.RenderPage(ctx, page, *width)
		if err != nil {
			fmt.Printf("Error rendering new page %d: %v\n", page+1, err)
			os.Exit(1)
		}

		oldHash := utils.HashImage(oldImg)
		newHash := utils.HashImage(newImg)

		if oldHash != newHash {
			changed++
			fmt.Printf("Page %d: CHANGED\n", page+1)
		} else {
			log.Debug("Page %d: unchanged (%s)", page+1, oldHash[:12])
		}
	}

	if changed == 0 && oldDoc.PageCount() == newDoc.PageCount() {
		fmt.Println("No changes detected")
		return
	}

	fmt.Printf("%d of %d compared pages changed\n", changed, pages)
}
