package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fieldline/planview/internal/pdf"
	"github.com/fieldline/planview/pkg/logger"
)

func main() {
	drawingPath := flag.String("file", "", "Path to drawing PDF")
	titleBlock := flag.Bool("title-block", false, "extract title block fields from each page")
	flag.Parse()

	if *drawingPath == "" {
		fmt.Println("Please provide a drawing file path using -file flag")
		os.Exit(1)
	}

	fmt.Printf("Analyzing drawing: %s\n", *drawingPath)

	info, err := pdf.Inspect(*drawingPath)
	if err != nil {
		fmt.Printf("Error inspecting drawing: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Pages: %d\n", info.PageCount)
	for i, dim := range info.Pages {
		fmt.Printf("\nPage %d:\n", i+1)
		fmt.Printf("Dimensions (Width x Height): %.3f x %.3f points\n", dim.Width, dim.Height)
	}

	if !*titleBlock {
		return
	}

	log := logger.New(logger.WithPrefix("[drawinginfo] "))

	doc, err := pdf.Open(*drawingPath, log)
	if err != nil {
		fmt.Printf("Error opening drawing: %v\n", err)
		os.Exit(1)
	}
	defer doc.Close()

	for page := 0; page < doc.PageCount(); page++ {
		text, err := doc.Text(page)
		if err != nil {
			fmt.Printf("Error reading page %d text: %v\n", page+1, err)
			continue
		}

		fields := pdf.ExtractTitleBlock(text)
		if len(fields) == 0 {
			continue
		}

		fmt.Printf("\nPage %d title block:\n", page+1)
		for key, value := range fields {
			fmt.Printf("  %s: %s\n", key, value)
		}
	}
}
