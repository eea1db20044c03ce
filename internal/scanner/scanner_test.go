package scanner_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fieldline/planview/internal/scanner"
	"github.com/fieldline/planview/pkg/logger"
)

var _ = Describe("DirectoryScanner", func() {
	var (
		testDir string
		s       *scanner.DirectoryScanner
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		testDir, err = os.MkdirTemp("", "scanner-test-*")
		Expect(err).NotTo(HaveOccurred())

		log := logger.New(
			logger.WithOutput(GinkgoWriter),
			logger.WithPrefix("[scanner-test] "),
			logger.WithFlags(0),
		)
		s = scanner.New(log)
		ctx = context.Background()
	})

	AfterEach(func() {
		os.RemoveAll(testDir)
	})

	touch := func(rel string) {
		path := filepath.Join(testDir, rel)
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte("%PDF-1.4"), 0644)).To(Succeed())
	}

	It("should error on a directory without drawings", func() {
		_, err := s.FindDrawings(ctx, testDir)
		Expect(err).To(HaveOccurred())
	})

	It("should find PDFs recursively with relative paths", func() {
		touch("A-101.pdf")
		touch("structural/S-201.pdf")
		touch("notes.txt")

		found, err := s.FindDrawings(ctx, testDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(HaveLen(2))

		var rels []string
		for _, f := range found {
			rels = append(rels, f.RelativePath)
		}
		Expect(rels).To(ConsistOf("A-101.pdf", filepath.Join("structural", "S-201.pdf")))
	})

	It("should match the extension case-insensitively", func() {
		touch("COVER.PDF")

		found, err := s.FindDrawings(ctx, testDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(HaveLen(1))
	})

	It("should stop when cancelled", func() {
		touch("A-101.pdf")

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := s.FindDrawings(cancelled, testDir)
		Expect(err).To(MatchError(context.Canceled))
	})
})
