package pdf_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fieldline/planview/internal/cache"
	"github.com/fieldline/planview/internal/pdf"
	"github.com/fieldline/planview/pkg/logger"
)

func rendererTestLogger() *logger.Logger {
	log := logger.New(
		logger.WithOutput(GinkgoWriter),
		logger.WithPrefix("[pdf-test] "),
		logger.WithFlags(0),
	)
	log.SetVerbose(true)
	log.SetLevel(logger.LevelTrace)
	return log
}

var _ = Describe("Document", func() {
	var (
		doc        *pdf.Document
		testLogger *logger.Logger
		ctx        context.Context
	)

	BeforeEach(func() {
		var err error
		testLogger = rendererTestLogger()
		ctx = context.Background()
		doc, err = pdf.Open(filepath.Join("testdata", "floor_plan.pdf"), testLogger)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(doc.Close()).To(Succeed())
	})

	It("should report the page count", func() {
		Expect(doc.PageCount()).To(Equal(2))
	})

	It("should report intrinsic page dimensions in points", func() {
		dims, err := doc.PageDims(0)
		Expect(err).NotTo(HaveOccurred())
		// A1 landscape sheet.
		Expect(dims.Width).To(BeNumerically("~", 2384, 1))
		Expect(dims.Height).To(BeNumerically("~", 1684, 1))
	})

	It("should reject out-of-range pages", func() {
		_, err := doc.PageDims(2)
		Expect(err).To(MatchError(pdf.ErrPageOutOfRange))

		_, err = doc.PageDims(-1)
		Expect(err).To(MatchError(pdf.ErrPageOutOfRange))

		_, err = doc.RenderPage(ctx, 99, 1024)
		Expect(err).To(MatchError(pdf.ErrPageOutOfRange))
	})

	It("should render a page at the requested width", func() {
		img, err := doc.RenderPage(ctx, 0, 1200)
		Expect(err).NotTo(HaveOccurred())

		width := img.Bounds().Dx()
		// MuPDF rounds the raster size; allow a pixel of slack.
		Expect(width).To(BeNumerically("~", 1200, 1))

		// Aspect ratio preserved.
		ratio := float64(img.Bounds().Dy()) / float64(width)
		Expect(ratio).To(BeNumerically("~", 1684.0/2384.0, 0.01))
	})

	It("should reject nonsense widths", func() {
		_, err := doc.RenderPage(ctx, 0, 0)
		Expect(err).To(MatchError(pdf.ErrBadRenderWidth))

		_, err = doc.RenderPage(ctx, 0, -300)
		Expect(err).To(MatchError(pdf.ErrBadRenderWidth))
	})

	It("should stop when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := doc.RenderPage(cancelled, 0, 1200)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("should extract page text", func() {
		text, err := doc.Text(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(ContainSubstring("A-101"))
	})

	It("should fail to open a missing file", func() {
		_, err := pdf.Open(filepath.Join("testdata", "nope.pdf"), testLogger)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("CachedRenderer", func() {
	var (
		renderer   *pdf.CachedRenderer
		bitmaps    *cache.BitmapCache
		testLogger *logger.Logger
		ctx        context.Context
	)

	BeforeEach(func() {
		var err error
		testLogger = rendererTestLogger()
		ctx = context.Background()
		bitmaps = cache.New(cache.DefaultBudget)
		renderer, err = pdf.OpenCached(filepath.Join("testdata", "single_page.pdf"), bitmaps, testLogger)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(renderer.Close()).To(Succeed())
	})

	It("should serve repeat renders from the cache", func() {
		first, err := renderer.RenderPage(ctx, 0, 800)
		Expect(err).NotTo(HaveOccurred())

		second, err := renderer.RenderPage(ctx, 0, 800)
		Expect(err).NotTo(HaveOccurred())

		// The cache returns the stored bitmap itself, not a re-render.
		Expect(second).To(BeIdenticalTo(first))

		hits, misses := bitmaps.Stats()
		Expect(hits).To(Equal(int64(1)))
		Expect(misses).To(Equal(int64(1)))
	})

	It("should render separately per width", func() {
		_, err := renderer.RenderPage(ctx, 0, 800)
		Expect(err).NotTo(HaveOccurred())
		_, err = renderer.RenderPage(ctx, 0, 1600)
		Expect(err).NotTo(HaveOccurred())

		Expect(bitmaps.Len()).To(Equal(2))
	})
})

var _ = Describe("Inspect", func() {
	It("should validate and measure a drawing", func() {
		info, err := pdf.Inspect(filepath.Join("testdata", "floor_plan.pdf"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.PageCount).To(Equal(2))
		Expect(info.Pages).To(HaveLen(2))
		Expect(info.Pages[0].Width).To(BeNumerically("~", 2384, 1))
	})

	It("should reject a non-PDF file", func() {
		_, err := pdf.Inspect(filepath.Join("testdata", "missing.pdf"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ExtractTitleBlock", func() {
	DescribeTable("field scraping",
		func(text, field, want string) {
			fields := pdf.ExtractTitleBlock(text)
			if want == "" {
				Expect(fields).NotTo(HaveKey(field))
			} else {
				Expect(fields).To(HaveKeyWithValue(field, want))
			}
		},
		Entry("sheet number", "SHEET NO: A-101\nother", "sheet", "A-101"),
		Entry("sheet without label suffix", "SHEET: S-2.01", "sheet", "S-2.01"),
		Entry("revision", "REV: B", "revision", "B"),
		Entry("long revision label", "REVISION: 03", "revision", "03"),
		Entry("scale", `SCALE: 1/4" = 1'-0"`, "scale", `1/4" = 1'-0"`),
		Entry("scale not to scale", "SCALE: NTS", "scale", "NTS"),
		Entry("date", "DATE: 03/14/2025", "date", "03/14/2025"),
		Entry("absent field", "nothing useful here", "sheet", ""),
	)

	It("should scrape multiple fields from one page", func() {
		text := "GENERAL NOTES\nSHEET NO: A-101\nREV: B\nDATE: 03/14/2025\n"
		fields := pdf.ExtractTitleBlock(text)
		Expect(fields).To(HaveLen(3))
	})
})
