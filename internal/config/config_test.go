package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fieldline/planview/internal/config"
	"github.com/fieldline/planview/pkg/utils"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "planview-config-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
		os.Unsetenv("PLANVIEW_BACKEND_URL")
		os.Unsetenv("PLANVIEW_TOKEN")
	})

	It("should apply defaults for a missing file", func() {
		cfg, err := config.Load(filepath.Join(dir, "absent.yaml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.DrawingsDir).To(Equal("./drawings"))
		Expect(cfg.CacheDir).To(Equal(utils.DefaultCacheDir()))
		Expect(cfg.RenderWidth).To(Equal(2048))
		Expect(cfg.Cache.BudgetMB).To(Equal(64))
		Expect(cfg.Prefetch.Workers).To(Equal(3))
		Expect(cfg.Server.Addr).To(Equal(":8080"))
		Expect(cfg.CacheBudgetBytes()).To(Equal(int64(64 * 1024 * 1024)))
	})

	It("should read values from YAML", func() {
		path := filepath.Join(dir, "config.yaml")
		Expect(os.WriteFile(path, []byte(`
drawings_dir: /srv/drawings
render_width: 4096
cache:
  budget_mb: 128
server:
  addr: ":9090"
backend:
  url: https://example.supabase.co
`), 0644)).To(Succeed())

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.DrawingsDir).To(Equal("/srv/drawings"))
		Expect(cfg.RenderWidth).To(Equal(4096))
		Expect(cfg.Cache.BudgetMB).To(Equal(128))
		Expect(cfg.Server.Addr).To(Equal(":9090"))
		Expect(cfg.Backend.URL).To(Equal("https://example.supabase.co"))
	})

	It("should let the environment override backend settings", func() {
		path := filepath.Join(dir, "config.yaml")
		Expect(os.WriteFile(path, []byte("backend:\n  url: https://file.example\n"), 0644)).To(Succeed())

		os.Setenv("PLANVIEW_BACKEND_URL", "https://env.example")
		os.Setenv("PLANVIEW_TOKEN", "secret-token")

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Backend.URL).To(Equal("https://env.example"))
		Expect(cfg.Backend.Token).To(Equal("secret-token"))
	})

	It("should reject malformed YAML", func() {
		path := filepath.Join(dir, "config.yaml")
		Expect(os.WriteFile(path, []byte("drawings_dir: [unterminated"), 0644)).To(Succeed())

		_, err := config.Load(path)
		Expect(err).To(HaveOccurred())
	})
})
