package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fieldline/planview/pkg/utils"
)

type Config struct {
	DrawingsDir string `yaml:"drawings_dir"`
	CacheDir    string `yaml:"cache_dir"`
	RenderWidth int    `yaml:"render_width"`

	Cache struct {
		BudgetMB int `yaml:"budget_mb"`
	} `yaml:"cache"`

	Prefetch struct {
		Workers int `yaml:"workers"`
	} `yaml:"prefetch"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Backend struct {
		URL    string `yaml:"url"`
		APIKey string `yaml:"api_key"`
		Token  string `yaml:"token"`
	} `yaml:"backend"`
}

// Load reads the YAML config, fills defaults, then applies environment
// overrides for the backend credentials. A missing config file is not an
// error; defaults plus environment carry a local session.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if cfg.DrawingsDir == "" {
		cfg.DrawingsDir = "./drawings"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = utils.DefaultCacheDir()
	}
	if cfg.RenderWidth <= 0 {
		cfg.RenderWidth = 2048
	}
	if cfg.Cache.BudgetMB <= 0 {
		cfg.Cache.BudgetMB = 64
	}
	if cfg.Prefetch.Workers <= 0 {
		cfg.Prefetch.Workers = 3
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	applyEnv(&cfg)
	return &cfg, nil
}

// applyEnv layers `.env` and process environment over the file. Credentials
// never belong in the YAML checked into a project share.
func applyEnv(cfg *Config) {
	// Missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	if v := os.Getenv("PLANVIEW_BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("PLANVIEW_API_KEY"); v != "" {
		cfg.Backend.APIKey = v
	}
	if v := os.Getenv("PLANVIEW_TOKEN"); v != "" {
		cfg.Backend.Token = v
	}
	if v := os.Getenv("PLANVIEW_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// CacheBudgetBytes returns the bitmap cache budget in bytes.
func (c *Config) CacheBudgetBytes() int64 {
	return int64(c.Cache.BudgetMB) * 1024 * 1024
}
