package utils

import (
	"os"
	"path/filepath"
)

// DefaultCacheDir returns where downloaded drawings and rendered pages
// land when no cache_dir is configured.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "planview-cache")
	}
	return filepath.Join(base, "planview")
}
