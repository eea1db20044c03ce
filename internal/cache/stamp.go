package cache

import (
	"fmt"
	"os"
)

// Stamp derives the DocID for a drawing file from its current size and
// modification time.
func Stamp(path string) (DocID, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DocID{}, fmt.Errorf("failed to stat drawing file: %w", err)
	}
	return DocID{
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
	}, nil
}
