package acceptance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type DrawingHashes struct {
	Filename string            `json:"filename"`
	Pages    map[string]string `json:"pages"` // key is page number as string
}

// HashStore keeps known-good render hashes per drawing page. When a hash is
// on record it is enforced; unknown pages pass, so a fresh checkout runs
// green before any baseline exists. Set UPDATE_TEST_DATA=true to record the
// current renders as the new baseline.
type HashStore struct {
	path         string
	updateHashes bool
	hashes       map[string]DrawingHashes // filename -> hashes
}

func NewHashStore(testDataPath string) *HashStore {
	return &HashStore{
		path:         filepath.Join(testDataPath, "expected_hashes.json"),
		updateHashes: os.Getenv("UPDATE_TEST_DATA") == "true",
		hashes:       make(map[string]DrawingHashes),
	}
}

func (s *HashStore) Load() error {
	if s.updateHashes {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading hash store: %w", err)
	}

	var stored []DrawingHashes
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parsing hash store: %w", err)
	}

	for _, entry := range stored {
		s.hashes[entry.Filename] = entry
	}
	return nil
}

// Check records the hash in update mode, otherwise verifies it against the
// baseline when one is on record for this page.
func (s *HashStore) Check(filename string, page int, hash string) error {
	key := fmt.Sprintf("%d", page)

	if s.updateHashes {
		entry, ok := s.hashes[filename]
		if !ok {
			entry = DrawingHashes{Filename: filename, Pages: make(map[string]string)}
		}
		entry.Pages[key] = hash
		s.hashes[filename] = entry
		return nil
	}

	entry, ok := s.hashes[filename]
	if !ok {
		return nil
	}
	expected, ok := entry.Pages[key]
	if !ok {
		return nil
	}
	if expected != hash {
		return fmt.Errorf("%s page %d: render hash %s does not match baseline %s", filename, page, hash, expected)
	}
	return nil
}

func (s *HashStore) Save() error {
	if !s.updateHashes {
		return nil
	}

	entries := make([]DrawingHashes, 0, len(s.hashes))
	for _, entry := range s.hashes {
		entries = append(entries, entry)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding hash store: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}
