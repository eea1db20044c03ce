package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
)

// HashImage fingerprints a rendered page bitmap. Used to compare pages
// across drawing revisions without pixel-by-pixel diffs.
func HashImage(img *image.RGBA) string {
	hasher := sha256.New()
	hasher.Write(img.Pix)
	return hex.EncodeToString(hasher.Sum(nil))
}
