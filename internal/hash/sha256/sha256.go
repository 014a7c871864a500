// Package sha256 fingerprints rendered documents so operators can tell from the
// logs whether the published menu changed between cycles.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements menu.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex digest of data.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Short truncates a digest to the 12 characters used in log lines.
func Short(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}
