package ingest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint computes the hex-encoded SHA256 digest of the raw upload
// bytes. Computed once over the exact bytes received, before any
// parsing, so it authenticates the artifact regardless of parse
// success. Provenance only; catalog identity stays (name, version).
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
