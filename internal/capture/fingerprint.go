package capture

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/edgecomet/national-treasure/pkg/types"
)

// artifactFilename maps an artifact kind to its fixed on-disk name, per spec
// §6's literal artifact layout.
func artifactFilename(kind types.ArtifactKind) string {
	switch kind {
	case types.ArtifactScreenshot:
		return "screenshot.png"
	case types.ArtifactPDF:
		return "document.pdf"
	case types.ArtifactHTML:
		return "page.html"
	case types.ArtifactWARC:
		return "capture.warc"
	default:
		return string(kind) + ".bin"
	}
}

// urlFingerprint hashes url into the stable per-URL directory name spec §6
// describes: "each capture writes to a directory keyed by a stable
// fingerprint of the URL". SHA-256 is plain stdlib hashing, not a domain
// concern any pack dependency covers (cespare/xxhash is the pack's only
// hashing library and is reserved for the out-of-scope edge-HTTP surface per
// SPEC_FULL.md), so it stays on crypto/sha256.
func urlFingerprint(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// fingerprintPath derives a stable path for an artifact from (url, kind) so
// re-capture overwrites the same file, per spec §4.5's determinism
// requirement and §6's fixed-filename-per-directory layout.
func fingerprintPath(baseDir, url string, kind types.ArtifactKind) string {
	return filepath.Join(baseDir, urlFingerprint(url), artifactFilename(kind))
}
