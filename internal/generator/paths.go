package generator

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
)

// feedPath returns <out>/<file> for the global feed and <out>/<key>/<file>
// for a category feed.
func feedPath(outputDir, categoryKey, file string) string {
	categoryKey = strings.Trim(strings.TrimSpace(categoryKey), "/")
	if categoryKey == "" {
		return joinOutputPath(outputDir, file)
	}
	return joinOutputPath(outputDir, path.Join(categoryKey, file))
}

// joinOutputPath joins rel onto base. An absolute base stays absolute.
func joinOutputPath(base string, rel string) string {
	base = strings.TrimSpace(base)
	rel = strings.TrimLeft(strings.TrimSpace(rel), "/")
	if base == "" || base == "." {
		return path.Clean(rel)
	}
	return path.Join(base, rel)
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
