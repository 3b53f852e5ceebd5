package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	manifestFileName    = ".feeds-manifest.json"
	manifestFileVersion = 1
)

// buildManifest records the artifacts of the last successful build so a
// clean build can remove outputs that are no longer produced.
type buildManifest struct {
	Version     int                         `json:"version"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Posts       int                         `json:"posts"`
	Artifacts   map[string]manifestArtifact `json:"artifacts"`
}

type manifestArtifact struct {
	Path     string       `json:"path"`
	Kind     ArtifactKind `json:"kind"`
	Category string       `json:"category,omitempty"`
	Checksum string       `json:"checksum"`
	Size     int64        `json:"size"`
	Entries  int          `json:"entries"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version:   manifestFileVersion,
		Artifacts: map[string]manifestArtifact{},
	}
}

func parseManifest(data []byte) (*buildManifest, error) {
	if len(data) == 0 {
		return newBuildManifest(), nil
	}
	var ordered struct {
		Version     int                `json:"version"`
		GeneratedAt time.Time          `json:"generated_at"`
		Posts       int                `json:"posts"`
		Artifacts   []manifestArtifact `json:"artifacts"`
	}
	if err := json.Unmarshal(data, &ordered); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	manifest := newBuildManifest()
	manifest.GeneratedAt = ordered.GeneratedAt
	manifest.Posts = ordered.Posts
	if ordered.Version != 0 {
		manifest.Version = ordered.Version
	}
	for _, entry := range ordered.Artifacts {
		manifest.setArtifact(entry)
	}
	return manifest, nil
}

func (m *buildManifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	// Stable ordering for deterministic output.
	type orderedManifest struct {
		Version     int                `json:"version"`
		GeneratedAt time.Time          `json:"generated_at"`
		Posts       int                `json:"posts"`
		Artifacts   []manifestArtifact `json:"artifacts"`
	}
	ordered := orderedManifest{
		Version:     m.Version,
		GeneratedAt: m.GeneratedAt.UTC(),
		Posts:       m.Posts,
		Artifacts:   m.sortedArtifacts(),
	}
	if ordered.Version == 0 {
		ordered.Version = manifestFileVersion
	}
	data, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("generator: encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

func (m *buildManifest) setArtifact(entry manifestArtifact) {
	if m == nil {
		return
	}
	key := strings.TrimSpace(entry.Path)
	if key == "" {
		return
	}
	if m.Artifacts == nil {
		m.Artifacts = map[string]manifestArtifact{}
	}
	m.Artifacts[key] = entry
}

func (m *buildManifest) sortedArtifacts() []manifestArtifact {
	if m == nil {
		return nil
	}
	out := make([]manifestArtifact, 0, len(m.Artifacts))
	for _, entry := range m.Artifacts {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

// stale lists artifacts recorded in m that are missing from keep.
func (m *buildManifest) stale(keep map[string]struct{}) []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, entry := range m.sortedArtifacts() {
		if _, ok := keep[entry.Path]; !ok {
			out = append(out, entry.Path)
		}
	}
	return out
}
