// Package generator exposes the feed build API for go-blog hosts.
// Use NewService with Config and Dependencies to load posts and write RSS, Atom, and sitemap artifacts.
package generator

import internal "github.com/goliatone/go-blog/internal/generator"

type (
	Service      = internal.Service
	Config       = internal.Config
	BuildOptions = internal.BuildOptions
	BuildResult  = internal.BuildResult
	Artifact     = internal.Artifact
	ArtifactKind = internal.ArtifactKind
	Dependencies = internal.Dependencies
	PostSource   = internal.PostSource
)

const (
	KindRSS      = internal.KindRSS
	KindAtom     = internal.KindAtom
	KindSitemap  = internal.KindSitemap
	KindManifest = internal.KindManifest
)

var (
	ErrLoaderRequired  = internal.ErrLoaderRequired
	ErrCatalogRequired = internal.ErrCatalogRequired
)

// NewService wires a feed generator with the supplied configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	return internal.NewService(cfg, deps)
}
