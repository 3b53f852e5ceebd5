package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/categories"
	"github.com/goliatone/go-blog/internal/feeds"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

var (
	// ErrLoaderRequired indicates the service was constructed without a post source.
	ErrLoaderRequired = errors.New("generator: post loader is required")
	// ErrCatalogRequired indicates the service was constructed without a category catalog.
	ErrCatalogRequired = errors.New("generator: category catalog is required")
)

const sitemapFileName = "sitemap.xml"

// Service builds feeds and listings from a content directory.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	// ContentDir is the directory, inside the loader's filesystem, holding posts.
	ContentDir string
	// OutputDir receives feed.xml and one <key>/feed.xml per category.
	OutputDir string
	FeedFile  string
	AtomFile  string
	Site      feeds.SiteInfo
	// MaxItems caps feed entries. Zero keeps every post.
	MaxItems        int
	ContentHTML     bool
	IncludeDrafts   bool
	GenerateAtom    bool
	GenerateSitemap bool
	WriteManifest   bool
	CleanBuild      bool
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	// DryRun computes every artifact without writing.
	DryRun bool
	// OutputDir overrides Config.OutputDir when set.
	OutputDir string
}

// Artifact describes one generated file.
type Artifact struct {
	Path     string
	Kind     ArtifactKind
	Category string
	Checksum string
	Size     int64
	Entries  int
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	// Paths lists the RSS feeds, global feed first then catalog order.
	Paths     []string
	Artifacts []Artifact
	// Removed lists stale outputs deleted by a clean build.
	Removed  []string
	Posts    []*interfaces.Post
	Listings []posts.Listing
	Duration time.Duration
	DryRun   bool
}

// PostSource loads posts and reports whether the content directory exists.
type PostSource interface {
	interfaces.PostLoader
	DirExists(dir string) (bool, error)
}

// Dependencies lists the collaborators required by the generator.
type Dependencies struct {
	Loader  PostSource
	Catalog *categories.Catalog
	Storage interfaces.StorageProvider
	Logger  interfaces.Logger
}

// NewService wires a generator implementation with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	cfg.FeedFile = strings.TrimSpace(cfg.FeedFile)
	if cfg.FeedFile == "" {
		cfg.FeedFile = feeds.DefaultFeedFile
	}
	cfg.AtomFile = strings.TrimSpace(cfg.AtomFile)
	if cfg.AtomFile == "" {
		cfg.AtomFile = feeds.DefaultAtomFile
	}
	if strings.TrimSpace(cfg.ContentDir) == "" {
		cfg.ContentDir = "."
	}
	cfg.Site.FeedFile = cfg.FeedFile
	cfg.Site.AtomFile = cfg.AtomFile
	if deps.Logger == nil {
		deps.Logger = logging.NoOp()
	}
	return &service{
		cfg:  cfg,
		deps: deps,
	}
}

type service struct {
	cfg  Config
	deps Dependencies
}

// pendingArtifact pairs an artifact with the bytes to write.
type pendingArtifact struct {
	Artifact
	content     []byte
	contentType string
}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Loader == nil {
		return nil, ErrLoaderRequired
	}
	if s.deps.Catalog == nil {
		return nil, ErrCatalogRequired
	}

	start := time.Now()
	ctx = logging.ContextWithFields(ctx, map[string]any{"build_id": uuid.NewString()})
	logger := s.deps.Logger.WithContext(ctx)
	outputDir := strings.TrimSpace(opts.OutputDir)
	if outputDir == "" {
		outputDir = strings.TrimSpace(s.cfg.OutputDir)
	}

	result := &BuildResult{
		Paths:     []string{},
		Artifacts: []Artifact{},
		DryRun:    opts.DryRun,
	}

	exists, err := s.deps.Loader.DirExists(s.cfg.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("generator: check content dir: %w", err)
	}
	if !exists {
		logger.Warn("generator.content.missing", "content_dir", s.cfg.ContentDir)
		result.Listings = posts.GroupByCategory(nil, s.deps.Catalog)
		result.Duration = time.Since(start)
		return result, nil
	}

	loaded, err := s.deps.Loader.LoadDirectory(ctx, s.cfg.ContentDir)
	if err != nil {
		logger.Error("generator.load.failed", "content_dir", s.cfg.ContentDir, "error", err)
		return nil, fmt.Errorf("generator: load posts: %w", err)
	}
	if !s.cfg.IncludeDrafts {
		loaded = posts.ExcludeDrafts(loaded)
	}
	result.Posts = posts.SortNewestFirst(loaded)
	result.Listings = posts.GroupByCategory(result.Posts, s.deps.Catalog)
	logger.Info("generator.posts.loaded", "posts", len(result.Posts), "categories", s.deps.Catalog.Len())

	pending, err := s.planArtifacts(ctx, outputDir, result.Posts)
	if err != nil {
		return nil, err
	}
	for _, item := range pending {
		if item.Kind == KindRSS {
			result.Paths = append(result.Paths, item.Path)
		}
		result.Artifacts = append(result.Artifacts, item.Artifact)
	}

	if opts.DryRun {
		logger.Info("generator.build.dry_run", "artifacts", len(pending))
		result.Duration = time.Since(start)
		return result, nil
	}

	writer := newArtifactWriter(s.deps.Storage)

	if s.cfg.CleanBuild {
		removed, err := s.removeStale(ctx, writer, outputDir, pending)
		if err != nil {
			return result, err
		}
		result.Removed = removed
	}

	dirCache := map[string]struct{}{}
	for _, item := range pending {
		if err := s.writeArtifact(ctx, writer, dirCache, item); err != nil {
			return result, err
		}
	}

	if s.cfg.WriteManifest {
		manifestArtifact, err := s.persistManifest(ctx, writer, dirCache, outputDir, result.Posts, pending)
		if err != nil {
			return result, err
		}
		result.Artifacts = append(result.Artifacts, manifestArtifact)
	}

	result.Duration = time.Since(start)
	logger.Info("generator.build.completed",
		"feeds", len(result.Paths),
		"artifacts", len(result.Artifacts),
		"removed", len(result.Removed),
		"duration", result.Duration.String(),
	)
	return result, nil
}

// planArtifacts renders every output in memory: the global feed, one feed per
// catalog entry and the optional sitemap.
func (s *service) planArtifacts(ctx context.Context, outputDir string, sorted []*interfaces.Post) ([]pendingArtifact, error) {
	builder := feeds.NewBuilder(s.cfg.Site, feeds.Options{
		MaxItems:    s.cfg.MaxItems,
		ContentHTML: s.cfg.ContentHTML,
	})

	keys := append([]string{""}, s.deps.Catalog.Keys()...)
	pending := make([]pendingArtifact, 0, len(keys)*2+1)

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := builder.Build(sorted, s.deps.Catalog, key)
		if err != nil {
			return nil, fmt.Errorf("generator: build feed %q: %w", key, err)
		}

		rss := feeds.RenderRSS(doc)
		pending = append(pending, newPending(feedPath(outputDir, key, s.cfg.FeedFile), KindRSS, key, len(doc.Entries), rss, "application/rss+xml"))

		if s.cfg.GenerateAtom {
			atom := feeds.RenderAtom(doc)
			pending = append(pending, newPending(feedPath(outputDir, key, s.cfg.AtomFile), KindAtom, key, len(doc.Entries), atom, "application/atom+xml"))
		}
	}

	if s.cfg.GenerateSitemap {
		sitemap := buildSitemap(s.cfg.Site.BaseURL, sorted)
		pending = append(pending, newPending(joinOutputPath(outputDir, sitemapFileName), KindSitemap, "", len(sorted), sitemap, "application/xml"))
	}
	return pending, nil
}

func newPending(target string, kind ArtifactKind, category string, entries int, content []byte, contentType string) pendingArtifact {
	return pendingArtifact{
		Artifact: Artifact{
			Path:     target,
			Kind:     kind,
			Category: category,
			Checksum: computeHash(content),
			Size:     int64(len(content)),
			Entries:  entries,
		},
		content:     content,
		contentType: contentType,
	}
}

func (s *service) writeArtifact(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, item pendingArtifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := logging.WithArtifactContext(s.deps.Logger.WithContext(ctx), item.Path, string(item.Kind))
	if err := ensureDir(ctx, writer, dirCache, path.Dir(item.Path)); err != nil {
		logger.Error("generator.artifact.mkdir_failed", "error", err)
		return fmt.Errorf("generator: ensure dir for %s: %w", item.Path, err)
	}
	metadata := map[string]string{
		"entries": strconv.Itoa(item.Entries),
	}
	if item.Category != "" {
		metadata["category"] = item.Category
	}
	if err := writer.WriteFile(ctx, writeFileRequest{
		Path:        item.Path,
		Content:     bytes.NewReader(item.content),
		Size:        item.Size,
		Kind:        item.Kind,
		ContentType: item.contentType,
		Checksum:    item.Checksum,
		Metadata:    metadata,
	}); err != nil {
		logger.Error("generator.artifact.write_failed", "error", err)
		return fmt.Errorf("generator: write %s: %w", item.Path, err)
	}
	logger.Debug("generator.artifact.written", "entries", item.Entries, "bytes", item.Size)
	return nil
}

// removeStale deletes outputs recorded by the previous manifest that this
// build no longer produces.
func (s *service) removeStale(ctx context.Context, writer artifactWriter, outputDir string, pending []pendingArtifact) ([]string, error) {
	previous, err := s.loadManifest(ctx, outputDir)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]struct{}, len(pending)+1)
	for _, item := range pending {
		keep[item.Path] = struct{}{}
	}
	keep[s.manifestTargetPath(outputDir)] = struct{}{}

	stale := previous.stale(keep)
	for _, target := range stale {
		if err := writer.Remove(ctx, target); err != nil {
			return nil, fmt.Errorf("generator: remove %s: %w", target, err)
		}
		logging.WithArtifactContext(s.deps.Logger.WithContext(ctx), target, "clean").Info("generator.artifact.removed")
	}
	return stale, nil
}

func (s *service) loadManifest(ctx context.Context, outputDir string) (*buildManifest, error) {
	if s.deps.Storage == nil {
		return newBuildManifest(), nil
	}
	rows, err := s.deps.Storage.Query(ctx, storageOpRead, s.manifestTargetPath(outputDir))
	if err != nil {
		return nil, fmt.Errorf("generator: read manifest: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return newBuildManifest(), nil
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("generator: scan manifest: %w", err)
	}
	return parseManifest(data)
}

func (s *service) manifestTargetPath(outputDir string) string {
	return joinOutputPath(outputDir, manifestFileName)
}

func (s *service) persistManifest(
	ctx context.Context,
	writer artifactWriter,
	dirCache map[string]struct{},
	outputDir string,
	sorted []*interfaces.Post,
	pending []pendingArtifact,
) (Artifact, error) {
	manifest := newBuildManifest()
	manifest.Posts = len(sorted)
	if len(sorted) > 0 {
		manifest.GeneratedAt = sorted[0].PublishedAt()
	}
	for _, item := range pending {
		manifest.setArtifact(manifestArtifact{
			Path:     item.Path,
			Kind:     item.Kind,
			Category: item.Category,
			Checksum: item.Checksum,
			Size:     item.Size,
			Entries:  item.Entries,
		})
	}
	data, err := manifest.marshal()
	if err != nil {
		return Artifact{}, err
	}
	item := newPending(s.manifestTargetPath(outputDir), KindManifest, "", len(pending), data, "application/json")
	if err := s.writeArtifact(ctx, writer, dirCache, item); err != nil {
		return Artifact{}, err
	}
	return item.Artifact, nil
}
