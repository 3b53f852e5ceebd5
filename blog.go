// Package blog loads markdown posts, groups them by category and publishes
// RSS feeds for the whole blog and for every category.
package blog

import (
	"context"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-blog/internal/categories"
	staticcmd "github.com/goliatone/go-blog/internal/commands/static"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/watcher"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

type (
	// Post is a parsed, validated blog post.
	Post = interfaces.Post
	// Category pairs a URL-safe key with the label used in front matter.
	Category = categories.Category
	// Catalog is the ordered set of known categories.
	Catalog = categories.Catalog
	// Listing is one category with its posts, newest first.
	Listing = posts.Listing
	// ParseError reports every problem found in one post.
	ParseError = markdown.ParseError
	// BuildResult reports the feeds and artifacts produced by a build.
	BuildResult = generator.BuildResult
	// Artifact describes one generated file.
	Artifact = generator.Artifact
	// Option customises the module wiring.
	Option = di.Option
)

var (
	WithLoggerProvider  = di.WithLoggerProvider
	WithStorage         = di.WithStorage
	WithContentFS       = di.WithContentFS
	WithMarkdownParser  = di.WithMarkdownParser
	WithRegistry        = di.WithRegistry
	WithReadOnlyStorage = di.WithReadOnlyStorage
)

// BuildOptions narrows a single build.
type BuildOptions struct {
	DryRun    bool
	OutputDir string
}

// Module is the top level façade over the feed pipeline.
type Module struct {
	container *di.Container
}

// New constructs a module from a validated configuration.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Catalog returns the configured categories.
func (m *Module) Catalog() *Catalog {
	return m.container.Catalog()
}

// Metrics returns the registry holding build metrics.
func (m *Module) Metrics() *prom.Registry {
	return m.container.BuildRecorder().Registry()
}

// Build loads every post and writes the global and per-category feeds.
func (m *Module) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	var result *BuildResult
	err := m.container.BuildFeedsHandler().Execute(ctx, staticcmd.BuildFeedsCommand{
		DryRun:    opts.DryRun,
		OutputDir: opts.OutputDir,
		ResultCallback: func(env staticcmd.ResultEnvelope) {
			result = env.Result
		},
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Check parses and validates every post without writing anything.
func (m *Module) Check(ctx context.Context) (*BuildResult, error) {
	var result *BuildResult
	err := m.container.CheckPostsHandler().Execute(ctx, staticcmd.CheckPostsCommand{
		ResultCallback: func(env staticcmd.ResultEnvelope) {
			result = env.Result
		},
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// List returns the listing for categoryKey, or every listing when the key is
// empty.
func (m *Module) List(ctx context.Context, categoryKey string) ([]Listing, error) {
	var listings []Listing
	err := m.container.ListPostsHandler().Execute(ctx, staticcmd.ListPostsCommand{
		Category: categoryKey,
		ResultCallback: func(env staticcmd.ResultEnvelope) {
			if env.Result != nil {
				listings = env.Result.Listings
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// Watch builds once and then rebuilds whenever the content directory changes,
// until ctx is cancelled.
func (m *Module) Watch(ctx context.Context) error {
	cfg := m.container.Config
	w, err := watcher.New(watcher.Config{
		Dirs:         []string{cfg.Content.Dir},
		Debounce:     cfg.Watch.Debounce,
		InitialBuild: true,
		Logger:       logging.WatcherLogger(m.container.LoggerProvider()),
	}, func(ctx context.Context) error {
		_, err := m.Build(ctx, BuildOptions{})
		return err
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
