package di

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-blog/internal/adapters/noop"
	"github.com/goliatone/go-blog/internal/adapters/storage"
	"github.com/goliatone/go-blog/internal/categories"
	"github.com/goliatone/go-blog/internal/commands"
	staticcmd "github.com/goliatone/go-blog/internal/commands/static"
	"github.com/goliatone/go-blog/internal/feeds"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/logging/console"
	"github.com/goliatone/go-blog/internal/logging/gologger"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/metrics"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/pkg/interfaces"
	pkgstorage "github.com/goliatone/go-blog/pkg/storage"
)

// Container wires the blog pipeline from a validated configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	storage        interfaces.StorageProvider
	contentFS      fs.FS
	parser         interfaces.MarkdownParser
	registry       *prom.Registry
	readOnly       bool

	catalog   *categories.Catalog
	loader    *markdown.Loader
	generator generator.Service
	recorder  *metrics.BuildRecorder

	buildHandler *staticcmd.BuildFeedsHandler
	checkHandler *staticcmd.CheckPostsHandler
	listHandler  *staticcmd.ListPostsHandler
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider derived from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithStorage overrides the filesystem storage provider.
func WithStorage(sp interfaces.StorageProvider) Option {
	return func(c *Container) {
		if sp != nil {
			c.storage = sp
		}
	}
}

// WithContentFS reads posts from fsys instead of os.DirFS(Config.Content.Dir).
// Posts are loaded from the root of fsys.
func WithContentFS(fsys fs.FS) Option {
	return func(c *Container) {
		if fsys != nil {
			c.contentFS = fsys
		}
	}
}

// WithMarkdownParser overrides the goldmark parser used for post bodies.
func WithMarkdownParser(parser interfaces.MarkdownParser) Option {
	return func(c *Container) {
		if parser != nil {
			c.parser = parser
		}
	}
}

// WithRegistry registers build metrics on reg instead of a private registry.
func WithRegistry(reg *prom.Registry) Option {
	return func(c *Container) {
		if reg != nil {
			c.registry = reg
		}
	}
}

// WithReadOnlyStorage discards every write. Useful for validation-only runs.
func WithReadOnlyStorage() Option {
	return func(c *Container) {
		c.readOnly = true
	}
}

// NewContainer validates cfg and wires every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		catalog: catalog,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	c.configureStorage()
	if c.contentFS == nil {
		c.contentFS = os.DirFS(cfg.Content.Dir)
	}
	if c.parser == nil {
		c.parser = markdown.NewGoldmarkParser(interfaces.ParseOptions{})
	}

	c.loader = markdown.NewLoader(c.contentFS, markdown.LoaderConfig{
		Catalog:       catalog,
		Pattern:       cfg.Content.Pattern,
		Recursive:     cfg.Content.Recursive,
		BlogPath:      cfg.Site.BlogPath,
		ExcerptLength: cfg.Content.ExcerptLength,
		Parser:        c.parser,
		Logger:        logging.MarkdownLogger(c.loggerProvider),
	})

	c.generator = generator.NewService(generator.Config{
		ContentDir: ".",
		OutputDir:  cfg.Generator.OutputDir,
		FeedFile:   cfg.Generator.FeedFile,
		AtomFile:   cfg.Generator.AtomFile,
		Site: feeds.SiteInfo{
			Title:       cfg.Site.Title,
			Description: cfg.Site.Description,
			BaseURL:     cfg.Site.BaseURL,
			Language:    cfg.Site.Language,
			FeedFile:    cfg.Generator.FeedFile,
			AtomFile:    cfg.Generator.AtomFile,
		},
		MaxItems:        cfg.Generator.MaxItems,
		ContentHTML:     cfg.Generator.ContentHTML,
		IncludeDrafts:   cfg.Content.IncludeDrafts,
		GenerateAtom:    cfg.Generator.Atom,
		GenerateSitemap: cfg.Generator.Sitemap,
		WriteManifest:   cfg.Generator.Manifest,
		CleanBuild:      cfg.Generator.CleanBuild,
	}, generator.Dependencies{
		Loader:  c.loader,
		Catalog: catalog,
		Storage: c.storage,
		Logger:  logging.GeneratorLogger(c.loggerProvider),
	})

	c.recorder = metrics.NewBuildRecorder(c.registry,
		metrics.WithTextfile(cfg.Metrics.Textfile),
		metrics.WithLogger(logging.MetricsLogger(c.loggerProvider)),
		metrics.WithInvalidDetector(func(err error) bool {
			var parseErr *markdown.ParseError
			return errors.As(err, &parseErr)
		}),
	)

	c.configureCommands()
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure go-logger: %w", err)
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{}
		if level, ok := console.ParseLevel(logCfg.Level); ok {
			opts.MinLevel = level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) configureStorage() {
	switch {
	case c.readOnly:
		c.storage = noop.Storage()
	case c.storage == nil:
		c.storage = storage.NewFileSystemAdapter(pkgstorage.Config{
			Name:   "filesystem",
			Driver: "os",
		})
	}
}

func (c *Container) configureCommands() {
	timeout := c.Config.Generator.Timeout
	buildOpts := []commands.HandlerOption[staticcmd.BuildFeedsCommand]{}
	checkOpts := []commands.HandlerOption[staticcmd.CheckPostsCommand]{}
	listOpts := []commands.HandlerOption[staticcmd.ListPostsCommand]{}
	if timeout > 0 {
		buildOpts = append(buildOpts, commands.WithTimeout[staticcmd.BuildFeedsCommand](timeout))
		checkOpts = append(checkOpts, commands.WithTimeout[staticcmd.CheckPostsCommand](timeout))
		listOpts = append(listOpts, commands.WithTimeout[staticcmd.ListPostsCommand](timeout))
	}

	c.buildHandler = staticcmd.NewBuildFeedsHandler(c.generator,
		logging.CommandsLogger(c.loggerProvider, "feeds"), c.recorder, buildOpts...)
	c.checkHandler = staticcmd.NewCheckPostsHandler(c.generator,
		logging.CommandsLogger(c.loggerProvider, "posts"), checkOpts...)
	c.listHandler = staticcmd.NewListPostsHandler(c.generator,
		logging.CommandsLogger(c.loggerProvider, "posts"), listOpts...)
}

// LoggerProvider returns the active logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// StorageProvider returns the provider receiving generated artifacts.
func (c *Container) StorageProvider() interfaces.StorageProvider { return c.storage }

// Catalog returns the configured category catalog.
func (c *Container) Catalog() *categories.Catalog { return c.catalog }

// Loader returns the post loader.
func (c *Container) Loader() *markdown.Loader { return c.loader }

// GeneratorService returns the page builder.
func (c *Container) GeneratorService() generator.Service { return c.generator }

// BuildRecorder returns the metrics recorder observing builds.
func (c *Container) BuildRecorder() *metrics.BuildRecorder { return c.recorder }

// BuildFeedsHandler returns the build command handler.
func (c *Container) BuildFeedsHandler() *staticcmd.BuildFeedsHandler { return c.buildHandler }

// CheckPostsHandler returns the check command handler.
func (c *Container) CheckPostsHandler() *staticcmd.CheckPostsHandler { return c.checkHandler }

// ListPostsHandler returns the list command handler.
func (c *Container) ListPostsHandler() *staticcmd.ListPostsHandler { return c.listHandler }
