package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-blog/internal/categories"
)

var (
	ErrSiteInvalid             = errors.New("blog config: site section is invalid")
	ErrContentDirRequired      = errors.New("blog config: content directory is required")
	ErrContentPatternInvalid   = errors.New("blog config: content pattern is invalid")
	ErrCategoriesInvalid       = errors.New("blog config: categories are invalid")
	ErrGeneratorOutputRequired = errors.New("blog config: generator output directory is required")
	ErrFeedFileInvalid         = errors.New("blog config: feed file must be a plain file name")
	ErrMaxItemsInvalid         = errors.New("blog config: max items must be zero or positive")
	ErrTimeoutInvalid          = errors.New("blog config: timeout must be zero or positive")
	ErrLoggingProviderRequired = errors.New("blog config: logging provider is required")
	ErrLoggingProviderUnknown  = errors.New("blog config: logging provider is invalid")
	ErrLoggingLevelInvalid     = errors.New("blog config: logging level is invalid")
	ErrLoggingFormatInvalid    = errors.New("blog config: logging format is invalid")
	ErrWatchDebounceInvalid    = errors.New("blog config: watch debounce must be positive")
)

// Config aggregates everything needed to build the blog feeds.
type Config struct {
	Site       SiteConfig            `yaml:"site"`
	Content    ContentConfig         `yaml:"content"`
	Categories []categories.Category `yaml:"categories"`
	Generator  GeneratorConfig       `yaml:"generator"`
	Logging    LoggingConfig         `yaml:"logging"`
	Metrics    MetricsConfig         `yaml:"metrics"`
	Watch      WatchConfig           `yaml:"watch"`
}

// SiteConfig describes the channel-level metadata of the published site.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	BaseURL     string `yaml:"base_url"`
	Language    string `yaml:"language"`
	BlogPath    string `yaml:"blog_path"`
}

// ContentConfig controls post discovery and parsing.
type ContentConfig struct {
	Dir           string `yaml:"dir"`
	Pattern       string `yaml:"pattern"`
	Recursive     bool   `yaml:"recursive"`
	ExcerptLength int    `yaml:"excerpt_length"`
	IncludeDrafts bool   `yaml:"include_drafts"`
}

// GeneratorConfig captures output behaviour for feed builds.
type GeneratorConfig struct {
	OutputDir   string        `yaml:"output_dir"`
	FeedFile    string        `yaml:"feed_file"`
	AtomFile    string        `yaml:"atom_file"`
	Atom        bool          `yaml:"atom"`
	Sitemap     bool          `yaml:"sitemap"`
	Manifest    bool          `yaml:"manifest"`
	CleanBuild  bool          `yaml:"clean_build"`
	MaxItems    int           `yaml:"max_items"`
	ContentHTML bool          `yaml:"content_html"`
	Timeout     time.Duration `yaml:"timeout"`
	RebuildCron string        `yaml:"rebuild_cron"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// MetricsConfig points at an optional node-exporter textfile.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// WatchConfig tunes the rebuild loop used while authoring.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns defaults suitable for a local checkout.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			Title:       "Blog",
			Description: "Latest updates",
			BaseURL:     "http://localhost",
			Language:    "en",
			BlogPath:    "blog",
		},
		Content: ContentConfig{
			Dir:           "content/posts",
			Pattern:       "*.md",
			ExcerptLength: 280,
		},
		Generator: GeneratorConfig{
			OutputDir: "public",
			FeedFile:  "feed.xml",
			AtomFile:  "atom.xml",
			Manifest:  true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
	}
}

// Catalog builds the category catalog declared by the configuration.
func (cfg Config) Catalog() (*categories.Catalog, error) {
	catalog, err := categories.New(cfg.Categories)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCategoriesInvalid, err)
	}
	return catalog, nil
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	site := cfg.Site
	if err := validation.ValidateStruct(&site,
		validation.Field(&site.Title, validation.Required),
		validation.Field(&site.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&site.BlogPath, validation.By(blogPathSegments)),
	); err != nil {
		return fmt.Errorf("%w: %w", ErrSiteInvalid, err)
	}

	if strings.TrimSpace(cfg.Content.Dir) == "" {
		return ErrContentDirRequired
	}
	if pattern := strings.TrimSpace(cfg.Content.Pattern); pattern != "" {
		if _, err := path.Match(pattern, "post.md"); err != nil {
			return fmt.Errorf("%w: %s", ErrContentPatternInvalid, pattern)
		}
	}
	if _, err := cfg.Catalog(); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
		return ErrGeneratorOutputRequired
	}
	for _, name := range []string{cfg.Generator.FeedFile, cfg.Generator.AtomFile} {
		if name != "" && (strings.ContainsAny(name, `/\`) || name == "." || name == "..") {
			return fmt.Errorf("%w: %s", ErrFeedFileInvalid, name)
		}
	}
	if cfg.Generator.MaxItems < 0 {
		return ErrMaxItemsInvalid
	}
	if cfg.Generator.Timeout < 0 {
		return ErrTimeoutInvalid
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}

	if cfg.Watch.Debounce <= 0 {
		return ErrWatchDebounceInvalid
	}
	return nil
}

func absoluteURL(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return validation.NewError("blog.config.base_url", "must be an absolute http(s) URL")
	}
	return nil
}

func blogPathSegments(value any) error {
	raw, _ := value.(string)
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return nil
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if !slug.IsValid(segment) {
			return validation.NewError("blog.config.blog_path", "segments must be URL-safe slugs")
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
