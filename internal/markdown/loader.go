package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-blog/internal/categories"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// LoaderConfig configures how posts are discovered and parsed.
type LoaderConfig struct {
	// Catalog lists the category labels posts may reference.
	Catalog *categories.Catalog
	// Pattern limits discovered files to those matching the glob (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
	// BlogPath is the URL prefix for post links (defaults to "blog").
	BlogPath string
	// ExcerptLength caps generated excerpts in runes. Negative disables the cap.
	ExcerptLength int
	// Parser renders bodies and excerpts. Defaults to a goldmark parser.
	Parser interfaces.MarkdownParser
	Logger interfaces.Logger
}

// Loader reads posts from an fs.FS.
type Loader struct {
	fs        fs.FS
	catalog   *categories.Catalog
	pattern   string
	recursive bool
	post      PostOptions
	logger    interfaces.Logger
}

var _ interfaces.PostLoader = (*Loader)(nil)

// NewLoader constructs a Loader over filesystem.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := strings.TrimSpace(cfg.Pattern)
	if pattern == "" {
		pattern = "*.md"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Loader{
		fs:        filesystem,
		catalog:   cfg.Catalog,
		pattern:   pattern,
		recursive: cfg.Recursive,
		post: PostOptions{
			Parser:        cfg.Parser,
			BlogPath:      cfg.BlogPath,
			ExcerptLength: cfg.ExcerptLength,
		}.withDefaults(),
		logger: logger,
	}
}

// DirExists reports whether dir exists inside the loader's filesystem and is
// a directory.
func (l *Loader) DirExists(dir string) (bool, error) {
	info, err := fs.Stat(l.fs, cleanDir(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("markdown loader stat %s: %w", dir, err)
	}
	return info.IsDir(), nil
}

// LoadFiles parses the named files inside dir. Duplicate names are loaded
// once and the result keeps the first-seen order. Every file is attempted;
// when any fail, their *ParseError values are joined and no posts are
// returned. Two files that resolve to the same URL (for example a/post.md and
// b/post.md in a recursive load) fail with ErrDuplicateURL.
func (l *Loader) LoadFiles(ctx context.Context, dir string, names []string) ([]*interfaces.Post, error) {
	root := cleanDir(dir)
	seen := make(map[string]struct{}, len(names))
	urls := make(map[string]string, len(names))
	posts := make([]*interfaces.Post, 0, len(names))
	var failures []error

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		rel := path.Join(root, name)
		data, err := fs.ReadFile(l.fs, rel)
		if err != nil {
			return nil, fmt.Errorf("markdown loader read %s: %w", rel, err)
		}

		post, err := ParsePost(name, data, l.catalog, l.post)
		if err != nil {
			logging.WithPostContext(l.logger, name, "").Error("markdown.post.invalid", "error", err)
			failures = append(failures, err)
			continue
		}
		if other, ok := urls[post.URL]; ok {
			dup := &ParseError{
				File:   name,
				Cause:  ErrDuplicateURL,
				Issues: []Issue{{Field: "slug", Message: fmt.Sprintf("%s duplicates %s", post.URL, other)}},
			}
			logging.WithPostContext(l.logger, name, post.Category()).Error("markdown.post.invalid", "error", dup)
			failures = append(failures, dup)
			continue
		}
		urls[post.URL] = name
		logging.WithPostContext(l.logger, post.FileName, post.Category()).Debug("markdown.post.loaded", "slug", post.Slug)
		posts = append(posts, post)
	}

	if len(failures) > 0 {
		return nil, errors.Join(failures...)
	}
	return posts, nil
}

// LoadDirectory lists files matching the loader pattern inside dir (sorted by
// path) and loads them with LoadFiles.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]*interfaces.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := l.ListFiles(ctx, dir)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("markdown.directory.listed", "dir", dir, "files", len(names))
	return l.LoadFiles(ctx, dir, names)
}

// ListFiles returns the paths, relative to dir, of files matching the loader
// pattern.
func (l *Loader) ListFiles(ctx context.Context, dir string) ([]string, error) {
	root := cleanDir(dir)
	var names []string

	walkErr := fs.WalkDir(l.fs, root, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if current != root && !l.recursive {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(current, root+"/")
		if root == "." {
			rel = current
		}
		if !l.matchesPattern(rel) {
			return nil
		}
		names = append(names, rel)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("markdown loader list %s: %w", dir, walkErr)
	}

	sort.Strings(names)
	return names, nil
}

func (l *Loader) matchesPattern(rel string) bool {
	target := rel
	if !strings.Contains(l.pattern, "/") {
		target = path.Base(rel)
	}
	match, err := path.Match(l.pattern, target)
	if err != nil {
		return false
	}
	return match
}

// cleanDir converts dir into a path accepted by io/fs.
func cleanDir(dir string) string {
	dir = strings.ReplaceAll(strings.TrimSpace(dir), "\\", "/")
	dir = strings.TrimPrefix(path.Clean("/"+dir), "/")
	if dir == "" {
		return "."
	}
	return dir
}
