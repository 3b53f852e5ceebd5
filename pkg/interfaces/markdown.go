package interfaces

import (
	"context"
	"time"
)

// MarkdownParser defines how raw Markdown bytes are converted into HTML and
// how a short plain-text excerpt is extracted for feed descriptions.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
	// Excerpt returns the first paragraph of the document as plain text,
	// truncated to limit runes. A non-positive limit disables truncation.
	Excerpt(markdown []byte, limit int) string
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}

// PostLoader reads posts from a content directory.
type PostLoader interface {
	LoadFiles(ctx context.Context, dir string, names []string) ([]*Post, error)
	LoadDirectory(ctx context.Context, dir string) ([]*Post, error)
}

// Post is a single blog entry loaded from a content file. Posts are treated
// as immutable once loaded; a new build re-reads them from disk.
type Post struct {
	// FileName is the base name of the source file (e.g. 2024-01-01-release.md).
	FileName string
	// Slug is the URL-safe identifier derived from FileName.
	Slug string
	// URL is the site-relative link to the post (e.g. /blog/2024/01/01/release/).
	URL         string
	FrontMatter FrontMatter
	Body        []byte
	BodyHTML    []byte
	Excerpt     string
	// Checksum is the SHA-256 digest of the original file content.
	Checksum []byte
}

// Title is a shorthand for FrontMatter.Title.
func (p *Post) Title() string { return p.FrontMatter.Title }

// Category is a shorthand for FrontMatter.Category.
func (p *Post) Category() string { return p.FrontMatter.Category }

// PublishedAt is a shorthand for FrontMatter.Date.
func (p *Post) PublishedAt() time.Time { return p.FrontMatter.Date }

// Summary returns the front matter description, falling back to the excerpt.
func (p *Post) Summary() string {
	if p.FrontMatter.Description != "" {
		return p.FrontMatter.Description
	}
	return p.Excerpt
}

// FrontMatter is the validated metadata header of a post. Title, Category and
// Date are required; everything else is optional.
type FrontMatter struct {
	Title       string
	Category    string
	Date        time.Time
	Description string
	Image       string
	Author      string
	Location    string
	StartDate   time.Time
	EndDate     time.Time
	Links       []Link
	Draft       bool
}

// Link is a labelled call-to-action attached to a post.
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}
