// Package feeds turns posts into RSS 2.0 and Atom documents. Output depends
// only on its inputs so repeated builds produce identical bytes.
package feeds

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/categories"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// ErrUnknownCategory is returned when a category key is not in the catalog.
var ErrUnknownCategory = errors.New("feeds: unknown category")

const (
	// DefaultFeedFile is the RSS file name written for every feed.
	DefaultFeedFile = "feed.xml"
	// DefaultAtomFile is the Atom file name written next to each RSS feed.
	DefaultAtomFile = "atom.xml"
	defaultBaseURL  = "http://localhost"
	defaultTitle    = "Blog"
)

// SiteInfo describes the channel every feed belongs to.
type SiteInfo struct {
	Title       string
	Description string
	BaseURL     string
	Language    string
	// FeedFile and AtomFile name the files feeds are published as; they are
	// used for self links.
	FeedFile string
	AtomFile string
}

// Options tune the entries included in a document.
type Options struct {
	// MaxItems caps the number of entries. Zero keeps every post.
	MaxItems int
	// ContentHTML embeds rendered post bodies as content:encoded.
	ContentHTML bool
}

// Document is a feed ready to be rendered.
type Document struct {
	Title       string
	Description string
	Link        string
	SelfLink    string
	AtomLink    string
	Language    string
	// Category is zero for the global feed.
	Category categories.Category
	// Updated is the newest entry date, zero when there are no entries.
	Updated time.Time
	Entries []Entry
}

// Entry is one post inside a feed.
type Entry struct {
	Title       string
	Link        string
	GUID        string
	Published   time.Time
	Description string
	Category    string
	Author      string
	Image       string
	ContentHTML string
}

// Builder assembles documents for one site.
type Builder struct {
	site SiteInfo
	opts Options
}

// NewBuilder returns a builder for site.
func NewBuilder(site SiteInfo, opts Options) *Builder {
	if opts.MaxItems < 0 {
		opts.MaxItems = 0
	}
	return &Builder{site: site.withDefaults(), opts: opts}
}

// Build is a convenience wrapper around NewBuilder(site, Options{}).Build.
func Build(site SiteInfo, all []*interfaces.Post, catalog *categories.Catalog, categoryKey string) (Document, error) {
	return NewBuilder(site, Options{}).Build(all, catalog, categoryKey)
}

// Build returns the feed for every post when categoryKey is empty, otherwise
// only for posts whose category label maps to categoryKey. Entries are
// ordered newest first.
func (b *Builder) Build(all []*interfaces.Post, catalog *categories.Catalog, categoryKey string) (Document, error) {
	categoryKey = strings.TrimSpace(categoryKey)
	selected := posts.SortNewestFirst(all)

	doc := Document{
		Title:       b.site.Title,
		Description: b.site.Description,
		Link:        b.site.BaseURL + "/",
		SelfLink:    b.site.BaseURL + "/" + b.site.FeedFile,
		AtomLink:    b.site.BaseURL + "/" + b.site.AtomFile,
		Language:    b.site.Language,
	}

	if categoryKey != "" {
		category, ok := catalog.Lookup(categoryKey)
		if !ok {
			return Document{}, fmt.Errorf("%w: %q", ErrUnknownCategory, categoryKey)
		}
		selected = posts.FilterByCategory(selected, category.Label)
		doc.Category = category
		doc.Title = fmt.Sprintf("%s: %s", b.site.Title, category.Label)
		doc.Description = categoryDescription(b.site.Description, category)
		doc.SelfLink = b.site.BaseURL + "/" + path.Join(category.Key, b.site.FeedFile)
		doc.AtomLink = b.site.BaseURL + "/" + path.Join(category.Key, b.site.AtomFile)
	}

	if b.opts.MaxItems > 0 && len(selected) > b.opts.MaxItems {
		selected = selected[:b.opts.MaxItems]
	}

	doc.Entries = make([]Entry, 0, len(selected))
	for _, post := range selected {
		entry := b.entryFor(post)
		if entry.Published.After(doc.Updated) {
			doc.Updated = entry.Published
		}
		doc.Entries = append(doc.Entries, entry)
	}
	return doc, nil
}

func (b *Builder) entryFor(post *interfaces.Post) Entry {
	link := absoluteURL(b.site.BaseURL, post.URL)
	entry := Entry{
		Title:       normalizeWhitespace(post.Title()),
		Link:        link,
		GUID:        GUID(link),
		Published:   post.PublishedAt().UTC(),
		Description: normalizeWhitespace(post.Summary()),
		Category:    post.Category(),
		Author:      strings.TrimSpace(post.FrontMatter.Author),
	}
	if image := strings.TrimSpace(post.FrontMatter.Image); image != "" {
		entry.Image = absoluteURL(b.site.BaseURL, image)
	}
	if b.opts.ContentHTML {
		entry.ContentHTML = string(post.BodyHTML)
	}
	return entry
}

// GUID derives a stable identifier for link.
func GUID(link string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}

func (s SiteInfo) withDefaults() SiteInfo {
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		s.Title = defaultTitle
	}
	s.Description = strings.TrimSpace(s.Description)
	if s.Description == "" {
		s.Description = "Latest updates"
	}
	s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if s.BaseURL == "" {
		s.BaseURL = defaultBaseURL
	}
	s.Language = strings.TrimSpace(s.Language)
	if s.Language == "" {
		s.Language = "en"
	}
	s.FeedFile = strings.Trim(strings.TrimSpace(s.FeedFile), "/")
	if s.FeedFile == "" {
		s.FeedFile = DefaultFeedFile
	}
	s.AtomFile = strings.Trim(strings.TrimSpace(s.AtomFile), "/")
	if s.AtomFile == "" {
		s.AtomFile = DefaultAtomFile
	}
	return s
}

func categoryDescription(base string, category categories.Category) string {
	return fmt.Sprintf("%s (%s)", base, category.Label)
}

func absoluteURL(base, route string) string {
	normalized := strings.TrimSpace(route)
	if normalized == "" {
		return base + "/"
	}
	if strings.HasPrefix(normalized, "http://") || strings.HasPrefix(normalized, "https://") {
		return normalized
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return base + normalized
}

func normalizeWhitespace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
