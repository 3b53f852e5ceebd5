package markdown

import (
	"crypto/sha256"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-blog/internal/categories"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// DefaultBlogPath is the URL prefix used when PostOptions.BlogPath is empty.
const DefaultBlogPath = "blog"

// DefaultExcerptLength is the rune limit applied to generated excerpts.
const DefaultExcerptLength = 280

var datedStem = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)$`)

// PostOptions controls how a parsed document becomes a post.
type PostOptions struct {
	Parser        interfaces.MarkdownParser
	BlogPath      string
	ExcerptLength int
}

func (o PostOptions) withDefaults() PostOptions {
	if o.Parser == nil {
		o.Parser = NewGoldmarkParser(interfaces.ParseOptions{})
	}
	o.BlogPath = strings.Trim(strings.TrimSpace(o.BlogPath), "/")
	if o.BlogPath == "" {
		o.BlogPath = DefaultBlogPath
	}
	if o.ExcerptLength == 0 {
		o.ExcerptLength = DefaultExcerptLength
	}
	return o
}

// ParsePost turns the content of a single file into a post. name is the file
// name the slug and URL are derived from. Any front matter problem is
// returned as *ParseError carrying name.
func ParsePost(name string, source []byte, catalog *categories.Catalog, opts PostOptions) (*interfaces.Post, error) {
	opts = opts.withDefaults()
	fileName := path.Base(strings.ReplaceAll(name, "\\", "/"))

	fm, body, err := ParseFrontMatter(source, catalog)
	if err != nil {
		if parseErr, ok := err.(*ParseError); ok {
			parseErr.File = fileName
			return nil, parseErr
		}
		return nil, &ParseError{File: fileName, Cause: err}
	}

	postSlug, err := slugFromFileName(fileName)
	if err != nil {
		return nil, &ParseError{File: fileName, Cause: err}
	}

	rendered, err := opts.Parser.Parse(body)
	if err != nil {
		return nil, &ParseError{File: fileName, Cause: err}
	}

	sum := sha256.Sum256(source)

	return &interfaces.Post{
		FileName:    fileName,
		Slug:        postSlug,
		URL:         postURL(opts.BlogPath, postSlug),
		FrontMatter: fm,
		Body:        body,
		BodyHTML:    rendered,
		Excerpt:     opts.Parser.Excerpt(body, opts.ExcerptLength),
		Checksum:    sum[:],
	}, nil
}

// slugFromFileName strips the extension and normalises the stem when it is
// not already a valid slug.
func slugFromFileName(fileName string) (string, error) {
	stem := strings.TrimSuffix(fileName, path.Ext(fileName))
	stem = strings.TrimSpace(stem)
	if stem == "" {
		return "", fmt.Errorf("markdown: empty file name %q", fileName)
	}
	if slug.IsValid(stem) {
		return stem, nil
	}
	normalized, err := slug.Normalize(stem)
	if err != nil {
		return "", fmt.Errorf("markdown: slug for %q: %w", fileName, err)
	}
	if normalized == "" {
		return "", fmt.Errorf("markdown: slug for %q is empty", fileName)
	}
	return normalized, nil
}

// postURL maps 2024-03-14-launch to /blog/2024/03/14/launch/ and any other
// slug to /blog/<slug>/.
func postURL(blogPath, postSlug string) string {
	if match := datedStem.FindStringSubmatch(postSlug); match != nil {
		return "/" + path.Join(blogPath, match[1], match[2], match[3], match[4]) + "/"
	}
	return "/" + path.Join(blogPath, postSlug) + "/"
}
