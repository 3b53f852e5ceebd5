package feeds

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-blog/internal/categories"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

type rssDocument struct {
	Channel struct {
		Title    string `xml:"title"`
		SelfLink struct {
			Href string `xml:"href,attr"`
		} `xml:"http://www.w3.org/2005/Atom link"`
		Link          string `xml:"link"`
		Description   string `xml:"description"`
		LastBuildDate string `xml:"lastBuildDate"`
		Items         []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			GUID        string `xml:"guid"`
			PubDate     string `xml:"pubDate"`
			Description string `xml:"description"`
			Category    string `xml:"category"`
			Content     string `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
		} `xml:"item"`
	} `xml:"channel"`
}

type atomDocument struct {
	Title   string `xml:"title"`
	Updated string `xml:"updated"`
	Entries []struct {
		ID      string `xml:"id"`
		Title   string `xml:"title"`
		Summary string `xml:"summary"`
	} `xml:"entry"`
}

func testCatalog() *categories.Catalog {
	return categories.MustNew(
		categories.Category{Key: "releases", Label: "release"},
		categories.Category{Key: "events", Label: "event"},
		categories.Category{Key: "security", Label: "security"},
	)
}

func testSite() SiteInfo {
	return SiteInfo{
		Title:       "Example Blog",
		Description: "News & announcements",
		BaseURL:     "https://example.com/",
	}
}

func samplePost(file, title, category string, date time.Time) *interfaces.Post {
	stem := strings.TrimSuffix(file, ".md")
	return &interfaces.Post{
		FileName: file,
		Slug:     stem,
		URL:      "/blog/" + stem + "/",
		FrontMatter: interfaces.FrontMatter{
			Title:    title,
			Category: category,
			Date:     date,
		},
		BodyHTML: []byte("<p>" + title + "</p>"),
		Excerpt:  "Excerpt for " + title,
	}
}

func samplePosts() []*interfaces.Post {
	return []*interfaces.Post{
		samplePost("2024-01-01-a.md", "Post A", "release", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		samplePost("2024-02-01-b.md", "Post B", "event", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		samplePost("2024-03-01-c.md", "Post C", "release", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
	}
}

func decodeRSS(t *testing.T, data []byte) rssDocument {
	t.Helper()
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("rss is not well-formed: %v\n%s", err, data)
	}
	return doc
}

func assertWellFormed(t *testing.T, data []byte) {
	t.Helper()
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		if _, err := decoder.Token(); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			t.Fatalf("document is not well-formed: %v\n%s", err, data)
		}
	}
}

func TestBuildGlobalFeed(t *testing.T) {
	doc, err := Build(testSite(), samplePosts(), testCatalog(), "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rss := decodeRSS(t, RenderRSS(doc))
	if rss.Channel.Title != "Example Blog" {
		t.Fatalf("unexpected channel title %q", rss.Channel.Title)
	}
	if rss.Channel.Link != "https://example.com/" {
		t.Fatalf("unexpected channel link %q", rss.Channel.Link)
	}
	if rss.Channel.SelfLink.Href != "https://example.com/feed.xml" {
		t.Fatalf("unexpected self link %q", rss.Channel.SelfLink.Href)
	}
	if rss.Channel.Description != "News & announcements" {
		t.Fatalf("expected unescaped description, got %q", rss.Channel.Description)
	}
	if len(rss.Channel.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(rss.Channel.Items))
	}
	wantTitles := []string{"Post C", "Post B", "Post A"}
	for i, item := range rss.Channel.Items {
		if item.Title != wantTitles[i] {
			t.Fatalf("item %d: expected %s, got %s", i, wantTitles[i], item.Title)
		}
	}
	first := rss.Channel.Items[0]
	if first.Link != "https://example.com/blog/2024-03-01-c/" {
		t.Fatalf("unexpected item link %q", first.Link)
	}
	if first.GUID != GUID(first.Link) {
		t.Fatalf("expected guid derived from link, got %q", first.GUID)
	}
	if first.PubDate != "Fri, 01 Mar 2024 00:00:00 +0000" {
		t.Fatalf("unexpected pubDate %q", first.PubDate)
	}
	if rss.Channel.LastBuildDate != first.PubDate {
		t.Fatalf("expected lastBuildDate to be newest entry date, got %q", rss.Channel.LastBuildDate)
	}
	if first.Description != "Excerpt for Post C" || first.Category != "release" {
		t.Fatalf("unexpected item metadata %+v", first)
	}
	if first.Content != "" {
		t.Fatalf("expected no content:encoded by default")
	}
}

func TestBuildCategoryFeed(t *testing.T) {
	doc, err := Build(testSite(), samplePosts(), testCatalog(), "releases")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if doc.Category.Key != "releases" {
		t.Fatalf("expected category on document, got %+v", doc.Category)
	}
	if doc.SelfLink != "https://example.com/releases/feed.xml" {
		t.Fatalf("unexpected self link %q", doc.SelfLink)
	}

	rss := decodeRSS(t, RenderRSS(doc))
	if rss.Channel.Title != "Example Blog: release" {
		t.Fatalf("unexpected channel title %q", rss.Channel.Title)
	}
	if len(rss.Channel.Items) != 2 {
		t.Fatalf("expected 2 release items, got %d", len(rss.Channel.Items))
	}
	if rss.Channel.Items[0].Title != "Post C" || rss.Channel.Items[1].Title != "Post A" {
		t.Fatalf("unexpected item order %+v", rss.Channel.Items)
	}
}

func TestBuildEmptyCategoryFeed(t *testing.T) {
	doc, err := Build(testSite(), samplePosts(), testCatalog(), "security")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(doc.Entries) != 0 || !doc.Updated.IsZero() {
		t.Fatalf("expected empty feed, got %+v", doc)
	}
	rss := RenderRSS(doc)
	assertWellFormed(t, rss)
	if strings.Contains(string(rss), "<item>") || strings.Contains(string(rss), "lastBuildDate") {
		t.Fatalf("expected no items or build date, got\n%s", rss)
	}
}

func TestBuildUnknownCategory(t *testing.T) {
	_, err := Build(testSite(), samplePosts(), testCatalog(), "gossip")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	build := func() ([]byte, []byte) {
		input := samplePosts()
		// reverse to make sure the builder does the ordering
		input[0], input[2] = input[2], input[0]
		doc, err := NewBuilder(testSite(), Options{ContentHTML: true}).Build(input, testCatalog(), "")
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return RenderRSS(doc), RenderAtom(doc)
	}

	rssA, atomA := build()
	rssB, atomB := build()
	if !bytes.Equal(rssA, rssB) {
		t.Fatalf("rss output differs between builds")
	}
	if !bytes.Equal(atomA, atomB) {
		t.Fatalf("atom output differs between builds")
	}
}

func TestRenderEscapesText(t *testing.T) {
	post := samplePost("2024-05-01-x.md", `Tags <b> & "quotes"`, "release", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	post.FrontMatter.Description = "a < b && c > d"
	post.BodyHTML = []byte(`<p>Hello <a href="/x?a=1&b=2">link</a></p>`)

	doc, err := NewBuilder(testSite(), Options{ContentHTML: true}).Build([]*interfaces.Post{post}, testCatalog(), "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rss := decodeRSS(t, RenderRSS(doc))
	item := rss.Channel.Items[0]
	if item.Title != `Tags <b> & "quotes"` {
		t.Fatalf("title did not round trip: %q", item.Title)
	}
	if item.Description != "a < b && c > d" {
		t.Fatalf("description did not round trip: %q", item.Description)
	}
	if item.Content != string(post.BodyHTML) {
		t.Fatalf("content:encoded did not round trip: %q", item.Content)
	}
	assertWellFormed(t, RenderAtom(doc))
}

func TestRenderReplacesIllegalCharacters(t *testing.T) {
	post := samplePost("2024-05-02-bell.md", "Bell \x07 title", "release", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	post.Excerpt = "Body with a bell \x07 char and bad \xff utf8."
	post.BodyHTML = []byte("<p>Body with a bell \x07 char and bad \xff utf8.</p>")

	doc, err := NewBuilder(testSite(), Options{ContentHTML: true}).Build([]*interfaces.Post{post}, testCatalog(), "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rss := decodeRSS(t, RenderRSS(doc))
	item := rss.Channel.Items[0]
	if item.Description != "Body with a bell � char and bad � utf8." {
		t.Fatalf("unexpected description %q", item.Description)
	}
	if strings.ContainsRune(item.Title, '\x07') || strings.ContainsRune(item.Content, '\x07') {
		t.Fatalf("control characters leaked into item %+v", item)
	}
	assertWellFormed(t, RenderAtom(doc))
}

func TestMaxItems(t *testing.T) {
	doc, err := NewBuilder(testSite(), Options{MaxItems: 2}).Build(samplePosts(), testCatalog(), "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(doc.Entries) != 2 || doc.Entries[0].Title != "Post C" {
		t.Fatalf("expected newest two entries, got %+v", doc.Entries)
	}
}

func TestRenderAtom(t *testing.T) {
	doc, err := Build(testSite(), samplePosts(), testCatalog(), "events")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var atom atomDocument
	if err := xml.Unmarshal(RenderAtom(doc), &atom); err != nil {
		t.Fatalf("atom is not well-formed: %v", err)
	}
	if atom.Title != "Example Blog: event" {
		t.Fatalf("unexpected atom title %q", atom.Title)
	}
	if atom.Updated != "2024-02-01T00:00:00Z" {
		t.Fatalf("unexpected atom updated %q", atom.Updated)
	}
	if len(atom.Entries) != 1 || !strings.HasPrefix(atom.Entries[0].ID, "urn:uuid:") {
		t.Fatalf("unexpected atom entries %+v", atom.Entries)
	}
}

func TestGUIDIsStable(t *testing.T) {
	a := GUID("https://example.com/blog/x/")
	b := GUID("https://example.com/blog/x/")
	c := GUID("https://example.com/blog/y/")
	if a != b {
		t.Fatalf("expected same guid for same link")
	}
	if a == c {
		t.Fatalf("expected different guid for different link")
	}
}

func TestSiteDefaults(t *testing.T) {
	doc, err := Build(SiteInfo{}, nil, testCatalog(), "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if doc.Title != "Blog" || doc.Link != "http://localhost/" || doc.Language != "en" {
		t.Fatalf("unexpected defaults %+v", doc)
	}
	assertWellFormed(t, RenderRSS(doc))
	assertWellFormed(t, RenderAtom(doc))
}
