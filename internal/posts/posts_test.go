package posts

import (
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-blog/internal/categories"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

func newPost(file, category string, date time.Time) *interfaces.Post {
	return &interfaces.Post{
		FileName: file,
		FrontMatter: interfaces.FrontMatter{
			Title:    strings.TrimSuffix(file, ".md"),
			Category: category,
			Date:     date,
		},
	}
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func fileNames(posts []*interfaces.Post) string {
	names := make([]string, 0, len(posts))
	for _, post := range posts {
		names = append(names, post.FileName)
	}
	return strings.Join(names, ",")
}

func testCatalog() *categories.Catalog {
	return categories.MustNew(
		categories.Category{Key: "releases", Label: "release"},
		categories.Category{Key: "events", Label: "event"},
		categories.Category{Key: "security", Label: "security"},
	)
}

func TestSortNewestFirst(t *testing.T) {
	input := []*interfaces.Post{
		newPost("a.md", "release", day(1)),
		newPost("c.md", "event", day(3)),
		newPost("b.md", "release", day(2)),
	}

	sorted := SortNewestFirst(input)

	if got := fileNames(sorted); got != "c.md,b.md,a.md" {
		t.Fatalf("unexpected order %s", got)
	}
	if got := fileNames(input); got != "a.md,c.md,b.md" {
		t.Fatalf("input must not be mutated, got %s", got)
	}
}

func TestSortNewestFirst_TiesByFileNameDescending(t *testing.T) {
	input := []*interfaces.Post{
		newPost("2024-01-05-alpha.md", "release", day(5)),
		newPost("2024-01-05-gamma.md", "release", day(5)),
		newPost("2024-01-05-beta.md", "release", day(5)),
	}

	if got := fileNames(SortNewestFirst(input)); got != "2024-01-05-gamma.md,2024-01-05-beta.md,2024-01-05-alpha.md" {
		t.Fatalf("unexpected tie order %s", got)
	}
}

func TestSortNewestFirst_Idempotent(t *testing.T) {
	input := []*interfaces.Post{
		newPost("x.md", "event", day(9)),
		newPost("y.md", "event", day(2)),
		newPost("z.md", "release", day(9)),
		nil,
	}

	once := SortNewestFirst(input)
	twice := SortNewestFirst(once)

	if fileNames(once) != fileNames(twice) {
		t.Fatalf("sort is not idempotent: %s vs %s", fileNames(once), fileNames(twice))
	}
	if len(once) != 3 {
		t.Fatalf("expected nil entries to be dropped, got %d", len(once))
	}
	for i := 1; i < len(once); i++ {
		if once[i].PublishedAt().After(once[i-1].PublishedAt()) {
			t.Fatalf("dates not descending at %d", i)
		}
	}
}

func TestSortNewestFirst_Empty(t *testing.T) {
	if got := SortNewestFirst(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestFilterByCategory(t *testing.T) {
	input := SortNewestFirst([]*interfaces.Post{
		newPost("a.md", "release", day(1)),
		newPost("b.md", "event", day(2)),
		newPost("c.md", "release", day(3)),
	})

	filtered := FilterByCategory(input, "release")
	if got := fileNames(filtered); got != "c.md,a.md" {
		t.Fatalf("unexpected filtered posts %s", got)
	}
	if got := FilterByCategory(input, "unknown"); len(got) != 0 {
		t.Fatalf("expected no posts for unknown label, got %d", len(got))
	}
}

func TestExcludeDrafts(t *testing.T) {
	draft := newPost("draft.md", "release", day(4))
	draft.FrontMatter.Draft = true
	input := []*interfaces.Post{newPost("live.md", "release", day(1)), draft}

	if got := fileNames(ExcludeDrafts(input)); got != "live.md" {
		t.Fatalf("expected drafts to be removed, got %s", got)
	}
}

func TestGroupByCategory(t *testing.T) {
	input := []*interfaces.Post{
		newPost("a.md", "release", day(1)),
		newPost("b.md", "event", day(2)),
		newPost("c.md", "release", day(3)),
	}

	listings := GroupByCategory(input, testCatalog())
	if len(listings) != 3 {
		t.Fatalf("expected a listing per catalog entry, got %d", len(listings))
	}

	wantKeys := []string{"releases", "events", "security"}
	wantPosts := []string{"c.md,a.md", "b.md", ""}
	for i, listing := range listings {
		if listing.Category.Key != wantKeys[i] {
			t.Fatalf("listing %d: expected key %s, got %s", i, wantKeys[i], listing.Category.Key)
		}
		if got := fileNames(listing.Posts); got != wantPosts[i] {
			t.Fatalf("listing %s: expected %q, got %q", listing.Category.Key, wantPosts[i], got)
		}
	}

	security, ok := ListingFor(listings, "security")
	if !ok || len(security.Posts) != 0 {
		t.Fatalf("expected empty security listing, got %+v", security)
	}
	if _, ok := ListingFor(listings, "missing"); ok {
		t.Fatalf("expected missing listing lookup to fail")
	}
}
