package blog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	blog "github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/internal/feeds"
)

func writePost(t *testing.T, dir, name, title, category, date string) {
	t.Helper()
	body := "---\ntitle: " + title + "\ncategory: " + category + "\ndate: " + date + "\n---\nBody of " + title + ".\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newModule(t *testing.T, contentDir string) (*blog.Module, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "public")
	cfg := blog.DefaultConfig()
	cfg.Site.Title = "Acme"
	cfg.Site.BaseURL = "https://acme.test"
	cfg.Content.Dir = contentDir
	cfg.Generator.OutputDir = out
	cfg.Logging.Level = "error"
	cfg.Categories = []blog.Category{
		{Key: "releases", Label: "release"},
		{Key: "security-alerts", Label: "security"},
	}
	module, err := blog.New(cfg)
	if err != nil {
		t.Fatalf("blog.New: %v", err)
	}
	return module, out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestBuildWritesFeedsNewestFirst(t *testing.T) {
	content := t.TempDir()
	writePost(t, content, "2023-01-01-first.md", "First", "release", "2023-01-01")
	writePost(t, content, "2023-06-01-second.md", "Second", "release", "2023-06-01")
	writePost(t, content, "2024-01-01-third.md", "Third", "release", "2024-01-01")

	module, out := newModule(t, content)
	result, err := module.Build(context.Background(), blog.BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got, want := len(result.Paths), 1+module.Catalog().Len(); got != want {
		t.Fatalf("expected %d feed paths, got %d (%v)", want, got, result.Paths)
	}

	global := readFile(t, filepath.Join(out, "feed.xml"))
	third := strings.Index(global, "<title>Third</title>")
	second := strings.Index(global, "<title>Second</title>")
	first := strings.Index(global, "<title>First</title>")
	if third < 0 || second < 0 || first < 0 || !(third < second && second < first) {
		t.Fatalf("expected newest-first ordering, got positions %d %d %d", third, second, first)
	}
	if !strings.Contains(global, "https://acme.test/blog/2024/01/01/third/") {
		t.Fatalf("expected absolute post link in feed:\n%s", global)
	}
}

func TestBuildSplitsCategoryFeeds(t *testing.T) {
	content := t.TempDir()
	writePost(t, content, "2024-01-01-v1.md", "Version One", "release", "2024-01-01")
	writePost(t, content, "2024-01-02-cve.md", "Patch Advisory", "security", "2024-01-02")

	module, out := newModule(t, content)
	if _, err := module.Build(context.Background(), blog.BuildOptions{}); err != nil {
		t.Fatalf("build: %v", err)
	}

	releases := readFile(t, filepath.Join(out, "releases", "feed.xml"))
	if !strings.Contains(releases, "Version One") || strings.Contains(releases, "Patch Advisory") {
		t.Fatalf("releases feed has wrong entries:\n%s", releases)
	}
	security := readFile(t, filepath.Join(out, "security-alerts", "feed.xml"))
	if !strings.Contains(security, "Patch Advisory") || strings.Contains(security, "Version One") {
		t.Fatalf("security feed has wrong entries:\n%s", security)
	}
}

func TestBuildMissingContentDirProducesNothing(t *testing.T) {
	module, out := newModule(t, filepath.Join(t.TempDir(), "missing"))

	result, err := module.Build(context.Background(), blog.BuildOptions{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Paths) != 0 {
		t.Fatalf("expected zero paths, got %v", result.Paths)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected output dir to be untouched, stat err=%v", err)
	}
}

func TestBuildHaltsOnUnknownCategory(t *testing.T) {
	content := t.TempDir()
	writePost(t, content, "2024-01-01-v1.md", "Version One", "release", "2024-01-01")
	writePost(t, content, "2024-01-02-gossip.md", "Gossip", "rumours", "2024-01-02")

	module, out := newModule(t, content)
	_, err := module.Build(context.Background(), blog.BuildOptions{})
	if err == nil {
		t.Fatalf("expected build to fail")
	}
	var parseErr *blog.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
	if _, statErr := os.Stat(filepath.Join(out, "feed.xml")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected no feed to be written, stat err=%v", statErr)
	}
}

func TestCheckAndList(t *testing.T) {
	content := t.TempDir()
	writePost(t, content, "2024-01-01-v1.md", "Version One", "release", "2024-01-01")
	writePost(t, content, "2024-02-01-v2.md", "Version Two", "release", "2024-02-01")

	module, out := newModule(t, content)

	checked, err := module.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(checked.Posts) != 2 || !checked.DryRun {
		t.Fatalf("expected dry-run check over 2 posts, got %+v", checked)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("check must not write output, stat err=%v", err)
	}

	listings, err := module.List(context.Background(), "releases")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listings) != 1 || len(listings[0].Posts) != 2 || listings[0].Posts[0].Title() != "Version Two" {
		t.Fatalf("unexpected releases listing: %+v", listings)
	}

	all, err := module.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != module.Catalog().Len() {
		t.Fatalf("expected one listing per category, got %d", len(all))
	}

	if _, err := module.List(context.Background(), "events"); !errors.Is(err, feeds.ErrUnknownCategory) {
		t.Fatalf("expected unknown category error, got %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := blog.DefaultConfig()
	cfg.Generator.MaxItems = -1
	if _, err := blog.New(cfg); !errors.Is(err, blog.ErrMaxItemsInvalid) {
		t.Fatalf("expected ErrMaxItemsInvalid, got %v", err)
	}
}
