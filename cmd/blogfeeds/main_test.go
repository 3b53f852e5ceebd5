package main

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-blog/internal/categories"
	staticcmd "github.com/goliatone/go-blog/internal/commands/static"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

type stubBuildHandler struct {
	last  staticcmd.BuildFeedsCommand
	calls int
	err   error
}

func (s *stubBuildHandler) Execute(ctx context.Context, msg staticcmd.BuildFeedsCommand) error {
	s.calls++
	s.last = msg
	if s.err != nil {
		return s.err
	}
	if msg.ResultCallback != nil {
		msg.ResultCallback(staticcmd.ResultEnvelope{
			Result: &generator.BuildResult{
				Paths:  []string{"public/feed.xml", "public/releases/feed.xml"},
				DryRun: msg.DryRun,
			},
			Metadata: map[string]any{"operation": "build"},
		})
	}
	return nil
}

type stubCheckHandler struct {
	calls int
}

func (s *stubCheckHandler) Execute(ctx context.Context, msg staticcmd.CheckPostsCommand) error {
	s.calls++
	if msg.ResultCallback != nil {
		msg.ResultCallback(staticcmd.ResultEnvelope{
			Result: &generator.BuildResult{Posts: []*interfaces.Post{{FileName: "a.md"}, {FileName: "b.md"}}},
		})
	}
	return nil
}

type stubListHandler struct {
	last staticcmd.ListPostsCommand
}

func (s *stubListHandler) Execute(ctx context.Context, msg staticcmd.ListPostsCommand) error {
	s.last = msg
	if msg.ResultCallback != nil {
		msg.ResultCallback(staticcmd.ResultEnvelope{
			Result: &generator.BuildResult{
				Listings: []posts.Listing{{
					Category: categories.Category{Key: "releases", Label: "release"},
					Posts: []*interfaces.Post{{
						FileName: "2024-03-14-launch.md",
						URL:      "/blog/2024/03/14/launch/",
						FrontMatter: interfaces.FrontMatter{
							Title:    "Launch",
							Category: "release",
							Date:     time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
						},
					}},
				}},
			},
		})
	}
	return nil
}

type stubs struct {
	build   *stubBuildHandler
	check   *stubCheckHandler
	list    *stubListHandler
	watched int
	opts    moduleOptions
}

func withStubModule(t *testing.T) *stubs {
	t.Helper()
	original := moduleBuilder
	s := &stubs{
		build: &stubBuildHandler{},
		check: &stubCheckHandler{},
		list:  &stubListHandler{},
	}
	moduleBuilder = func(opts moduleOptions) (*moduleResources, error) {
		s.opts = opts
		return &moduleResources{
			handlers: handlerSet{
				build: s.build,
				check: s.check,
				list:  s.list,
			},
			watch: func(ctx context.Context) error {
				s.watched++
				return nil
			},
		}, nil
	}
	t.Cleanup(func() { moduleBuilder = original })
	return s
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOutput := log.Writer()
	prevFlags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOutput)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestRunBuild_UsesCommandHandler(t *testing.T) {
	s := withStubModule(t)
	logs := captureLogs(t)
	var out bytes.Buffer

	err := run(context.Background(), []string{"--config", "site.yaml", "build", "--dry-run", "-o", "dist"}, &out)
	if err != nil {
		t.Fatalf("run build: %v", err)
	}
	if !s.build.last.DryRun || s.build.last.OutputDir != "dist" {
		t.Fatalf("expected flags to propagate, got %+v", s.build.last)
	}
	if s.opts.ConfigPath != "site.yaml" {
		t.Fatalf("expected config path site.yaml, got %q", s.opts.ConfigPath)
	}
	if out.String() != "public/feed.xml\npublic/releases/feed.xml\n" {
		t.Fatalf("unexpected stdout %q", out.String())
	}
	if !strings.Contains(logs.String(), "module=blogfeeds operation=build summary") {
		t.Fatalf("expected build summary log, got %q", logs.String())
	}
}

func TestRunBuild_PropagatesErrors(t *testing.T) {
	s := withStubModule(t)
	s.build.err = errors.New("boom")
	captureLogs(t)

	err := run(context.Background(), []string{"build"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected propagated error, got %v", err)
	}
}

func TestRunCheck(t *testing.T) {
	s := withStubModule(t)
	captureLogs(t)
	var out bytes.Buffer

	if err := run(context.Background(), []string{"check"}, &out); err != nil {
		t.Fatalf("run check: %v", err)
	}
	if s.check.calls != 1 {
		t.Fatalf("expected check handler called once, got %d", s.check.calls)
	}
	if out.String() != "2 posts ok\n" {
		t.Fatalf("unexpected stdout %q", out.String())
	}
}

func TestRunList_PrintsTable(t *testing.T) {
	s := withStubModule(t)
	captureLogs(t)
	var out bytes.Buffer

	if err := run(context.Background(), []string{"list", "--category", " releases "}, &out); err != nil {
		t.Fatalf("run list: %v", err)
	}
	if s.list.last.Category != "releases" {
		t.Fatalf("expected trimmed category, got %q", s.list.last.Category)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "CATEGORY") {
		t.Fatalf("expected header row, got %q", lines[0])
	}
	for _, want := range []string{"releases", "2024-03-14", "Launch", "/blog/2024/03/14/launch/"} {
		if !strings.Contains(lines[1], want) {
			t.Fatalf("expected %q in row %q", want, lines[1])
		}
	}
}

func TestRunWatch(t *testing.T) {
	s := withStubModule(t)
	captureLogs(t)

	if err := run(context.Background(), []string{"watch", "-v"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("run watch: %v", err)
	}
	if s.watched != 1 || !s.opts.Verbose {
		t.Fatalf("expected verbose watch run, got watched=%d opts=%+v", s.watched, s.opts)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	withStubModule(t)
	if err := run(context.Background(), []string{"publish"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestRun_BootstrapFailure(t *testing.T) {
	original := moduleBuilder
	moduleBuilder = func(moduleOptions) (*moduleResources, error) {
		return nil, errors.New("bad config")
	}
	t.Cleanup(func() { moduleBuilder = original })

	err := run(context.Background(), []string{"build"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "bootstrap module: bad config") {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}

func TestBuildModule_EndToEnd(t *testing.T) {
	captureLogs(t)
	dir := t.TempDir()
	content := filepath.Join(dir, "posts")
	if err := os.MkdirAll(content, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	post := "---\ntitle: Launch\ncategory: release\ndate: 2024-03-14\n---\nWe shipped.\n"
	if err := os.WriteFile(filepath.Join(content, "2024-03-14-launch.md"), []byte(post), 0o644); err != nil {
		t.Fatalf("write post: %v", err)
	}
	config := strings.Join([]string{
		"site:",
		"  title: Acme",
		"  base_url: https://acme.test",
		"content:",
		"  dir: " + content,
		"categories:",
		"  - {key: releases, label: release}",
		"generator:",
		"  output_dir: " + filepath.Join(dir, "public"),
		"logging:",
		"  level: error",
		"",
	}, "\n")
	configPath := filepath.Join(dir, "blog.yaml")
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), []string{"-c", configPath, "build"}, &out); err != nil {
		t.Fatalf("run build: %v", err)
	}
	for _, rel := range []string{"feed.xml", filepath.Join("releases", "feed.xml")} {
		if _, err := os.Stat(filepath.Join(dir, "public", rel)); err != nil {
			t.Fatalf("expected %s to exist: %v", rel, err)
		}
	}
	if !strings.Contains(out.String(), "releases") {
		t.Fatalf("expected feed paths on stdout, got %q", out.String())
	}
}
