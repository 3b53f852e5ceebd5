package generator

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

type sitemapEntry struct {
	Location string
	LastMod  time.Time
}

// buildSitemap lists every post URL, sorted by location.
func buildSitemap(baseURL string, posts []*interfaces.Post) []byte {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = "http://localhost"
	}

	entries := make([]sitemapEntry, 0, len(posts))
	seen := map[string]struct{}{}
	for _, post := range posts {
		if post == nil {
			continue
		}
		route := strings.TrimSpace(post.URL)
		if route == "" {
			continue
		}
		if !strings.HasPrefix(route, "/") {
			route = "/" + route
		}
		location := base + route
		if _, ok := seen[location]; ok {
			continue
		}
		seen[location] = struct{}{}
		entries = append(entries, sitemapEntry{
			Location: location,
			LastMod:  post.PublishedAt(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Location < entries[j].Location
	})

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, entry := range entries {
		builder.WriteString("  <url>\n")
		builder.WriteString(fmt.Sprintf("    <loc>%s</loc>\n", html.EscapeString(entry.Location)))
		if !entry.LastMod.IsZero() {
			builder.WriteString(fmt.Sprintf("    <lastmod>%s</lastmod>\n", entry.LastMod.UTC().Format(time.DateOnly)))
		}
		builder.WriteString("  </url>\n")
	}
	builder.WriteString(`</urlset>` + "\n")
	return []byte(builder.String())
}
