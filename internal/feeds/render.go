package feeds

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

const (
	rssDateLayout  = time.RFC1123Z
	atomDateLayout = time.RFC3339
)

// RenderRSS serialises doc as RSS 2.0 with the atom and content namespaces.
func RenderRSS(doc Document) []byte {
	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:content="http://purl.org/rss/1.0/modules/content/">` + "\n")
	builder.WriteString("  <channel>\n")
	builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(doc.Title)))
	builder.WriteString(fmt.Sprintf("    <link>%s</link>\n", escapeXML(doc.Link)))
	builder.WriteString(fmt.Sprintf("    <description>%s</description>\n", escapeXML(doc.Description)))
	if doc.Language != "" {
		builder.WriteString(fmt.Sprintf("    <language>%s</language>\n", escapeXML(doc.Language)))
	}
	if !doc.Updated.IsZero() {
		builder.WriteString(fmt.Sprintf("    <lastBuildDate>%s</lastBuildDate>\n", doc.Updated.UTC().Format(rssDateLayout)))
	}
	if doc.SelfLink != "" {
		builder.WriteString(fmt.Sprintf(`    <atom:link href="%s" rel="self" type="application/rss+xml" />`+"\n", escapeXML(doc.SelfLink)))
	}
	for _, entry := range doc.Entries {
		builder.WriteString("    <item>\n")
		builder.WriteString(fmt.Sprintf("      <title>%s</title>\n", escapeXML(entry.Title)))
		builder.WriteString(fmt.Sprintf("      <link>%s</link>\n", escapeXML(entry.Link)))
		builder.WriteString(fmt.Sprintf(`      <guid isPermaLink="false">%s</guid>`+"\n", escapeXML(entry.GUID)))
		if !entry.Published.IsZero() {
			builder.WriteString(fmt.Sprintf("      <pubDate>%s</pubDate>\n", entry.Published.UTC().Format(rssDateLayout)))
		}
		if entry.Description != "" {
			builder.WriteString(fmt.Sprintf("      <description>%s</description>\n", escapeXML(entry.Description)))
		}
		if entry.Category != "" {
			builder.WriteString(fmt.Sprintf("      <category>%s</category>\n", escapeXML(entry.Category)))
		}
		if entry.Image != "" {
			builder.WriteString(fmt.Sprintf(`      <atom:link href="%s" rel="enclosure" />`+"\n", escapeXML(entry.Image)))
		}
		if entry.ContentHTML != "" {
			builder.WriteString(fmt.Sprintf("      <content:encoded>%s</content:encoded>\n", escapeXML(entry.ContentHTML)))
		}
		builder.WriteString("    </item>\n")
	}
	builder.WriteString("  </channel>\n")
	builder.WriteString(`</rss>` + "\n")
	return []byte(builder.String())
}

// RenderAtom serialises doc as an Atom 1.0 feed.
func RenderAtom(doc Document) []byte {
	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	if doc.Language != "" {
		builder.WriteString(fmt.Sprintf(`<feed xmlns="http://www.w3.org/2005/Atom" xml:lang="%s">`+"\n", escapeXML(doc.Language)))
	} else {
		builder.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">` + "\n")
	}
	builder.WriteString(fmt.Sprintf("  <id>%s</id>\n", escapeXML(doc.AtomLink)))
	builder.WriteString(fmt.Sprintf("  <title>%s</title>\n", escapeXML(doc.Title)))
	builder.WriteString(fmt.Sprintf("  <subtitle>%s</subtitle>\n", escapeXML(doc.Description)))
	builder.WriteString(fmt.Sprintf("  <updated>%s</updated>\n", atomTime(doc.Updated)))
	builder.WriteString(fmt.Sprintf(`  <link rel="alternate" href="%s" />`+"\n", escapeXML(doc.Link)))
	builder.WriteString(fmt.Sprintf(`  <link rel="self" href="%s" />`+"\n", escapeXML(doc.AtomLink)))
	for _, entry := range doc.Entries {
		builder.WriteString("  <entry>\n")
		builder.WriteString(fmt.Sprintf("    <id>urn:uuid:%s</id>\n", escapeXML(entry.GUID)))
		builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(entry.Title)))
		builder.WriteString(fmt.Sprintf(`    <link href="%s" />`+"\n", escapeXML(entry.Link)))
		builder.WriteString(fmt.Sprintf("    <updated>%s</updated>\n", atomTime(entry.Published)))
		if !entry.Published.IsZero() {
			builder.WriteString(fmt.Sprintf("    <published>%s</published>\n", atomTime(entry.Published)))
		}
		if entry.Author != "" {
			builder.WriteString(fmt.Sprintf("    <author><name>%s</name></author>\n", escapeXML(entry.Author)))
		}
		if entry.Category != "" {
			builder.WriteString(fmt.Sprintf(`    <category term="%s" />`+"\n", escapeXML(entry.Category)))
		}
		if entry.Description != "" {
			builder.WriteString(fmt.Sprintf("    <summary>%s</summary>\n", escapeXML(entry.Description)))
		}
		if entry.ContentHTML != "" {
			builder.WriteString(fmt.Sprintf(`    <content type="html">%s</content>`+"\n", escapeXML(entry.ContentHTML)))
		}
		builder.WriteString("  </entry>\n")
	}
	builder.WriteString(`</feed>` + "\n")
	return []byte(builder.String())
}

// atomTime formats ts for Atom. Atom requires updated, so a zero time
// renders as the Unix epoch.
func atomTime(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Unix(0, 0)
	}
	return ts.UTC().Format(atomDateLayout)
}

// escapeXML escapes value for element text and attribute values. Runes that
// are not legal XML characters, including invalid UTF-8, become U+FFFD.
func escapeXML(value string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(value))
	return buf.String()
}
