// Package markdown loads blog posts from a content directory. Each file is a
// Markdown document with a front matter header; the header is validated
// against the category catalog before a post is produced. Any invalid file
// halts the load with a *ParseError describing every issue found.
package markdown
