// Package categories holds the static mapping from URL-safe category keys to
// the labels used in post front matter.
package categories

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrEmptyKey       = errors.New("categories: key is required")
	ErrEmptyLabel     = errors.New("categories: label is required")
	ErrInvalidKey     = errors.New("categories: key must be a valid slug")
	ErrDuplicateKey   = errors.New("categories: duplicate key")
	ErrDuplicateLabel = errors.New("categories: duplicate label")
)

// Category pairs a URL path segment with the label posts carry in their
// front matter.
type Category struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// DisplayName renders the key as a human readable title, e.g.
// "security-alerts" becomes "Security Alerts".
func (c Category) DisplayName() string {
	words := strings.ReplaceAll(strings.ReplaceAll(c.Key, "-", " "), "_", " ")
	return cases.Title(language.English).String(words)
}

// Catalog is an immutable, ordered set of categories. Keys and labels are
// unique.
type Catalog struct {
	entries []Category
	byKey   map[string]int
	byLabel map[string]int
}

// New validates entries and builds a catalog preserving their order.
func New(entries []Category) (*Catalog, error) {
	catalog := &Catalog{
		entries: make([]Category, 0, len(entries)),
		byKey:   make(map[string]int, len(entries)),
		byLabel: make(map[string]int, len(entries)),
	}
	for _, entry := range entries {
		key := strings.TrimSpace(entry.Key)
		label := strings.TrimSpace(entry.Label)
		switch {
		case key == "":
			return nil, ErrEmptyKey
		case label == "":
			return nil, fmt.Errorf("%w: %s", ErrEmptyLabel, key)
		case !slug.IsValid(key):
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		if _, ok := catalog.byKey[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
		}
		if _, ok := catalog.byLabel[label]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLabel, label)
		}
		catalog.byKey[key] = len(catalog.entries)
		catalog.byLabel[label] = len(catalog.entries)
		catalog.entries = append(catalog.entries, Category{Key: key, Label: label})
	}
	return catalog, nil
}

// FromMap builds a catalog from a key to label map. Keys are ordered
// lexicographically since maps carry no order.
func FromMap(mapping map[string]string) (*Catalog, error) {
	keys := make([]string, 0, len(mapping))
	for key := range mapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	entries := make([]Category, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, Category{Key: key, Label: mapping[key]})
	}
	return New(entries)
}

// MustNew is New that panics on invalid input. Intended for tests and
// package-level fixtures.
func MustNew(entries ...Category) *Catalog {
	catalog, err := New(entries)
	if err != nil {
		panic(err)
	}
	return catalog
}

// All returns a copy of the categories in catalog order.
func (c *Catalog) All() []Category {
	if c == nil {
		return nil
	}
	return append([]Category(nil), c.entries...)
}

// Keys returns the category keys in catalog order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.entries))
	for _, entry := range c.entries {
		keys = append(keys, entry.Key)
	}
	return keys
}

// Labels returns the category labels in catalog order.
func (c *Catalog) Labels() []string {
	if c == nil {
		return nil
	}
	labels := make([]string, 0, len(c.entries))
	for _, entry := range c.entries {
		labels = append(labels, entry.Label)
	}
	return labels
}

// Len reports the number of categories.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Lookup returns the category registered under key.
func (c *Catalog) Lookup(key string) (Category, bool) {
	if c == nil {
		return Category{}, false
	}
	idx, ok := c.byKey[strings.TrimSpace(key)]
	if !ok {
		return Category{}, false
	}
	return c.entries[idx], true
}

// LookupLabel returns the category whose label equals label.
func (c *Catalog) LookupLabel(label string) (Category, bool) {
	if c == nil {
		return Category{}, false
	}
	idx, ok := c.byLabel[strings.TrimSpace(label)]
	if !ok {
		return Category{}, false
	}
	return c.entries[idx], true
}

// HasLabel reports whether label belongs to a known category.
func (c *Catalog) HasLabel(label string) bool {
	_, ok := c.LookupLabel(label)
	return ok
}
