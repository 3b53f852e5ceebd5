// Package posts orders, filters and groups loaded posts. Every function is
// pure: inputs are never mutated and results are fresh slices.
package posts

import (
	"sort"

	"github.com/goliatone/go-blog/internal/categories"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Listing is the ordered set of posts for one category.
type Listing struct {
	Category categories.Category
	Posts    []*interfaces.Post
}

// SortNewestFirst returns posts ordered by publish date, newest first. Posts
// published at the same instant are ordered by file name descending so that
// date-prefixed files keep a stable reverse chronological order.
func SortNewestFirst(posts []*interfaces.Post) []*interfaces.Post {
	sorted := compact(posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		left, right := sorted[i].PublishedAt(), sorted[j].PublishedAt()
		if !left.Equal(right) {
			return left.After(right)
		}
		return sorted[i].FileName > sorted[j].FileName
	})
	return sorted
}

// FilterByCategory keeps posts whose category label equals label, preserving
// their relative order.
func FilterByCategory(posts []*interfaces.Post, label string) []*interfaces.Post {
	out := make([]*interfaces.Post, 0, len(posts))
	for _, post := range posts {
		if post != nil && post.Category() == label {
			out = append(out, post)
		}
	}
	return out
}

// ExcludeDrafts drops posts flagged as drafts.
func ExcludeDrafts(posts []*interfaces.Post) []*interfaces.Post {
	out := make([]*interfaces.Post, 0, len(posts))
	for _, post := range posts {
		if post != nil && !post.FrontMatter.Draft {
			out = append(out, post)
		}
	}
	return out
}

// GroupByCategory sorts posts newest first and returns one listing per
// catalog entry in catalog order. Categories without posts get an empty
// listing.
func GroupByCategory(posts []*interfaces.Post, catalog *categories.Catalog) []Listing {
	sorted := SortNewestFirst(posts)
	entries := catalog.All()
	listings := make([]Listing, 0, len(entries))
	for _, category := range entries {
		listings = append(listings, Listing{
			Category: category,
			Posts:    FilterByCategory(sorted, category.Label),
		})
	}
	return listings
}

// ListingFor returns the listing for key from listings.
func ListingFor(listings []Listing, key string) (Listing, bool) {
	for _, listing := range listings {
		if listing.Category.Key == key {
			return listing, true
		}
	}
	return Listing{}, false
}

func compact(posts []*interfaces.Post) []*interfaces.Post {
	out := make([]*interfaces.Post, 0, len(posts))
	for _, post := range posts {
		if post != nil {
			out = append(out, post)
		}
	}
	return out
}
