// Package aggregate derives the index, category, and tag orderings from the
// complete post set.
package aggregate

import (
	"sort"

	"github.com/starford/folio/internal/models"
)

// Tag cloud weight bounds, in em.
const (
	minWeight     = 0.9
	weightSpan    = 0.8
	uniformWeight = 1.2
)

// Aggregation holds the derived orderings consumed by views.
type Aggregation struct {
	Index      []*models.Post
	Categories []*models.Group
	Tags       []*models.Group
}

// Newer orders posts by date descending, breaking ties by slug ascending.
func Newer(a, b *models.Post) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.Slug < b.Slug
}

// Aggregate computes every ordering. It does not modify posts and returns the
// same result for the same set regardless of input order.
func Aggregate(posts []*models.Post) *Aggregation {
	return &Aggregation{
		Index:      Index(posts),
		Categories: Categories(posts),
		Tags:       Tags(posts),
	}
}

// Index returns pinned posts first, then the rest, each partition newest first.
func Index(posts []*models.Post) []*models.Post {
	var pinned, rest []*models.Post
	for _, p := range posts {
		if p.Pinned {
			pinned = append(pinned, p)
		} else {
			rest = append(rest, p)
		}
	}
	sortPosts(pinned)
	sortPosts(rest)
	out := make([]*models.Post, 0, len(posts))
	out = append(out, pinned...)
	return append(out, rest...)
}

// Categories groups posts by category; groups are sorted by name.
func Categories(posts []*models.Post) []*models.Group {
	return group(posts, func(p *models.Post) []string { return []string{p.Category} })
}

// Tags groups posts by each of their tags and assigns tag cloud weights.
// Posts without tags appear in no group.
func Tags(posts []*models.Post) []*models.Group {
	groups := group(posts, func(p *models.Post) []string { return p.Tags })

	maxCount := 0
	for _, g := range groups {
		maxCount = max(maxCount, g.Count())
	}
	for _, g := range groups {
		if maxCount > 1 {
			g.Weight = minWeight + float64(g.Count())/float64(maxCount)*weightSpan
		} else {
			g.Weight = uniformWeight
		}
	}
	return groups
}

func group(posts []*models.Post, keys func(*models.Post) []string) []*models.Group {
	byName := make(map[string]*models.Group)
	for _, p := range posts {
		seen := make(map[string]struct{}, 1)
		for _, k := range keys(p) {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			g, ok := byName[k]
			if !ok {
				g = &models.Group{Name: k}
				byName[k] = g
			}
			g.Posts = append(g.Posts, p)
		}
	}

	out := make([]*models.Group, 0, len(byName))
	for _, g := range byName {
		sortPosts(g.Posts)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortPosts(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool { return Newer(posts[i], posts[j]) })
}
