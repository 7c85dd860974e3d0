package outline

import (
	"strconv"
	"strings"
	"unicode"
)

// Placeholder is used when a heading's text yields no identifier characters.
const Placeholder = "section"

// Registry tracks the anchor ids already handed out in one document.
// It is not safe for concurrent use; each document gets its own.
type Registry struct {
	used map[string]struct{}
	next map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		used: make(map[string]struct{}),
		next: make(map[string]int),
	}
}

// Claim registers an id derived from base. The first claim of a base gets the
// bare base; later claims get base-1, base-2, ... skipping any value already
// taken, including literal ids that happen to look like generated ones.
func (r *Registry) Claim(base string) string {
	if _, taken := r.used[base]; !taken {
		r.used[base] = struct{}{}
		return base
	}
	n := max(r.next[base], 1)
	for {
		id := base + "-" + strconv.Itoa(n)
		if _, taken := r.used[id]; !taken {
			r.used[id] = struct{}{}
			r.next[base] = n + 1
			return id
		}
		n++
	}
}

// Used reports whether id has been claimed.
func (r *Registry) Used(id string) bool {
	_, ok := r.used[id]
	return ok
}

// Len returns the number of claimed ids.
func (r *Registry) Len() int { return len(r.used) }

// Slugify lowercases text and collapses every run of characters other than
// letters, digits, and underscores into a single hyphen, trimming hyphens at
// both ends. It returns Placeholder when nothing is left.
func Slugify(text string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_' {
			if gap && b.Len() > 0 {
				b.WriteByte('-')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	if b.Len() == 0 {
		return Placeholder
	}
	return b.String()
}
