// Package models defines the domain types for Folio.
package models

import "time"

// DateLayout is the calendar-date form used in headers and snapshots.
const DateLayout = "2006-01-02"

// Post represents one validated source document.
type Post struct {
	Slug        string         `json:"slug"`
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Date        time.Time      `json:"date"`
	Updated     time.Time      `json:"updated,omitzero"`
	Category    string         `json:"category"`
	Tags        []string       `json:"tags"`
	Pinned      bool           `json:"pinned"`
	Author      string         `json:"author,omitempty"`
	Description string         `json:"description,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	Checksum    string         `json:"checksum"`

	RawBody      string        `json:"-"`
	RenderedHTML string        `json:"-"`
	Outline      []*HeadingNode `json:"-"`
}

// DateString formats the post date as YYYY-MM-DD.
func (p *Post) DateString() string {
	return p.Date.Format(DateLayout)
}

// HasTag reports whether the post carries tag.
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HeadingNode is one entry in a document outline.
type HeadingNode struct {
	Level    int            `json:"level"`
	Text     string         `json:"text"`
	ID       string         `json:"id"`
	Children []*HeadingNode `json:"children,omitempty"`
}

// Flatten returns the outline in depth-first pre-order.
func Flatten(roots []*HeadingNode) []*HeadingNode {
	var out []*HeadingNode
	stack := make([]*HeadingNode, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}

// Group is a named, ordered view over posts (a category or a tag).
// Posts are shared with the index ordering, not copied.
type Group struct {
	Name   string  `json:"name"`
	Posts  []*Post `json:"-"`
	Weight float64 `json:"weight,omitempty"`
}

// Count returns the number of posts in the group.
func (g *Group) Count() int { return len(g.Posts) }

// Latest returns the most recent post in the group, or nil when empty.
// Groups are kept newest-first, so this is the head.
func (g *Group) Latest() *Post {
	if len(g.Posts) == 0 {
		return nil
	}
	return g.Posts[0]
}

// SkippedDocument records a source file that did not become a Post.
type SkippedDocument struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Message returns the underlying error text, or the reason when no error is attached.
func (s SkippedDocument) Message() string {
	if s.Err == nil {
		return s.Reason
	}
	return s.Err.Error()
}
