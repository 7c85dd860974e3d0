// Package outline extracts heading outlines from rendered HTML and injects
// anchor ids into the heading elements.
package outline

import (
	"bytes"
	"html"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/starford/folio/internal/models"
)

// Result is the outline of one document.
type Result struct {
	DocumentID string
	Outline    []*models.HeadingNode
	// HTML is the input with ids set on every heading; all other bytes are unchanged.
	HTML string
}

// Extract builds the outline of renderedHTML with a fresh id registry.
func Extract(documentID, renderedHTML string) Result {
	return ExtractWith(NewRegistry(), documentID, renderedHTML)
}

// ExtractWith is Extract with a caller-owned registry, which is updated with
// every id handed out.
func ExtractWith(reg *Registry, documentID, renderedHTML string) Result {
	res := Result{DocumentID: documentID, HTML: renderedHTML}

	headings, annotated := annotate(reg, renderedHTML)
	if len(headings) == 0 {
		return res
	}
	res.Outline = Nest(headings)
	res.HTML = annotated
	return res
}

// Nest arranges flat headings into a forest. Each heading becomes a child of
// the nearest preceding heading with a strictly lower level, or a root when
// there is none.
func Nest(flat []*models.HeadingNode) []*models.HeadingNode {
	type frame struct {
		level int
		node  *models.HeadingNode
	}
	var roots []*models.HeadingNode
	stack := make([]frame, 0, 6)
	for _, n := range flat {
		for len(stack) > 0 && stack[len(stack)-1].level >= n.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, n)
		}
		stack = append(stack, frame{level: n.Level, node: n})
	}
	return roots
}

// pending is a heading whose closing tag has not been seen yet.
type pending struct {
	name  string
	level int
	start []byte // raw start tag
	inner bytes.Buffer
	text  strings.Builder
}

// annotate walks the token stream, copying raw bytes through and rewriting
// the start tag of each complete h1-h6 element.
func annotate(reg *Registry, src string) ([]*models.HeadingNode, string) {
	var (
		out      bytes.Buffer
		headings []*models.HeadingNode
		cur      *pending
	)
	out.Grow(len(src) + 64)

	z := xhtml.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		// TagName and Text rewrite the tokenizer buffer in place, so the raw
		// bytes are copied before either is called.
		raw := bytes.Clone(z.Raw())

		if tt == xhtml.ErrorToken {
			// End of input; an unclosed heading passes through untouched.
			if cur != nil {
				out.Write(cur.start)
				out.Write(cur.inner.Bytes())
			}
			out.Write(raw)
			break
		}

		if cur == nil {
			if tt == xhtml.StartTagToken {
				if name, level, ok := headingTag(z); ok {
					cur = &pending{name: name, level: level, start: raw}
					continue
				}
			}
			out.Write(raw)
			continue
		}

		switch tt {
		case xhtml.EndTagToken:
			if name, _ := z.TagName(); string(name) == cur.name {
				node := &models.HeadingNode{Level: cur.level, Text: strings.TrimSpace(cur.text.String())}
				node.ID = reg.Claim(Slugify(node.Text))
				headings = append(headings, node)

				out.Write(withID(cur, node.ID))
				out.Write(cur.inner.Bytes())
				out.Write(raw)
				cur = nil
				continue
			}
		case xhtml.TextToken:
			cur.text.Write(z.Text())
		}
		cur.inner.Write(raw)
	}
	return headings, out.String()
}

// headingTag reports whether the current start tag is h1-h6 and returns its
// lowercase name and level.
func headingTag(z *xhtml.Tokenizer) (string, int, bool) {
	name, _ := z.TagName()
	if len(name) != 2 || name[0] != 'h' || name[1] < '1' || name[1] > '6' {
		return "", 0, false
	}
	return string(name), int(name[1] - '0'), true
}

// withID returns the heading's start tag carrying id. When the tag has no id
// attribute, the attribute is inserted after the tag name. Otherwise the first
// id attribute is replaced in place and any further ones are dropped. All
// other bytes of the tag are kept as written.
func withID(p *pending, id string) []byte {
	attr := `id="` + html.EscapeString(id) + `"`
	nameEnd := 1 + len(p.name) // "<" + name

	var b bytes.Buffer
	prev := 0
	written := false
	for _, a := range attrSpans(p.start, nameEnd) {
		if a.key != "id" {
			continue
		}
		if written {
			b.Write(p.start[prev:a.lead])
		} else {
			b.Write(p.start[prev:a.keyStart])
			b.WriteString(attr)
			written = true
		}
		prev = a.end
	}
	if !written {
		b.Write(p.start[:nameEnd])
		b.WriteString(" " + attr)
		b.Write(p.start[nameEnd:])
		return b.Bytes()
	}
	b.Write(p.start[prev:])
	return b.Bytes()
}

// attrSpan locates one attribute inside a raw start tag. lead is where the
// separator before the attribute begins, end is just past its value.
type attrSpan struct {
	key      string
	lead     int
	keyStart int
	end      int
}

// attrSpans splits the attributes of a raw start tag following the tokenizer's
// rules: keys end at space, '/', '=' or '>', values are quoted or run to the
// next space or '>'. Keys are lowercased.
func attrSpans(tag []byte, from int) []attrSpan {
	var spans []attrSpan
	i := from
	for i < len(tag) {
		lead := i
		for i < len(tag) && (isSpace(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= len(tag) || tag[i] == '>' {
			break
		}
		keyStart := i
		i++ // a key may start with '='
		for i < len(tag) && !isSpace(tag[i]) && tag[i] != '/' && tag[i] != '=' && tag[i] != '>' {
			i++
		}
		key := strings.ToLower(string(tag[keyStart:i]))

		j := i
		for j < len(tag) && isSpace(tag[j]) {
			j++
		}
		if j < len(tag) && tag[j] == '=' {
			j++
			for j < len(tag) && isSpace(tag[j]) {
				j++
			}
			if j < len(tag) && (tag[j] == '"' || tag[j] == '\'') {
				q := tag[j]
				j++
				for j < len(tag) && tag[j] != q {
					j++
				}
				if j < len(tag) {
					j++
				}
			} else {
				for j < len(tag) && !isSpace(tag[j]) && tag[j] != '>' {
					j++
				}
			}
			i = j
		}
		spans = append(spans, attrSpan{key: key, lead: lead, keyStart: keyStart, end: i})
	}
	return spans
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
