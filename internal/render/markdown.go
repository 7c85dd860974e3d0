// Package render converts post bodies from Markdown to HTML fragments.
package render

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer turns a raw post body into an HTML fragment.
type Renderer interface {
	Render(body string) (string, error)
}

// Options configure the Markdown renderer.
type Options struct {
	// HighlightStyle is a chroma style name; empty disables highlighting.
	HighlightStyle string
	// LineNumbers prefixes highlighted code lines with their numbers.
	LineNumbers bool
	HardWraps   bool
	UnsafeHTML  bool
}

// KnownStyle reports whether name is a registered chroma style.
func KnownStyle(name string) bool {
	_, ok := styles.Registry[strings.ToLower(name)]
	return ok
}

// Markdown renders GitHub-flavoured Markdown with goldmark. Headings are
// emitted without ids; anchors are assigned later by the outline extractor.
type Markdown struct {
	opts Options
}

// NewMarkdown creates a Markdown renderer.
func NewMarkdown(opts Options) *Markdown {
	return &Markdown{opts: opts}
}

// Render converts body to HTML. An engine is built per call so that
// concurrent workers never share parser state.
func (m *Markdown) Render(body string) (string, error) {
	var buf bytes.Buffer
	if err := m.engine().Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render: markdown: %w", err)
	}
	return buf.String(), nil
}

func (m *Markdown) engine() goldmark.Markdown {
	exts := []goldmark.Extender{
		extension.GFM,      // Tables, strikethrough, autolinks, task lists
		extension.Footnote, // [^1] footnotes
	}
	if m.opts.HighlightStyle != "" {
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(m.opts.HighlightStyle),
			highlighting.WithFormatOptions(chromahtml.WithLineNumbers(m.opts.LineNumbers)),
		))
	}

	var rendererOpts []renderer.Option
	if m.opts.HardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	if m.opts.UnsafeHTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}

	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(rendererOpts...),
	)
}
