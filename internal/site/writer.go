// Package site renders the derived site model into static HTML pages and a
// JSON snapshot.
package site

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/folio/internal/pipeline"
	"github.com/starford/folio/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

// SnapshotFile is the name of the JSON snapshot in the output root.
const SnapshotFile = "site.json"

// Info describes the site as a whole.
type Info struct {
	Title    string
	Subtitle string
	Author   string
	Language string
	Paths    Paths
}

// siteData is the per-build data shared by all pages.
type siteData struct {
	Info
	HasAbout  bool
	PostCount int
}

type pageData struct {
	Site    siteData
	Root    string
	Title   string
	Posts   []*PostView
	Post    *PostView
	Groups  []*GroupView
	Content template.HTML
}

// Writer renders pages into a storage sink.
type Writer struct {
	sink   storage.Sink
	info   Info
	tmpl   *template.Template
	logger *slog.Logger
}

// NewWriter parses the page templates and returns a Writer.
func NewWriter(sink storage.Sink, info Info, logger *slog.Logger) (*Writer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("site: parse templates: %w", err)
	}
	if info.Language == "" {
		info.Language = "en"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{sink: sink, info: info, tmpl: tmpl, logger: logger}, nil
}

// Write renders every view of s. Output is only written once every page has
// rendered, so a failed build leaves the previous output in place.
func (w *Writer) Write(ctx context.Context, s *pipeline.Site) error {
	snap := NewSnapshot(w.info.Title, w.info.Paths, s)
	base := siteData{Info: w.info, HasAbout: s.About != nil, PostCount: len(snap.Index)}
	paths := w.info.Paths

	files := make(map[string][]byte)
	var order []string
	emit := func(name, file string, data pageData) error {
		data.Site = base
		data.Root = rootPrefix(file)
		var buf bytes.Buffer
		if _, dup := files[file]; dup {
			return fmt.Errorf("site: two pages map to %s", file)
		}
		if err := w.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
			return fmt.Errorf("site: render %s: %w", file, err)
		}
		files[file] = buf.Bytes()
		order = append(order, file)
		return nil
	}

	if err := emit("index", "index.html", pageData{Posts: snap.Index}); err != nil {
		return err
	}
	for _, p := range snap.Index {
		if err := ctx.Err(); err != nil {
			return err
		}
		data := pageData{Title: p.Title, Post: p, Content: template.HTML(p.HTML)} //nolint:gosec // produced by the markdown renderer
		if err := emit("post", path.Join(paths.Posts, p.File), data); err != nil {
			return err
		}
	}

	bySlug := make(map[string]*PostView, len(snap.Index))
	for _, p := range snap.Index {
		bySlug[p.Slug] = p
	}
	groupPosts := func(g *GroupView) []*PostView {
		out := make([]*PostView, 0, len(g.Posts))
		for _, slug := range g.Posts {
			out = append(out, bySlug[slug])
		}
		return out
	}

	if err := emit("categories", path.Join(paths.Categories, "index.html"), pageData{Title: "Categories", Groups: snap.Categories}); err != nil {
		return err
	}
	for _, g := range snap.Categories {
		if err := emit("group", path.Join(paths.Categories, g.File), pageData{Title: g.Name, Posts: groupPosts(g)}); err != nil {
			return err
		}
	}
	if err := emit("tags", path.Join(paths.Tags, "index.html"), pageData{Title: "Tags", Groups: snap.Tags}); err != nil {
		return err
	}
	for _, g := range snap.Tags {
		if err := emit("group", path.Join(paths.Tags, g.File), pageData{Title: "#" + g.Name, Posts: groupPosts(g)}); err != nil {
			return err
		}
	}
	if s.About != nil {
		data := pageData{Title: s.About.Title, Content: template.HTML(s.About.HTML)} //nolint:gosec // produced by the markdown renderer
		if err := emit("about", path.Join(paths.About, "index.html"), data); err != nil {
			return err
		}
	}

	js, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("site: encode snapshot: %w", err)
	}
	files[SnapshotFile] = append(js, '\n')
	order = append(order, SnapshotFile)

	for _, file := range order {
		if err := w.sink.Write(file, files[file]); err != nil {
			return fmt.Errorf("site: %w", err)
		}
	}
	w.logger.Info("site: written", slog.Int("files", len(order)))
	return nil
}

// rootPrefix returns the relative path from file back to the output root.
func rootPrefix(file string) string {
	depth := strings.Count(path.Clean(file), "/")
	return strings.Repeat("../", depth)
}
