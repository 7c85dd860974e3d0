package site

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/pipeline"
)

// PostView is the serializable, read-only form of a post handed to templates.
type PostView struct {
	Slug        string                `json:"slug"`
	Title       string                `json:"title"`
	Date        string                `json:"date"`
	Updated     string                `json:"updated,omitempty"`
	Category    string                `json:"category"`
	CategoryURL string                `json:"category_url"`
	Tags        []string              `json:"tags"`
	TagLinks    []Link                `json:"-"`
	Pinned      bool                  `json:"pinned"`
	Author      string                `json:"author,omitempty"`
	Description string                `json:"description,omitempty"`
	Extra       map[string]any        `json:"extra,omitempty"`
	URL         string                `json:"url"`
	File        string                `json:"-"`
	HTML        string                `json:"html"`
	Outline     []*models.HeadingNode `json:"outline"`
}

// Link is a named relative URL.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// GroupView is the serializable form of a category or tag group.
type GroupView struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	File     string    `json:"-"`
	Count    int       `json:"count"`
	Weight   float64   `json:"weight,omitempty"`
	FontSize string    `json:"-"`
	Posts    []string  `json:"posts"`
	Latest   *PostView `json:"-"`
}

// SkippedView reports a source document that did not build.
type SkippedView struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// Snapshot is the complete derived site, in view order.
type Snapshot struct {
	Title       string        `json:"title"`
	Fingerprint string        `json:"fingerprint"`
	Index       []*PostView   `json:"index"`
	Categories  []*GroupView  `json:"categories"`
	Tags        []*GroupView  `json:"tags"`
	Skipped     []SkippedView `json:"skipped"`
}

// Paths are the output directories for each view, relative to the output root.
type Paths struct {
	Posts      string
	Categories string
	Tags       string
	About      string
}

// NewSnapshot builds views from a derived site.
func NewSnapshot(title string, paths Paths, s *pipeline.Site) *Snapshot {
	snap := &Snapshot{
		Title:       title,
		Fingerprint: s.Fingerprint,
		Index:       make([]*PostView, 0, len(s.Aggregation.Index)),
		Categories:  make([]*GroupView, 0, len(s.Aggregation.Categories)),
		Tags:        make([]*GroupView, 0, len(s.Aggregation.Tags)),
		Skipped:     make([]SkippedView, 0, len(s.Skipped)),
	}

	// Group files are assigned in name order, post files in index order.
	files := pageFiles{
		posts:      newFileNames(paths.Posts),
		categories: newFileNames(paths.Categories, "index"),
		tags:       newFileNames(paths.Tags, "index"),
	}
	for _, g := range s.Aggregation.Categories {
		files.categories.assign(g.Name)
	}
	for _, g := range s.Aggregation.Tags {
		files.tags.assign(g.Name)
	}

	views := make(map[*models.Post]*PostView, len(s.Aggregation.Index))
	for _, p := range s.Aggregation.Index {
		v := newPostView(files, p)
		views[p] = v
		snap.Index = append(snap.Index, v)
	}
	for _, g := range s.Aggregation.Categories {
		snap.Categories = append(snap.Categories, newGroupView(files.categories, g, views))
	}
	for _, g := range s.Aggregation.Tags {
		v := newGroupView(files.tags, g, views)
		v.FontSize = fmt.Sprintf("%.2fem", g.Weight)
		snap.Tags = append(snap.Tags, v)
	}
	for _, sk := range s.Skipped {
		snap.Skipped = append(snap.Skipped, SkippedView{Path: sk.Path, Reason: sk.Reason, Error: sk.Message()})
	}
	return snap
}

func newPostView(files pageFiles, p *models.Post) *PostView {
	file := files.posts.assign(p.Slug)
	v := &PostView{
		Slug:        p.Slug,
		Title:       p.Title,
		Date:        p.DateString(),
		Category:    p.Category,
		CategoryURL: files.categories.url(p.Category),
		Tags:        append([]string{}, p.Tags...),
		Pinned:      p.Pinned,
		Author:      p.Author,
		Description: p.Description,
		Extra:       p.Extra,
		URL:         files.posts.urlOf(file),
		File:        file,
		HTML:        p.RenderedHTML,
		Outline:     p.Outline,
	}
	if !p.Updated.IsZero() {
		v.Updated = p.Updated.Format(models.DateLayout)
	}
	if v.Outline == nil {
		v.Outline = []*models.HeadingNode{}
	}
	for _, t := range p.Tags {
		v.TagLinks = append(v.TagLinks, Link{Name: t, URL: files.tags.url(t)})
	}
	return v
}

func newGroupView(names *fileNames, g *models.Group, views map[*models.Post]*PostView) *GroupView {
	file := names.assign(g.Name)
	v := &GroupView{
		Name:   g.Name,
		URL:    names.urlOf(file),
		File:   file,
		Count:  g.Count(),
		Weight: g.Weight,
		Posts:  make([]string, 0, len(g.Posts)),
	}
	for _, p := range g.Posts {
		v.Posts = append(v.Posts, p.Slug)
	}
	if latest := g.Latest(); latest != nil {
		v.Latest = views[latest]
	}
	return v
}

// FileName maps a post slug, category, or tag to a file name in its directory.
// Path separators and leading dots cannot escape the directory.
func FileName(name string) string {
	r := strings.NewReplacer("/", "-", "\\", "-")
	clean := strings.TrimLeft(r.Replace(name), ".")
	if clean == "" {
		clean = "_"
	}
	return clean + ".html"
}

type pageFiles struct {
	posts, categories, tags *fileNames
}

// fileNames hands out one output file per name within a directory. Names
// that map to the same file, or to a reserved stem such as "index", get a
// numeric suffix. Comparison ignores case so case-insensitive file systems
// cannot merge two pages either.
type fileNames struct {
	dir    string
	byName map[string]string
	taken  map[string]struct{}
}

func newFileNames(dir string, reserved ...string) *fileNames {
	f := &fileNames{dir: dir, byName: make(map[string]string), taken: make(map[string]struct{})}
	for _, r := range reserved {
		f.taken[strings.ToLower(r+".html")] = struct{}{}
	}
	return f
}

// assign returns the slash-separated path of name's file relative to dir.
func (f *fileNames) assign(name string) string {
	if file, ok := f.byName[name]; ok {
		return file
	}
	stem := strings.TrimSuffix(FileName(name), ".html")
	file := stem + ".html"
	for n := 1; ; n++ {
		if _, clash := f.taken[strings.ToLower(file)]; !clash {
			break
		}
		file = stem + "-" + strconv.Itoa(n) + ".html"
	}
	f.taken[strings.ToLower(file)] = struct{}{}
	f.byName[name] = file
	return file
}

// url returns the escaped URL of name's page relative to the output root.
func (f *fileNames) url(name string) string {
	return f.urlOf(f.assign(name))
}

func (f *fileNames) urlOf(file string) string {
	return path.Join(f.dir, url.PathEscape(file))
}
