// Package pipeline runs a full build derivation: scan, render, outline, aggregate.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/aggregate"
	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/outline"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/scanner"
	"github.com/starford/folio/internal/storage"
)

// Page is a standalone document outside the post set, such as the about page.
type Page struct {
	Title   string
	HTML    string
	Outline []*models.HeadingNode
}

// Site is everything a view renderer needs. It is read-only once Run returns.
type Site struct {
	Posts       []*models.Post
	Skipped     []models.SkippedDocument
	Aggregation *aggregate.Aggregation
	About       *Page
	Fingerprint string
}

// Options configure a Pipeline.
type Options struct {
	Concurrency int
	// AboutFile is a file name in the source directory; empty disables the about page.
	AboutFile  string
	AboutTitle string
}

// Pipeline wires the scanner and renderer together.
type Pipeline struct {
	scanner  *scanner.Scanner
	renderer render.Renderer
	opts     Options
	logger   *slog.Logger
}

// New creates a Pipeline.
func New(sc *scanner.Scanner, r render.Renderer, opts Options, logger *slog.Logger) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.AboutTitle == "" {
		opts.AboutTitle = "About"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{scanner: sc, renderer: r, opts: opts, logger: logger}
}

// Run rebuilds the site model from dir. Aggregation starts only after every
// post has been rendered and outlined.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Site, error) {
	src, err := storage.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w: %v", apperr.ErrSourceDir, err)
	}

	res, err := p.scanner.ScanSource(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	if err := p.enrich(ctx, res.Posts); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	site := &Site{
		Posts:       res.Posts,
		Skipped:     res.Skipped,
		Aggregation: aggregate.Aggregate(res.Posts),
	}

	sums := make([]string, 0, len(res.Posts))
	for _, post := range res.Posts {
		sums = append(sums, post.Checksum)
	}
	site.Fingerprint = checksum.Fingerprint(sums)

	if p.opts.AboutFile != "" && src.Exists(p.opts.AboutFile) {
		about, err := p.loadAbout(src)
		if err != nil {
			p.logger.Warn("pipeline: about page skipped",
				slog.String("path", p.opts.AboutFile),
				slog.String("error", err.Error()))
		} else {
			site.About = about
		}
	}

	p.logger.Info("pipeline: site derived",
		slog.Int("posts", len(site.Posts)),
		slog.Int("categories", len(site.Aggregation.Categories)),
		slog.Int("tags", len(site.Aggregation.Tags)),
		slog.String("fingerprint", site.Fingerprint))
	return site, nil
}

// enrich renders and outlines each post on a bounded pool. Every post owns
// its fields and its id registry, so workers share nothing.
func (p *Pipeline) enrich(ctx context.Context, posts []*models.Post) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for _, post := range posts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			html, err := p.renderer.Render(post.RawBody)
			if err != nil {
				return fmt.Errorf("render %s: %w", post.Path, err)
			}
			res := outline.Extract(post.Slug, html)
			post.RenderedHTML = res.HTML
			post.Outline = res.Outline
			return nil
		})
	}
	return g.Wait()
}

func (p *Pipeline) loadAbout(src storage.Source) (*Page, error) {
	data, err := src.Read(p.opts.AboutFile)
	if err != nil {
		return nil, err
	}
	doc, err := parser.Split(data)
	if err != nil {
		return nil, err
	}
	title := p.opts.AboutTitle
	if t, ok := doc.Header["title"].(string); ok && t != "" {
		title = t
	}
	html, err := p.renderer.Render(doc.Body)
	if err != nil {
		return nil, err
	}
	res := outline.Extract(p.opts.AboutFile, html)
	return &Page{Title: title, HTML: res.HTML, Outline: res.Outline}, nil
}
