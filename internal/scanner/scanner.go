// Package scanner turns a directory of source documents into validated posts.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/metadata"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/storage"
)

// Options controls enumeration and parallelism.
type Options struct {
	Recursive   bool
	Extensions  []string
	Exclude     *storage.Matcher
	Concurrency int
}

// Result is the outcome of one scan. Per-document failures land in Skipped;
// they never abort the scan.
type Result struct {
	Posts   []*models.Post
	Skipped []models.SkippedDocument
}

// Scanner reads source documents and validates their headers.
type Scanner struct {
	validator *metadata.Validator
	opts      Options
	logger    *slog.Logger
}

// New creates a Scanner.
func New(v *metadata.Validator, opts Options, logger *slog.Logger) *Scanner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{validator: v, opts: opts, logger: logger}
}

// Scan opens dir and scans it. A missing or unreadable directory is fatal and
// wraps apperr.ErrSourceDir.
func (s *Scanner) Scan(ctx context.Context, dir string) (*Result, error) {
	src, err := storage.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("scanner: %w: %v", apperr.ErrSourceDir, err)
	}
	return s.ScanSource(ctx, src)
}

// ScanSource scans an already opened source.
func (s *Scanner) ScanSource(ctx context.Context, src storage.Source) (*Result, error) {
	entries, err := src.List(storage.ListOptions{
		Recursive:  s.opts.Recursive,
		Extensions: s.opts.Extensions,
		Exclude:    s.opts.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("scanner: %w: %v", apperr.ErrSourceDir, err)
	}

	s.logger.Info("scan: started", slog.Int("documents", len(entries)))

	type outcome struct {
		post *models.Post
		skip *models.SkippedDocument
	}
	outcomes := make([]outcome, len(entries))

	// Entries arrive sorted by path, so the first file claiming a slug wins
	// regardless of platform enumeration order.
	claimed := make(map[string]string, len(entries))
	slugs := make([]string, len(entries))
	for i, e := range entries {
		slug := Slug(e.Name)
		if first, dup := claimed[slug]; dup {
			outcomes[i].skip = &models.SkippedDocument{
				Path:   e.Path,
				Reason: apperr.ReasonDuplicateSlug,
				Err:    fmt.Errorf("%w: %q already used by %s", apperr.ErrDuplicateSlug, slug, first),
			}
			continue
		}
		claimed[slug] = e.Path
		slugs[i] = slug
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, e := range entries {
		if outcomes[i].skip != nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			post, err := s.load(src, e, slugs[i])
			if err != nil {
				outcomes[i].skip = &models.SkippedDocument{Path: e.Path, Reason: apperr.Reason(err), Err: err}
				return nil
			}
			outcomes[i].post = post
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scanner: %w", err)
	}

	res := &Result{}
	for _, o := range outcomes {
		switch {
		case o.post != nil:
			res.Posts = append(res.Posts, o.post)
		case o.skip != nil:
			s.logger.Warn("scan: skipped document",
				slog.String("path", o.skip.Path),
				slog.String("reason", o.skip.Reason),
				slog.String("error", o.skip.Message()))
			res.Skipped = append(res.Skipped, *o.skip)
		}
	}

	s.logger.Info("scan: finished",
		slog.Int("posts", len(res.Posts)),
		slog.Int("skipped", len(res.Skipped)))
	return res, nil
}

// load reads, splits, and validates one document.
func (s *Scanner) load(src storage.Source, e storage.Entry, slug string) (*models.Post, error) {
	data, err := src.Read(e.Path)
	if err != nil {
		return nil, err
	}
	doc, err := parser.Split(data)
	if err != nil {
		return nil, err
	}
	f, err := s.validator.Validate(doc.Header)
	if err != nil {
		return nil, err
	}
	return &models.Post{
		Slug:        slug,
		Path:        e.Path,
		Title:       f.Title,
		Date:        f.Date,
		Updated:     f.Updated,
		Category:    f.Category,
		Tags:        f.Tags,
		Pinned:      f.Pinned,
		Author:      f.Author,
		Description: f.Description,
		Extra:       f.Extra,
		Checksum:    checksum.Sum(data),
		RawBody:     doc.Body,
	}, nil
}

// Slug derives a post identifier from a file name: the extension is stripped
// and case is preserved.
func Slug(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}
