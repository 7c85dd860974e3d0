// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/metadata"
	"github.com/starford/folio/internal/pipeline"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/scanner"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/watch"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if app.logger == nil {
		// Initialize structured JSON logger.
		app.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
		slog.SetDefault(app.logger)
	}

	cfg := app.config
	app.logger.Info("Configuration loaded",
		slog.String("source_dir", cfg.Source.Dir),
		slog.String("output_dir", cfg.Build.OutputDir),
		slog.Int("concurrency", cfg.Build.Concurrency),
		slog.String("catalog", cfg.Build.Catalog),
		slog.String("log_level", cfg.App.LogLevel.String()))
	return app, nil
}

// Build derives the site once and writes it to the output directory.
func Build(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	_, err = app.build(ctx)
	return err
}

// Watch builds once, then rebuilds the whole site on every source change
// until ctx is cancelled or the process receives SIGINT or SIGTERM.
func Watch(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger
	cfg := app.config

	if _, err := app.build(ctx); err != nil {
		if errors.Is(err, apperr.ErrSourceDir) {
			return err
		}
		logger.Error("initial build failed", slog.String("error", err.Error()))
	}

	srcDir, err := filepath.Abs(cfg.Source.Dir)
	if err != nil {
		return fmt.Errorf("resolve source dir: %w", err)
	}
	outDir, err := filepath.Abs(cfg.Build.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}
	ignore := []string{outDir}
	if cfg.Build.Catalog != "" {
		if p, err := filepath.Abs(cfg.Build.Catalog); err == nil {
			ignore = append(ignore, p)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return watch.Run(gCtx, srcDir, watch.Options{Debounce: cfg.Watch.Debounce, Ignore: ignore}, logger,
			func(ctx context.Context) error {
				_, err := app.build(ctx)
				return err
			})
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
			logger.Info("Context cancelled, stopping watch")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watch stopped successfully")
	return nil
}

// build runs one full derivation and writes every output. A source tree
// without valid posts writes nothing.
func (a *application) build(ctx context.Context) (*pipeline.Site, error) {
	cfg := a.config
	logger := a.logger
	start := time.Now()

	patterns := append([]string(nil), cfg.Source.Exclude...)
	if cfg.Site.AboutFile != "" {
		patterns = append(patterns, filepath.ToSlash(cfg.Site.AboutFile))
	}
	exclude, err := storage.CompileMatcher(patterns)
	if err != nil {
		return nil, fmt.Errorf("compile exclude patterns: %w", err)
	}

	author := cfg.Posts.DefaultAuthor
	if author == "" {
		author = cfg.Site.Author
	}
	validator := metadata.New(metadata.Defaults{Category: cfg.Posts.DefaultCategory, Author: author})

	sc := scanner.New(validator, scanner.Options{
		Recursive:   cfg.Source.Recursive,
		Extensions:  cfg.Source.Extensions,
		Exclude:     exclude,
		Concurrency: cfg.Build.Concurrency,
	}, logger)

	md := render.NewMarkdown(render.Options{
		HighlightStyle: cfg.Markdown.HighlightStyle,
		LineNumbers:    cfg.Markdown.LineNumbers,
		HardWraps:      cfg.Markdown.HardWraps,
		UnsafeHTML:     cfg.Markdown.UnsafeHTML,
	})

	p := pipeline.New(sc, md, pipeline.Options{
		Concurrency: cfg.Build.Concurrency,
		AboutFile:   filepath.ToSlash(cfg.Site.AboutFile),
	}, logger)

	derived, err := p.Run(ctx, cfg.Source.Dir)
	if err != nil {
		return nil, err
	}

	if len(derived.Posts) == 0 {
		logger.Warn("no valid posts found, nothing written",
			slog.String("source_dir", cfg.Source.Dir),
			slog.Int("skipped", len(derived.Skipped)))
		return derived, nil
	}

	if cfg.Build.Clean {
		if err := CheckCleanTarget(cfg.Source.Dir, cfg.Build.OutputDir); err != nil {
			return nil, err
		}
	}
	out, err := storage.CreateFS(cfg.Build.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("init output: %w", err)
	}
	if cfg.Build.Clean {
		if err := out.Clean(); err != nil {
			return nil, fmt.Errorf("clean output: %w", err)
		}
	}

	w, err := site.NewWriter(out, site.Info{
		Title:    cfg.Site.Title,
		Subtitle: cfg.Site.Subtitle,
		Author:   cfg.Site.Author,
		Language: cfg.Site.Language,
		Paths: site.Paths{
			Posts:      cfg.Paths.Posts,
			Categories: cfg.Paths.Categories,
			Tags:       cfg.Paths.Tags,
			About:      cfg.Paths.About,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init writer: %w", err)
	}
	if err := w.Write(ctx, derived); err != nil {
		return nil, fmt.Errorf("write site: %w", err)
	}

	if cfg.Build.Catalog != "" {
		if err := catalog.Export(cfg.Build.Catalog, derived); err != nil {
			return nil, fmt.Errorf("export catalog: %w", err)
		}
		logger.Info("catalog exported", slog.String("path", cfg.Build.Catalog))
	}

	logger.Info("build finished",
		slog.Int("posts", len(derived.Posts)),
		slog.Int("skipped", len(derived.Skipped)),
		slog.Duration("took", time.Since(start)))
	return derived, nil
}
