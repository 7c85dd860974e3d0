package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/testutil"
)

func testConfig(t *testing.T, files map[string]string) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Source.Dir = testutil.Source(t, files)
	cfg.Build.OutputDir = filepath.Join(t.TempDir(), "public")
	cfg.Markdown.HighlightStyle = ""
	return cfg
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestBuild_WritesSite(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"hello.md":  testutil.Post("Hello", "2026-02-01", "tags: [go]\ncategory: notes\n", "## Start\n\ntext\n"),
		"older.md":  testutil.Post("Older", "2026-01-01", "", "body\n"),
		"about.md":  "---\ntitle: Me\n---\nAbout text.\n",
		"_draft.md": testutil.Post("Draft", "2026-03-01", "", "wip\n"),
	})
	cfg.Source.Exclude = []string{"_*"}
	cfg.Build.Catalog = filepath.Join(t.TempDir(), "catalog.db")

	if err := Build(context.Background(), WithConfig(cfg), WithLogger(testutil.Logger())); err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, rel := range []string{
		"index.html",
		"site.json",
		"blogs/hello.html",
		"blogs/older.html",
		"categories/index.html",
		"categories/notes.html",
		"categories/uncategorized.html",
		"tags/index.html",
		"tags/go.html",
		"about/index.html",
	} {
		if !exists(filepath.Join(cfg.Build.OutputDir, filepath.FromSlash(rel))) {
			t.Errorf("missing %s", rel)
		}
	}
	for _, rel := range []string{"blogs/about.html", "blogs/_draft.html"} {
		if exists(filepath.Join(cfg.Build.OutputDir, filepath.FromSlash(rel))) {
			t.Errorf("unexpected %s", rel)
		}
	}

	page, err := os.ReadFile(filepath.Join(cfg.Build.OutputDir, "blogs", "hello.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), `id="start"`) {
		t.Errorf("post page missing heading anchor")
	}

	db, err := catalog.Open(cfg.Build.Catalog)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	defer db.Close()
	rows, err := db.Index()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Slug != "hello" {
		t.Errorf("catalog index = %+v", rows)
	}
}

func TestBuild_NoPostsWritesNothing(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"broken.md": "---\ntitle: Broken\n",
	})
	if err := Build(context.Background(), WithConfig(cfg), WithLogger(testutil.Logger())); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if exists(cfg.Build.OutputDir) {
		t.Error("output dir should not be created")
	}
}

func TestBuild_MissingSource(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Source.Dir = filepath.Join(t.TempDir(), "missing")
	cfg.Build.OutputDir = filepath.Join(t.TempDir(), "public")
	err := Build(context.Background(), WithConfig(cfg), WithLogger(testutil.Logger()))
	if !errors.Is(err, apperr.ErrSourceDir) {
		t.Fatalf("err = %v, want ErrSourceDir", err)
	}
}

func TestBuild_CleanRemovesStaleFiles(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"hello.md": testutil.Post("Hello", "2026-02-01", "", "x\n"),
	})
	stale := filepath.Join(cfg.Build.OutputDir, "blogs", "gone.html")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg.Build.Clean = true
	if err := Build(context.Background(), WithConfig(cfg), WithLogger(testutil.Logger())); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if exists(stale) {
		t.Error("stale file survived clean build")
	}
	if !exists(filepath.Join(cfg.Build.OutputDir, "index.html")) {
		t.Error("index.html missing")
	}
}

func TestBuild_CleanRefusesSourceDir(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"hello.md": testutil.Post("Hello", "2026-02-01", "", "x\n"),
	})
	for _, out := range []string{cfg.Source.Dir, filepath.Dir(cfg.Source.Dir)} {
		cfg.Build.OutputDir = out
		cfg.Build.Clean = true
		if err := Build(context.Background(), WithConfig(cfg), WithLogger(testutil.Logger())); err == nil {
			t.Errorf("clean build into %s should fail", out)
		}
		if !exists(filepath.Join(cfg.Source.Dir, "hello.md")) {
			t.Fatalf("source post deleted by clean into %s", out)
		}
	}
}

func TestBuild_ConfigRequired(t *testing.T) {
	if err := Build(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"hello.md": testutil.Post("Hello", "2026-02-01", "", "x\n"),
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, WithConfig(cfg), WithLogger(testutil.Logger())) }()

	index := filepath.Join(cfg.Build.OutputDir, "index.html")
	deadline := time.Now().Add(5 * time.Second)
	for !exists(index) && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if !exists(index) {
		t.Error("initial build did not run")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
