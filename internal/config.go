package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/render"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Site     SiteConfig        `yaml:"site"`
	Source   SourceConfig      `yaml:"source"`
	Posts    PostsConfig       `yaml:"posts"`
	Build    BuildConfig       `yaml:"build"`
	Paths    PathsConfig       `yaml:"paths"`
	Markdown MarkdownConfig    `yaml:"markdown"`
	Watch    WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.Site, &c.Source, &c.Build, &c.Paths, &c.Markdown, &c.Watch} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c.Build.Clean {
		return CheckCleanTarget(c.Source.Dir, c.Build.OutputDir)
	}
	return nil
}

// CheckCleanTarget rejects an output directory that is the source directory
// or one of its ancestors.
func CheckCleanTarget(sourceDir, outputDir string) error {
	src, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("build: resolve source dir: %w", err)
	}
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("build: resolve output dir: %w", err)
	}
	rel, err := filepath.Rel(out, src)
	if err != nil {
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return fmt.Errorf("build: clean refused, output dir %s contains source dir %s", out, src)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// SiteConfig describes the generated site.
type SiteConfig struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	Author   string `yaml:"author"`
	Language string `yaml:"language"`
	// AboutFile is relative to the source directory; empty disables the about page.
	AboutFile string `yaml:"about_file"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.AboutFile, validation.By(relative)),
	)
}

// SourceConfig controls which files are treated as documents.
type SourceConfig struct {
	Dir        string   `yaml:"dir"`
	Recursive  bool     `yaml:"recursive"`
	Extensions []string `yaml:"extensions"`
	Exclude    []string `yaml:"exclude"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Extensions, validation.Each(validation.Required, validation.By(extension))),
	)
}

// PostsConfig holds per-post defaults.
type PostsConfig struct {
	DefaultCategory string `yaml:"default_category"`
	DefaultAuthor   string `yaml:"default_author"`
}

// BuildConfig controls output.
type BuildConfig struct {
	OutputDir   string `yaml:"output_dir"`
	Concurrency int    `yaml:"concurrency"`
	Clean       bool   `yaml:"clean"`
	// Catalog is the SQLite export path; empty disables the export.
	Catalog string `yaml:"catalog"`
}

// Validate validates the build configuration.
func (c *BuildConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(256)),
	)
}

// PathsConfig holds the output subdirectories of each page family.
type PathsConfig struct {
	Posts      string `yaml:"posts"`
	Categories string `yaml:"categories"`
	Tags       string `yaml:"tags"`
	About      string `yaml:"about"`
}

// Validate validates the paths configuration.
func (c *PathsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Posts, validation.Required, validation.By(relative)),
		validation.Field(&c.Categories, validation.Required, validation.By(relative)),
		validation.Field(&c.Tags, validation.Required, validation.By(relative)),
		validation.Field(&c.About, validation.Required, validation.By(relative)),
	)
}

// MarkdownConfig holds renderer options.
type MarkdownConfig struct {
	// HighlightStyle is a chroma style name; empty disables highlighting.
	HighlightStyle string `yaml:"highlight_style"`
	LineNumbers    bool   `yaml:"line_numbers"`
	HardWraps      bool   `yaml:"hard_wraps"`
	UnsafeHTML     bool   `yaml:"unsafe_html"`
}

// Validate validates the markdown configuration.
func (c *MarkdownConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HighlightStyle, validation.By(func(value any) error {
			s, _ := value.(string)
			if s != "" && !render.KnownStyle(s) {
				return errors.New("unknown highlight style")
			}
			return nil
		})),
	)
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

func relative(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\\", "/")
	if path.IsAbs(s) || s == ".." || strings.HasPrefix(s, "../") {
		return errors.New("must be a relative path inside the directory")
	}
	return nil
}

func extension(value any) error {
	s, _ := value.(string)
	if s != "" && !strings.HasPrefix(s, ".") {
		return errors.New("must start with a dot")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Site: SiteConfig{
			Title:     "My Blog",
			Language:  "en",
			AboutFile: "about.md",
		},
		Source: SourceConfig{
			Dir:        "./posts",
			Extensions: []string{".md"},
		},
		Posts: PostsConfig{
			DefaultCategory: "uncategorized",
		},
		Build: BuildConfig{
			OutputDir:   "./public",
			Concurrency: 4,
		},
		Paths: PathsConfig{
			Posts:      "blogs",
			Categories: "categories",
			Tags:       "tags",
			About:      "about",
		},
		Markdown: MarkdownConfig{
			HighlightStyle: "github",
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}
