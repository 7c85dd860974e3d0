package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/folio/internal"
	pkgconfig "github.com/starford/folio/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadWithDefaults(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Warn("config file not found, using defaults", slog.String("path", configPath))
	}

	if cmd.IsSet("source") {
		cfg.Source.Dir = cmd.String("source")
	}
	if cmd.IsSet("output") {
		cfg.Build.OutputDir = cmd.String("output")
	}
	if cmd.IsSet("clean") {
		cfg.Build.Clean = cmd.Bool("clean")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Build(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("build error: %w", err)
	}
	return nil
}

func watch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Watch(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("watch error: %w", err)
	}
	return nil
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file",
			DefaultText: "config/config.yaml",
			Value:       "config/config.yaml",
			Sources:     cli.EnvVars("APP_CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Source directory of Markdown posts (overrides source.dir)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output directory (overrides build.output_dir)",
		},
		&cli.BoolFlag{
			Name:  "clean",
			Usage: "Empty the output directory before writing",
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "folio",
		Usage: "Static blog generator: Markdown posts with YAML headers to a browsable site",
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build the site once",
				Flags:  flags(),
				Action: build,
			},
			{
				Name:   "watch",
				Usage:  "Build, then rebuild on every source change",
				Flags:  flags(),
				Action: watch,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
