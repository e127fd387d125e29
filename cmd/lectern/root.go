package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/aretw0/lectern"
	"github.com/aretw0/lectern/internal/config"
	"github.com/aretw0/lectern/internal/platform"
	"github.com/aretw0/lectern/pkg/core"
)

var (
	verbose    bool
	rootDir    string
	configPath string
	formatFlag string
	kindFlag   string

	cfg    config.Config
	logger = slog.New(slog.DiscardHandler)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "A file-backed library of slides, songs and bible passages",
	Long: `Lectern keeps presentation documents as one self-describing file each.
It names files after documents, writes them atomically and moves them
in and out of zip bundles.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = log.InfoLevel
		}
		if verbose {
			level = log.DebugLevel
		}
		handler := log.NewWithOptions(os.Stderr, log.Options{
			Level:  level,
			Prefix: "lectern",
		})
		logger = slog.New(handler)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "", "Library root (default: nearest lectern.toml or the working directory)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to lectern.toml")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "", "Format for new files (json, yaml)")
	rootCmd.PersistentFlags().StringVar(&kindFlag, "kind", "", "Document kind (slide, song, bible)")
}

// loadConfig resolves the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	start := rootDir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		start = wd
	}

	path := configPath
	found, findErr := platform.FindRoot(start)
	if path == "" && findErr == nil {
		path = filepath.Join(found, platform.ConfigFileName)
	}

	c, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	switch {
	case rootDir != "":
		c.Root = rootDir
	case path == "" || !fileExists(path):
		c.Root = start
		if findErr == nil {
			c.Root = found
		}
	}
	if formatFlag != "" {
		c.Format = strings.ToLower(formatFlag)
	}
	if kindFlag != "" {
		c.Kind = strings.ToLower(kindFlag)
	}
	if err := c.Validate(); err != nil {
		return config.Config{}, err
	}
	return c, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func libraryOptions(extra ...lectern.Option) []lectern.Option {
	opts := []lectern.Option{
		lectern.WithLogger(logger),
		lectern.WithKind(cfg.Kind),
		lectern.WithFormat(cfg.Format),
		lectern.WithMaxFileNameLength(cfg.MaxFileNameLength),
	}
	return append(opts, extra...)
}

func openService(extra ...lectern.Option) (*core.Service, error) {
	svc, err := lectern.New(cfg.Root, libraryOptions(extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open library %s: %w", cfg.Root, err)
	}
	return svc, nil
}

// resolveDocument finds a document by id, falling back to an exact,
// unambiguous display name.
func resolveDocument(svc *core.Service, ref string) (*core.Document, error) {
	ctx := rootCmd.Context()
	doc, err := svc.Get(ctx, ref)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	docs, err := svc.List(ctx, core.Filter{})
	if err != nil {
		return nil, err
	}
	var matches []*core.Document
	for _, d := range docs {
		if d.Name == ref {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%q: %w", ref, core.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%q matches %d documents, use the id", ref, len(matches))
	}
}
