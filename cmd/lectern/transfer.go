package main

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/aretw0/lectern"
	"github.com/aretw0/lectern/internal/platform"
	"github.com/aretw0/lectern/pkg/bundle"
	"github.com/aretw0/lectern/pkg/core"
)

var importCmd = &cobra.Command{
	Use:   "import [file]...",
	Short: "Import zip bundles or single document files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := lectern.OpenLibrary(cfg.Root, libraryOptions()...)
		if err != nil {
			return fmt.Errorf("failed to open library %s: %w", cfg.Root, err)
		}
		pipeline := platform.NewPipeline(lib, libraryOptions()...)
		pipeline.OnState = func(s bundle.State) {
			logger.Debug("import state", "state", s.String())
		}

		var result error
		for _, file := range args {
			report, err := pipeline.ImportFile(cmd.Context(), file)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", file, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d imported (%s)\n", file, len(report.Saved), report.Format)
			if report.Skipped != nil {
				logger.Warn("entries skipped", "file", file, "error", report.Skipped)
			}
		}
		return result
	},
}

var (
	exportTag   string
	exportMatch string
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export documents to a zip bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		docs, err := svc.List(cmd.Context(), core.Filter{Tag: exportTag, Pattern: exportMatch})
		if err != nil {
			return err
		}

		lib, ok := svc.Store().(*lectern.Library)
		if !ok {
			return fmt.Errorf("store does not support export")
		}
		if err := lib.ExportFile(args[0], docs); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d exported to %s\n", len(docs), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportTag, "tag", "", "Only documents carrying this tag")
	exportCmd.Flags().StringVarP(&exportMatch, "match", "m", "", "Glob matched against document names")
}
