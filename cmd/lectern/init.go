package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/lectern"
	"github.com/aretw0/lectern/internal/config"
	"github.com/aretw0/lectern/internal/platform"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a library",
	Long:  `Create the library directory and a lectern.toml holding the current format and kind.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Root
		if len(args) == 1 {
			dir = args[0]
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}

		path := filepath.Join(abs, platform.ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		// Loading also creates the directory.
		if _, err := lectern.OpenLibrary(abs, libraryOptions()...); err != nil {
			return fmt.Errorf("failed to initialize library: %w", err)
		}

		c := cfg
		c.Root = "."
		if err := config.Save(path, c); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Initialized empty lectern library in", abs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
