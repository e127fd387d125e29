package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	lclifecycle "github.com/aretw0/lectern/pkg/adapters/lifecycle"
)

var (
	watchMatch string
	watchTypes []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes to the library root until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		types, err := lclifecycle.ParseEventTypes(watchTypes)
		if err != nil {
			return err
		}
		svc, err := openService()
		if err != nil {
			return err
		}

		source := lclifecycle.NewSource(svc, watchMatch, types...)
		if err := source.Start(ctx); err != nil {
			return err
		}
		logger.Info("watching", "root", cfg.Root, "match", watchMatch)

		out := cmd.OutOrStdout()
		for e := range source.Events() {
			fmt.Fprintln(out, e.String())
		}
		if err := ctx.Err(); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchMatch, "match", "m", "", "Glob matched against file names")
	watchCmd.Flags().StringSliceVar(&watchTypes, "type", nil, "Only these event types (create, modify, delete)")
}
