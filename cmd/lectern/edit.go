package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename [id|name] [new-name]",
	Short: "Rename a document and its file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		doc, err := resolveDocument(svc, args[0])
		if err != nil {
			return err
		}
		renamed, err := svc.Rename(cmd.Context(), doc.ID, args[1])
		if err != nil {
			return fmt.Errorf("failed to rename document: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", renamed.ID, renamed.Path)
		return nil
	},
}

var writeCmd = &cobra.Command{
	Use:   "write [id|name]",
	Short: "Replace a document content with stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}

		svc, err := openService()
		if err != nil {
			return err
		}
		doc, err := resolveDocument(svc, args[0])
		if err != nil {
			return err
		}
		if _, err := svc.SetContent(cmd.Context(), doc.ID, string(data)); err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm [id|name]...",
	Aliases: []string{"delete"},
	Short:   "Remove documents",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		for _, ref := range args {
			doc, err := resolveDocument(svc, ref)
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), doc.ID); err != nil {
				return fmt.Errorf("failed to remove %s: %w", ref, err)
			}
			logger.Info("removed", "id", doc.ID, "name", doc.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(rmCmd)
}
