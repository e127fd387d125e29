package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	newContent string
	newTags    []string
)

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a document",
	Long:  `Create a document. Content comes from --content, or from stdin when --content is "-".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content := newContent
		if content == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			content = string(data)
		}

		svc, err := openService()
		if err != nil {
			return err
		}
		doc, err := svc.Create(cmd.Context(), args[0], content, newTags...)
		if err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", doc.ID, doc.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVar(&newContent, "content", "", "Document content (\"-\" reads stdin)")
	newCmd.Flags().StringSliceVarP(&newTags, "tag", "t", nil, "Tags to attach")
}
