package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/lectern/pkg/core"
)

var (
	listJSON    bool
	listTag     string
	listPattern string
)

type listEntry struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	Tags       []string `json:"tags"`
	ModifiedAt string   `json:"modifiedAt"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List documents in the library",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		docs, err := svc.List(cmd.Context(), core.Filter{Tag: listTag, Pattern: listPattern})
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			entries := make([]listEntry, 0, len(docs))
			for _, d := range docs {
				entries = append(entries, listEntry{
					ID:         d.ID,
					Kind:       d.Kind,
					Name:       d.Name,
					Path:       d.Path,
					Tags:       d.Tags.Sorted(),
					ModifiedAt: d.ModifiedAt.Format(time.RFC3339),
				})
			}
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(entries)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, d := range docs {
			fmt.Fprintf(tw, "%s\t%s\t%v\n", d.ID, d.Name, d.Tags.Sorted())
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listTag, "tag", "", "Only documents carrying this tag")
	listCmd.Flags().StringVarP(&listPattern, "match", "m", "", "Glob matched against document names")
}
