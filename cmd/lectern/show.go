package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/lectern/pkg/codec"
)

var showRaw bool

var showCmd = &cobra.Command{
	Use:   "show [id|name]",
	Short: "Print a document",
	Long:  `Print a document content, or the whole encoded record with --raw.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		doc, err := resolveDocument(svc, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !showRaw {
			fmt.Fprintln(out, doc.Content)
			return nil
		}

		c, ok := codec.DefaultRegistry().ForExt(cfg.Format)
		if !ok {
			return fmt.Errorf("no codec for format %q", cfg.Format)
		}
		data, err := c.Encode(doc)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print the encoded record in the configured format")
}
