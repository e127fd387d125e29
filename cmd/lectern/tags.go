package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/disiqueira/gotree/v3"
	"github.com/spf13/cobra"

	"github.com/aretw0/lectern/pkg/core"
)

type tagOp func(svc *core.Service, ctx context.Context, id string, tags ...string) (bool, error)

var tagCmd = &cobra.Command{
	Use:   "tag [id|name] [tag]...",
	Short: "Add tags to a document",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeTags(cmd, args, (*core.Service).Tag)
	},
}

var untagCmd = &cobra.Command{
	Use:   "untag [id|name] [tag]...",
	Short: "Remove tags from a document",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeTags(cmd, args, (*core.Service).Untag)
	},
}

func changeTags(cmd *cobra.Command, args []string, op tagOp) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	doc, err := resolveDocument(svc, args[0])
	if err != nil {
		return err
	}
	changed, err := op(svc, cmd.Context(), doc.ID, args[1:]...)
	if err != nil {
		return fmt.Errorf("failed to update tags: %w", err)
	}
	if !changed {
		logger.Info("tags unchanged", "id", doc.ID)
	}
	return nil
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Show documents grouped by tag",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		docs, err := svc.List(cmd.Context(), core.Filter{})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderTagTree(cfg.Root, docs))
		return nil
	},
}

// renderTagTree lists each tag with the names of the documents carrying it,
// followed by the untagged documents.
func renderTagTree(label string, docs []*core.Document) string {
	byTag := make(map[string][]string)
	var untagged []string
	for _, d := range docs {
		if len(d.Tags) == 0 {
			untagged = append(untagged, d.Name)
			continue
		}
		for _, t := range d.Tags.Sorted() {
			byTag[t] = append(byTag[t], d.Name)
		}
	}

	tags := make([]string, 0, len(byTag))
	for t := range byTag {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	tree := gotree.New(label)
	for _, t := range tags {
		node := tree.Add("#" + t)
		for _, name := range byTag[t] {
			node.Add(name)
		}
	}
	if len(untagged) > 0 {
		node := tree.Add("(untagged)")
		for _, name := range untagged {
			node.Add(name)
		}
	}
	return tree.Print()
}

func init() {
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(untagCmd)
	rootCmd.AddCommand(tagsCmd)
}
