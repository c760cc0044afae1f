package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parsedesk/parsedesk/bootstrap"
	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/domain/view"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show a namespace's schema hierarchy",
	Long: `Show the message types, versions, fields and escape tables of one
namespace in declaration order.

Examples:
  parsedesk tree -f tokyo -s press`,
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		nodes, err := a.Projector.Tree(context.Background(), ns)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			fmt.Printf("No message types in %s.\n", ns)
			return nil
		}
		fmt.Println(ns.String())
		printNodes(nodes, "  ")
		return nil
	})
}

func printNodes(nodes []*view.Node, indent string) {
	for _, n := range nodes {
		fmt.Printf("%s%s", indent, n.Name)
		switch n.Kind {
		case schema.LevelMessageType:
			if n.Description != "" {
				fmt.Printf("  (%s)", n.Description)
			}
		case schema.LevelField:
			if n.Length == nil {
				fmt.Printf("  [%d:]", n.Start)
			} else {
				fmt.Printf("  [%d:%d]", n.Start, n.Start+*n.Length)
			}
			if n.EscapeCount > 0 {
				fmt.Printf("  %d escapes", n.EscapeCount)
			}
		case schema.LevelEscape:
			fmt.Printf(" = %q", n.Value)
		}
		fmt.Println()
		printNodes(n.Children, indent+"  ")
	}
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a namespace's node counts and file metadata",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		stats, err := a.Projector.Stats(context.Background(), ns)
		if err != nil {
			return err
		}
		fmt.Printf("Namespace:     %s\n", ns)
		fmt.Printf("Message types: %d\n", stats.MessageTypes)
		fmt.Printf("Versions:      %d\n", stats.Versions)
		fmt.Printf("Fields:        %d (%d open-ended)\n", stats.Fields, stats.OpenEnded)
		fmt.Printf("Escapes:       %d\n", stats.Escapes)
		fmt.Printf("Path:          %s\n", stats.Path)
		if stats.Size >= 0 {
			fmt.Printf("Size:          %d bytes\n", stats.Size)
		}
		if !stats.LastModified.IsZero() {
			fmt.Printf("Last modified: %s\n", stats.LastModified.Format("2006-01-02 15:04:05"))
		}
		return nil
	})
}
