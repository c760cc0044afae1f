package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/parsedesk/parsedesk/bootstrap"
	"github.com/parsedesk/parsedesk/domain/schema"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search a namespace's schema",
	Long: `Search names, descriptions and escape tables of one namespace.

Examples:
  parsedesk search login -f tokyo -s press
  parsedesk search "power on" --level escape -f tokyo -s press`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var searchLevel string

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchLevel, "level", "", "restrict to one tier: type, version, field or escape")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	level, err := parseLevel(searchLevel)
	if err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		matches, err := a.Projector.Search(context.Background(), ns, args[0], level)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Printf("No matches for %q in %s.\n", args[0], ns)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PATH\tMATCHED ON\tSNIPPET")
		for _, m := range matches {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.Path, m.MatchedOn, m.Snippet)
		}
		w.Flush()
		return nil
	})
}

// parseLevel maps a CLI tier name onto the schema level. Empty selects
// every tier.
func parseLevel(s string) (schema.Level, error) {
	switch s {
	case "":
		return "", nil
	case "type", "message_type":
		return schema.LevelMessageType, nil
	case "version":
		return schema.LevelVersion, nil
	case "field":
		return schema.LevelField, nil
	case "escape":
		return schema.LevelEscape, nil
	default:
		return "", fmt.Errorf("unknown level %q: use type, version, field or escape", s)
	}
}
