package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/parsedesk/parsedesk/bootstrap"
	"github.com/parsedesk/parsedesk/domain/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <type> <version> <message>",
	Short: "Extract fields from a raw message",
	Long: `Render a raw message against a (type, version) layout.

Every field reports its raw bytes, its display value (escape table hit
or the raw value) and a status: ok, truncated or outOfRange.

Examples:
  parsedesk render LoginReq 01 "USER0001T230000" -f tokyo -s press
  parsedesk render Status 01 "01" --field Code -f tokyo -s press`,
	Args: cobra.ExactArgs(3),
	RunE: runRender,
}

var renderField string

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderField, "field", "", "render a single named field")
}

func runRender(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	typeName, version, raw := args[0], args[1], args[2]

	return withApp(func(a *bootstrap.App) error {
		ctx := context.Background()

		var fields []render.RenderedField
		if renderField != "" {
			field, err := a.Renderer.RenderField(ctx, ns, typeName, version, renderField, raw)
			if err != nil {
				return err
			}
			fields = []render.RenderedField{field}
		} else {
			var err error
			fields, err = a.Renderer.RenderMessage(ctx, ns, typeName, version, raw)
			if err != nil {
				return err
			}
		}

		if len(fields) == 0 {
			fmt.Printf("No fields configured for %s/%s.\n", typeName, version)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FIELD\tRAW\tDISPLAY\tSTATUS")
		for _, f := range fields {
			fmt.Fprintf(w, "%s\t%q\t%s\t%s\n", f.Name, f.Raw, f.Display, f.Status)
		}
		w.Flush()
		return nil
	})
}
