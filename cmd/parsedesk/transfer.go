package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parsedesk/parsedesk/app"
	"github.com/parsedesk/parsedesk/bootstrap"
)

var (
	exportFormat string
	importFormat string
	importMode   string
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export a schema document",
	Long: `Export the schema document for a namespace as JSON or YAML.

With a file argument the document is written to that file and the
format defaults to the file extension. Without one it goes to stdout
as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a schema document",
	Long: `Import a schema document from a JSON or YAML file.

The default mode replaces the stored document. With --mode merge the
incoming document only fills gaps: existing message types, versions,
fields and escapes are never overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "output format: json or yaml")
	importCmd.Flags().StringVar(&importFormat, "format", "", "input format: json or yaml (default: by file extension)")
	importCmd.Flags().StringVar(&importMode, "mode", "", "import mode: overwrite or merge (default: overwrite)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}

	var file string
	if len(args) == 1 {
		file = args[0]
	}

	format := app.FormatJSON
	switch {
	case exportFormat != "":
		if format, err = app.ParseFormat(exportFormat); err != nil {
			return err
		}
	case file != "":
		if f, ferr := app.FormatForFile(file); ferr == nil {
			format = f
		}
	}

	return withApp(func(a *bootstrap.App) error {
		data, err := a.Transfer.Export(context.Background(), ns, format)
		if err != nil {
			return err
		}
		if file == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(file, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
		fmt.Printf("%s Exported %s to %s\n", checkMark, ns, file)
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	file := args[0]

	format, err := app.FormatForFile(file)
	if importFormat != "" {
		format, err = app.ParseFormat(importFormat)
	}
	if err != nil {
		return err
	}
	mode, err := app.ParseMode(importMode)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	return withApp(func(a *bootstrap.App) error {
		stats, err := a.Transfer.Import(context.Background(), ns, data, format, mode)
		if err != nil {
			return err
		}
		if mode == app.ModeMerge {
			fmt.Printf("%s Merged %s into %s (%d message types, %d versions, %d fields, %d escapes added)\n",
				checkMark, file, ns, stats.MessageTypes, stats.Versions, stats.Fields, stats.Escapes)
			return nil
		}
		fmt.Printf("%s Imported %s into %s\n", checkMark, file, ns)
		return nil
	})
}
