package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/parsedesk/parsedesk/bootstrap"
	"github.com/parsedesk/parsedesk/domain/template"
)

var (
	templateQuery    string
	templatePage     int
	templatePageSize int
	templateName     string
	templateNodes    []string
	templateServer   string
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage region templates",
	Long: `Manage region templates, the named groups of production node ids
used to scope log collection. Node ids are numeric strings of up to
six digits; anything else is dropped on save.`,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List region templates",
	RunE:  runTemplatesList,
}

var templatesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one region template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesGet,
}

var templatesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a region template",
	RunE:  runTemplatesCreate,
}

var templatesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a region template",
	Long: `Update a region template. Only the flags you pass change; the
rest of the record is left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplatesUpdate,
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a region template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesDelete,
}

func init() {
	templatesListCmd.Flags().StringVar(&templateQuery, "query", "", "match on name or node id")
	templatesListCmd.Flags().IntVar(&templatePage, "page", 1, "page number")
	templatesListCmd.Flags().IntVar(&templatePageSize, "page-size", 20, "templates per page")

	for _, c := range []*cobra.Command{templatesCreateCmd, templatesUpdateCmd} {
		c.Flags().StringVar(&templateName, "name", "", "template name")
		c.Flags().StringSliceVar(&templateNodes, "nodes", nil, "node ids, comma separated")
		c.Flags().StringVar(&templateServer, "server", "", "server config id to bind to")
	}

	templatesCmd.AddCommand(templatesListCmd, templatesGetCmd, templatesCreateCmd,
		templatesUpdateCmd, templatesDeleteCmd)
	rootCmd.AddCommand(templatesCmd)
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	return withApp(func(a *bootstrap.App) error {
		page, err := a.Templates.List(context.Background(), template.Filter{
			Factory:  nsFactory,
			System:   nsSystem,
			Query:    templateQuery,
			Page:     templatePage,
			PageSize: templatePageSize,
		})
		if err != nil {
			return err
		}
		if page.Total == 0 {
			fmt.Println("No templates found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tFACTORY\tSYSTEM\tNODES")
		for _, t := range page.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
				t.ID, t.Name, t.FactoryName, t.SystemName, len(t.Nodes))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nShowing %d of %d templates\n", len(page.Items), page.Total)
		return nil
	})
}

func runTemplatesGet(cmd *cobra.Command, args []string) error {
	return withApp(func(a *bootstrap.App) error {
		t, err := a.Templates.Get(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:      %s\n", t.ID)
		fmt.Printf("Name:    %s\n", t.Name)
		fmt.Printf("Factory: %s\n", t.FactoryName)
		fmt.Printf("System:  %s\n", t.SystemName)
		if t.ServerConfigID != "" {
			fmt.Printf("Server:  %s\n", t.ServerConfigID)
		}
		fmt.Printf("Nodes:   %s\n", strings.Join(t.Nodes, ", "))
		if !t.UpdatedAt.IsZero() {
			fmt.Printf("Updated: %s\n", t.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	})
}

func runTemplatesCreate(cmd *cobra.Command, args []string) error {
	return withApp(func(a *bootstrap.App) error {
		t, err := a.Templates.Create(context.Background(), template.Template{
			Name:           templateName,
			FactoryName:    nsFactory,
			SystemName:     nsSystem,
			ServerConfigID: templateServer,
			Nodes:          templateNodes,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s Created template %s (%d nodes)\n", checkMark, t.ID, len(t.Nodes))
		return nil
	})
}

func runTemplatesUpdate(cmd *cobra.Command, args []string) error {
	var p template.Patch
	if cmd.Flags().Changed("name") {
		p.Name = &templateName
	}
	if cmd.Flags().Changed("nodes") {
		p.Nodes = &templateNodes
	}
	if cmd.Flags().Changed("server") {
		p.ServerConfigID = &templateServer
	}
	if cmd.Flags().Changed("factory") {
		p.FactoryName = &nsFactory
	}
	if cmd.Flags().Changed("system") {
		p.SystemName = &nsSystem
	}

	return withApp(func(a *bootstrap.App) error {
		t, err := a.Templates.Update(context.Background(), args[0], p)
		if err != nil {
			return err
		}
		fmt.Printf("%s Updated template %s\n", checkMark, t.ID)
		return nil
	})
}

func runTemplatesDelete(cmd *cobra.Command, args []string) error {
	return withApp(func(a *bootstrap.App) error {
		if err := a.Templates.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Deleted template %s\n", checkMark, args[0])
		return nil
	})
}
