package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/parsedesk/parsedesk/bootstrap"
	"github.com/parsedesk/parsedesk/domain/registry"
)

var (
	serverAlias        string
	serverHostname     string
	serverUsername     string
	serverPassword     string
	serverRealtimePath string
	serverArchivePath  string
)

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "Manage server configs",
	Long: `Manage the server configs that bind factory/system namespaces to
log servers. Creating, updating or deleting a config keeps the bound
region templates and the schema document location in step.`,
}

var serversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List server configs",
	RunE:  runServersList,
}

var serversGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one server config",
	Args:  cobra.ExactArgs(1),
	RunE:  runServersGet,
}

var serversCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a server config",
	RunE:  runServersCreate,
}

var serversUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a server config",
	Long: `Update a server config. All fields are replaced with the flag
values, so pass the complete record. Renaming the factory or system
moves the schema document and relabels bound templates.`,
	Args: cobra.ExactArgs(1),
	RunE: runServersUpdate,
}

var serversDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a server config and its bound templates",
	Args:  cobra.ExactArgs(1),
	RunE:  runServersDelete,
}

var serversFactoriesCmd = &cobra.Command{
	Use:   "factories",
	Short: "List known factories",
	RunE:  runServersFactories,
}

var serversSystemsCmd = &cobra.Command{
	Use:   "systems",
	Short: "List known systems, optionally for one factory",
	RunE:  runServersSystems,
}

func init() {
	for _, c := range []*cobra.Command{serversCreateCmd, serversUpdateCmd} {
		c.Flags().StringVar(&serverAlias, "alias", "", "display alias for the server")
		c.Flags().StringVar(&serverHostname, "hostname", "", "server hostname")
		c.Flags().StringVar(&serverUsername, "username", "", "login username")
		c.Flags().StringVar(&serverPassword, "password", "", "login password")
		c.Flags().StringVar(&serverRealtimePath, "realtime-path", "", "remote path of live logs")
		c.Flags().StringVar(&serverArchivePath, "archive-path", "", "remote path of archived logs")
	}

	serversCmd.AddCommand(serversListCmd, serversGetCmd, serversCreateCmd,
		serversUpdateCmd, serversDeleteCmd, serversFactoriesCmd, serversSystemsCmd)
	rootCmd.AddCommand(serversCmd)
}

func entryFromFlags() registry.Entry {
	return registry.Entry{
		Factory: nsFactory,
		System:  nsSystem,
		Server: registry.Server{
			Alias:        serverAlias,
			Hostname:     serverHostname,
			Username:     serverUsername,
			Password:     serverPassword,
			RealtimePath: serverRealtimePath,
			ArchivePath:  serverArchivePath,
		},
	}
}

func runServersList(cmd *cobra.Command, args []string) error {
	return withApp(func(a *bootstrap.App) error {
		entries, err := a.Registry.List(context.Background())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No server configs found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFACTORY\tSYSTEM\tALIAS\tHOSTNAME")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.Factory, e.System, e.Server.Alias, e.Server.Hostname)
		}
		return w.Flush()
	})
}

func runServersGet(cmd *cobra.Command, args []string) error {
	return withApp(func(a *bootstrap.App) error {
		e, err := a.Registry.Get(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:            %s\n", e.ID)
		fmt.Printf("Factory:       %s\n", e.Factory)
		fmt.Printf("System:        %s\n", e.System)
		fmt.Printf("Alias:         %s\n", e.Server.Alias)
		fmt.Printf("Hostname:      %s\n", e.Server.Hostname)
		fmt.Printf("Username:      %s\n", e.Server.Username)
		fmt.Printf("Realtime path: %s\n", e.Server.RealtimePath)
		fmt.Printf("Archive path:  %s\n", e.Server.ArchivePath)
		if !e.CreatedAt.IsZero() {
			fmt.Printf("Created:       %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		if !e.UpdatedAt.IsZero() {
			fmt.Printf("Updated:       %s\n", e.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	})
}

func runServersCreate(cmd *cobra.Command, args []string) error {
	if _, err := namespaceArg(); err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		e, err := a.Registry.Create(context.Background(), entryFromFlags())
		if err != nil {
			return err
		}
		fmt.Printf("%s Created server config %s for %s\n", checkMark, e.ID, e.Namespace())
		return nil
	})
}

func runServersUpdate(cmd *cobra.Command, args []string) error {
	if _, err := namespaceArg(); err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		e, err := a.Registry.Update(context.Background(), args[0], entryFromFlags())
		if err != nil {
			return err
		}
		fmt.Printf("%s Updated server config %s\n", checkMark, e.ID)
		return nil
	})
}

func runServersDelete(cmd *cobra.Command, args []string) error {
	return withApp(func(a *bootstrap.App) error {
		removed, err := a.Registry.Delete(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s Deleted server config %s (%d templates removed)\n", checkMark, args[0], removed)
		return nil
	})
}

func runServersFactories(cmd *cobra.Command, args []string) error {
	return withApp(func(a *bootstrap.App) error {
		factories, err := a.Registry.Factories(context.Background())
		if err != nil {
			return err
		}
		for _, f := range factories {
			fmt.Println(f)
		}
		return nil
	})
}

func runServersSystems(cmd *cobra.Command, args []string) error {
	return withApp(func(a *bootstrap.App) error {
		systems, err := a.Registry.Systems(context.Background(), nsFactory)
		if err != nil {
			return err
		}
		for _, s := range systems {
			fmt.Println(s)
		}
		return nil
	})
}
