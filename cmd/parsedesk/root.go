package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parsedesk/parsedesk/bootstrap"
	"github.com/parsedesk/parsedesk/domain/schema"
)

var (
	// Global flags
	cfgFile   string
	nsFactory string
	nsSystem  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "parsedesk",
	Short: "Schema-driven field extraction for fixed-layout factory logs",
	Long: `Parsedesk maintains per-namespace message schemas and renders raw
factory log messages against them.

A namespace is one (factory, system) pair; its schema describes message
types, layout versions, fixed-position fields and escape tables.

Quick start:
  parsedesk add type LoginReq -f tokyo -s press --description "login request"
  parsedesk add field LoginReq 01 UserId --start 0 --length 8 -f tokyo -s press
  parsedesk tree -f tokyo -s press
  parsedesk render LoginReq 01 "USER0001..." -f tokyo -s press

Management:
  parsedesk servers    # Server registry
  parsedesk templates  # Region templates
  parsedesk validate   # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "parsedesk.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&nsFactory, "factory", "f", "", "factory name")
	rootCmd.PersistentFlags().StringVarP(&nsSystem, "system", "s", "", "system name")
}

// withApp wires the engine, runs fn and releases it.
func withApp(fn func(*bootstrap.App) error) error {
	a, err := bootstrap.New(cfgFile)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// namespaceArg builds the namespace from the global flags.
func namespaceArg() (schema.Namespace, error) {
	ns := schema.Namespace{Factory: nsFactory, System: nsSystem}
	if ns.Factory == "" || ns.System == "" {
		return ns, fmt.Errorf("a namespace is required: pass --factory and --system")
	}
	return ns, nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
