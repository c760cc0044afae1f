package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parsedesk/parsedesk/bootstrap"
	"github.com/parsedesk/parsedesk/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and stored schema documents",
	Long: `Validate the parsedesk configuration file and, optionally, every
stored schema document.

Checks:
  - YAML syntax is valid
  - Logging settings are known values
  - Data directories resolve
  - Stored documents decode and pass schema validation (--check-documents)

Examples:
  parsedesk validate
  parsedesk validate --config /etc/parsedesk/config.yaml --check-documents`,
	RunE: runValidate,
}

var validateCheckDocuments bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDocuments, "check-documents", false, "load and validate every stored schema document")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists (using environment defaults)\n", crossMark)
	} else {
		fmt.Printf("  %s Config file exists\n", checkMark)
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config valid\n", checkMark)

	fmt.Printf("  %s Schema documents: %s\n", checkMark, cfg.Paths.SchemaDir)
	fmt.Printf("  %s Server registry:  %s\n", checkMark, cfg.Paths.ConfigDir)
	fmt.Printf("  %s Templates:        %s\n", checkMark, cfg.Paths.TemplateDir)
	fmt.Printf("  %s Logging: %s (%s)\n", checkMark, cfg.Logging.Level, cfg.Logging.Format)

	if !validateCheckDocuments {
		fmt.Println("\nConfiguration is valid.")
		return nil
	}

	a, err := bootstrap.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	namespaces, err := a.Docs.List(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	bad := 0
	for _, ns := range namespaces {
		doc, err := a.Docs.Load(ctx, ns)
		if err == nil {
			err = doc.Validate()
		}
		if err != nil {
			bad++
			fmt.Printf("  %s %s: %v\n", crossMark, ns, err)
			continue
		}
		fmt.Printf("  %s %s\n", checkMark, ns)
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d documents failed validation", bad, len(namespaces))
	}

	fmt.Printf("\nConfiguration and %d documents are valid.\n", len(namespaces))
	return nil
}
