// Package commands provides the CLI command implementations for patterngen.
package commands

import (
	"fmt"
	"os"

	"github.com/AshkanYarmoradi/go-pattern/cli/config"
	"github.com/AshkanYarmoradi/go-pattern/cli/styles"
	"github.com/AshkanYarmoradi/go-pattern/cli/ui"
	"github.com/spf13/cobra"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewRootCommand creates the root command for the patterngen CLI
func NewRootCommand() *cobra.Command {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "patterngen",
		Short: "Typed accessor generator for schema-aware entities",
		Long: ui.SimpleBanner() + `

patterngen reads the JSON schema of a go-pattern entity type and writes
typed getters and setters over the entity's working data.

` + styles.Title.Render("Quick Start:") + `

  ` + styles.Code.Render("patterngen init") + `                 Create a patterngen.yaml manifest
  ` + styles.Code.Render("patterngen inspect schema.json") + `  Show the accessors a schema yields
  ` + styles.Code.Render("patterngen generate") + `             Generate accessors for every entity

` + styles.Title.Render("Documentation:") + `

  https://github.com/AshkanYarmoradi/go-pattern`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				styles.DisableColors()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("config", "", "Path to "+config.ConfigFileName+" (default: search upwards from the working directory)")

	// Add subcommands
	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewGenerateCommand())
	rootCmd.AddCommand(NewInspectCommand())
	rootCmd.AddCommand(NewVersionCommand(Version, Commit, BuildDate))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.FormatError(err.Error()))
		return err
	}

	return nil
}

// loadConfig resolves the manifest named by --config, or searches for one
// upwards from the working directory. It returns the manifest's directory.
func loadConfig(cmd *cobra.Command) (string, *config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return "", nil, err
		}
		abs, err := absDir(path)
		if err != nil {
			return "", nil, err
		}
		return abs, cfg, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", nil, err
	}
	root, cfg, err := config.FindConfig(cwd)
	if err != nil {
		return "", nil, fmt.Errorf("no %s found (run 'patterngen init' first): %w", config.ConfigFileName, err)
	}
	return root, cfg, nil
}
