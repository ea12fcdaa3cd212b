package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AshkanYarmoradi/go-pattern/cli/config"
	"github.com/AshkanYarmoradi/go-pattern/cli/styles"
	"github.com/AshkanYarmoradi/go-pattern/cli/ui"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	var (
		name   string
		module string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a patterngen.yaml manifest",
		Long: `Create a patterngen.yaml manifest in the given directory (default: the
working directory). The module path is read from go.mod when present.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(absDir, 0o755); err != nil {
				return err
			}

			if config.Exists(absDir) && !force {
				return fmt.Errorf("%s already exists in %s (use --force to overwrite)", config.ConfigFileName, absDir)
			}

			cfg := config.DefaultConfig()
			cfg.Project.Name = filepath.Base(absDir)
			if detected := detectModule(absDir); detected != "" {
				cfg.Project.Module = detected
			}
			if name != "" {
				cfg.Project.Name = name
			}
			if module != "" {
				cfg.Project.Module = module
			}

			path := filepath.Join(absDir, config.ConfigFileName)
			if err := os.WriteFile(path, []byte(config.GenerateYAML(cfg)), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.FormatSuccess("Created "+path))
			fmt.Fprintln(out, styles.FormatKeyValue("Project", cfg.Project.Name))
			fmt.Fprintln(out, styles.FormatKeyValue("Module", cfg.Project.Module))
			fmt.Fprintln(out)
			fmt.Fprintln(out, styles.Title.Render("Next steps:"))
			fmt.Fprintln(out, ui.NumberedList(nextSteps()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (default: directory name)")
	cmd.Flags().StringVarP(&module, "module", "m", "", "Go module path (default: from go.mod)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing manifest")

	return cmd
}

func nextSteps() []string {
	return []string{
		"Add your entity types under " + styles.Code.Render("entities:"),
		"Run " + styles.Code.Render("patterngen inspect <schema>") + " to preview the accessors",
		"Run " + styles.Code.Render("patterngen generate"),
	}
}

// detectModule tries to detect the Go module from go.mod
func detectModule(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return ""
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			return strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "module ")), `"`)
		}
	}
	return ""
}

func absDir(path string) (string, error) {
	return filepath.Abs(filepath.Dir(path))
}
