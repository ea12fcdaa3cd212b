package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AshkanYarmoradi/go-pattern/cli/codegen"
	"github.com/AshkanYarmoradi/go-pattern/cli/config"
	"github.com/AshkanYarmoradi/go-pattern/cli/styles"
	"github.com/spf13/cobra"
)

// ErrStale is returned by generate --check when a generated file is out of date.
var ErrStale = errors.New("generated files are out of date")

type generateOptions struct {
	schema   string
	typeName string
	pkg      string
	dir      string
	output   string
	receiver string
	dryRun   bool
	check    bool
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate [type...]",
		Short: "Generate typed accessors from entity schemas",
		Long: `Generate typed getters and setters for schema-aware entities.

Without --schema every entity listed in patterngen.yaml is generated, or only
the named types when given. With --schema a single entity is generated from
flags alone and no manifest is needed.

Accessors already declared by hand on the type are left out.`,
		Aliases: []string{"gen", "g"},
		Example: `  patterngen generate
  patterngen generate Person
  patterngen generate --schema person.json --type Person --dir ./person
  patterngen generate --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, root, suffix, err := resolveTargets(cmd, opts, args)
			if err != nil {
				return err
			}
			return runGenerate(cmd.OutOrStdout(), root, suffix, targets, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.schema, "schema", "s", "", "Schema file (JSON or YAML) for a one-off generation")
	cmd.Flags().StringVarP(&opts.typeName, "type", "t", "", "Go type receiving the accessors (with --schema)")
	cmd.Flags().StringVarP(&opts.pkg, "package", "p", "", "Package name (default: base of --dir)")
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", ".", "Package directory (with --schema)")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "Output file name (default: <type>"+config.DefaultSuffix+")")
	cmd.Flags().StringVar(&opts.receiver, "receiver", "", "Receiver variable name")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the generated source instead of writing it")
	cmd.Flags().BoolVar(&opts.check, "check", false, "Fail if a generated file is missing or out of date")

	return cmd
}

func resolveTargets(cmd *cobra.Command, opts generateOptions, args []string) ([]config.EntityConfig, string, string, error) {
	if opts.schema != "" {
		if opts.typeName == "" {
			return nil, "", "", fmt.Errorf("--type is required with --schema")
		}
		root, err := os.Getwd()
		if err != nil {
			return nil, "", "", err
		}
		return []config.EntityConfig{{
			Type:     opts.typeName,
			Schema:   opts.schema,
			Dir:      opts.dir,
			Package:  opts.pkg,
			Output:   opts.output,
			Receiver: opts.receiver,
		}}, root, config.DefaultSuffix, nil
	}

	root, cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, "", "", err
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, "", "", fmt.Errorf("invalid %s:\n  %s", config.ConfigFileName, strings.Join(problems, "\n  "))
	}

	if len(args) == 0 {
		if len(cfg.Entities) == 0 {
			return nil, "", "", fmt.Errorf("no entities configured in %s", config.ConfigFileName)
		}
		return cfg.Entities, root, cfg.Generation.Suffix, nil
	}

	targets := make([]config.EntityConfig, 0, len(args))
	for _, name := range args {
		e, ok := cfg.Entity(name)
		if !ok {
			return nil, "", "", fmt.Errorf("entity %q is not configured in %s", name, config.ConfigFileName)
		}
		targets = append(targets, e)
	}
	return targets, root, cfg.Generation.Suffix, nil
}

func runGenerate(out io.Writer, root, suffix string, targets []config.EntityConfig, opts generateOptions) error {
	stale := 0

	for i, e := range targets {
		path := e.OutputPath(root, suffix)
		schema, err := codegen.LoadSchema(e.SchemaPath(root))
		if err != nil {
			return err
		}
		genOpts := codegen.Options{
			Package:  e.PackageName(),
			TypeName: e.Type,
			Receiver: e.Receiver,
			Schema:   schema,
		}

		if !opts.dryRun && !opts.check {
			result, err := codegen.WriteFile(path, genOpts)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, styles.FormatStep(i+1, len(targets),
				styles.FormatSuccess(fmt.Sprintf("%s → %s (%d fields)", e.Type, relPath(root, path), len(result.Fields)))))
			reportSkipped(out, result)
			continue
		}

		existing, err := codegen.ExistingMethods(filepath.Dir(path), e.Type, path)
		if err != nil {
			return err
		}
		genOpts.Existing = existing
		genOpts.Filename = path
		result, err := codegen.Generate(genOpts)
		if err != nil {
			return err
		}

		if opts.dryRun {
			fmt.Fprintf(out, "// %s\n", relPath(root, path))
			if _, err := out.Write(result.Source); err != nil {
				return err
			}
			continue
		}

		current, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			stale++
			fmt.Fprintln(out, styles.FormatError(relPath(root, path)+" is missing"))
		case err != nil:
			return err
		case !bytes.Equal(current, result.Source):
			stale++
			fmt.Fprintln(out, styles.FormatWarning(relPath(root, path)+" is out of date"))
		default:
			fmt.Fprintln(out, styles.FormatSuccess(relPath(root, path)+" is up to date"))
		}
	}

	if stale > 0 {
		return fmt.Errorf("%w: %d of %d", ErrStale, stale, len(targets))
	}
	return nil
}

func reportSkipped(out io.Writer, result *codegen.Result) {
	for _, name := range result.Skipped {
		fmt.Fprintln(out, "  "+styles.FormatSkipped(name+" skipped"))
	}
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
