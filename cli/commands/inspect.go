package commands

import (
	"fmt"
	"strings"

	"github.com/AshkanYarmoradi/go-pattern/cli/codegen"
	"github.com/AshkanYarmoradi/go-pattern/cli/styles"
	"github.com/AshkanYarmoradi/go-pattern/cli/ui"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <schema>",
		Short: "Show the accessors a schema yields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := codegen.LoadSchema(args[0])
			if err != nil {
				return err
			}
			fields, err := codegen.Fields(schema)
			if err != nil {
				return err
			}

			table := ui.NewTable("KEY", "GETTER", "SETTER", "TYPE", "DESCRIPTION")
			for _, f := range fields {
				table.AddRow(f.Key, f.Name, f.SetterName(), f.GoType, truncate(f.Description, 40))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.FormatInfo(fmt.Sprintf("%s: %d fields", args[0], len(fields))))
			fmt.Fprintln(out, table.Render())
			return nil
		},
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
