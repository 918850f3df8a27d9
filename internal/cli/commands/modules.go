package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/toddmeinershagen/scriptcs/internal/modules"
)

// NewModulesCommand creates the modules command.
func NewModulesCommand() *cobra.Command {
	var extension, name string

	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List discovered module packs",
		Long: `List the module packs discovered in the modules directory along
with the built-in modules. With --extension or --name, mark which
packs would activate for that selection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return listModules(cmd, cc, extension, name)
		},
	}

	cmd.Flags().StringVar(&extension, "extension", "", "Preview activation for a script extension (e.g. gos)")
	cmd.Flags().StringVar(&name, "name", "", "Preview activation for a module name")

	return cmd
}

func listModules(cmd *cobra.Command, cc *CommandContext, extension, name string) error {
	candidates := cc.Loader.Candidates()
	if len(candidates) == 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No module packs found in %s\n", cc.Cfg.ModulesDir)
		return nil
	}

	preview := extension != "" || name != ""

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	header := table.Row{"Name", "Extensions"}
	if preview {
		header = append(header, "Active")
	}
	t.AppendHeader(header)

	for _, cand := range candidates {
		row := table.Row{cand.Meta.Name, cand.Meta.Extensions}
		if preview {
			active := ""
			if modules.Matches(cand.Meta, extension, name) {
				active = "yes"
			}
			row = append(row, active)
		}
		t.AppendRow(row)
	}
	t.Render()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "(%d modules)\n", len(candidates))
	return nil
}
