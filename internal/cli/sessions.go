package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSessionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"groups"},
		Short:   "List document groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			active, _ := app.ws().ActiveGroup()
			printGroups(cmd.OutOrStdout(), app.ws().Groups(), active.Id)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.ws().CreateGroup(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return userErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (id=%s)\n", g.Name, g.Id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <group> <new name>",
		Short: "Rename a group",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, ok := findGroup(app.ws().Groups(), args[0])
			if !ok {
				return fmt.Errorf("no group matches %q", args[0])
			}
			name := strings.Join(args[1:], " ")
			if err := app.ws().RenameGroup(cmd.Context(), g.Id, name); err != nil {
				return userErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %s to %s\n", g.Name, strings.TrimSpace(name))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <group>",
		Short: "Delete a group with its files, links and chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, ok := findGroup(app.ws().Groups(), args[0])
			if !ok {
				return fmt.Errorf("no group matches %q", args[0])
			}
			if err := app.ws().DeleteGroup(cmd.Context(), g.Id); err != nil {
				return userErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", g.Name)
			return nil
		},
	})

	return cmd
}
