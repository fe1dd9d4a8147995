package cli

import (
	"fmt"
	"strings"

	"ai-docchat-client/internal/entity"

	"github.com/spf13/cobra"
)

func newAskCmd(app *App) *cobra.Command {
	var (
		files []string
		links []string
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask about the selected files and links of the group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.activeGroup()
			if err != nil {
				return err
			}
			if all {
				for _, f := range g.Files {
					files = append(files, f.Id)
				}
				for _, l := range g.Links {
					links = append(links, l.Id)
				}
			}
			if err := selectItems(app, g, entity.KindFile, files); err != nil {
				return err
			}
			if err := selectItems(app, g, entity.KindLink, links); err != nil {
				return err
			}

			res, err := app.ws().SendMessage(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return userErr(err)
			}
			w := cmd.OutOrStdout()
			printMessage(w, entity.BotMessage(res.Answer))
			if len(res.Sources) > 0 {
				sourceColor.Fprintf(w, "     Source: %s\n", strings.Join(res.Sources, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&files, "file", nil, "File to ask about (id, name or position; repeatable)")
	cmd.Flags().StringSliceVar(&links, "link", nil, "Link to ask about (id, name or position; repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "Ask about every file and link in the group")

	return cmd
}

// selectItems checks each referenced item once. Repeats are ignored.
func selectItems(app *App, g entity.Group, kind entity.ItemKind, refs []string) error {
	seen := map[string]bool{}
	for _, ref := range refs {
		id, ok := findItem(g, kind, ref)
		if !ok {
			return fmt.Errorf("no %s matches %q", kind, ref)
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		toggle := app.ws().ToggleFile
		if kind == entity.KindLink {
			toggle = app.ws().ToggleLink
		}
		if _, err := toggle(id); err != nil {
			return err
		}
	}
	return nil
}

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the chat transcript of the group",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.activeGroup()
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), app.ws().History(g.Id))
			return nil
		},
	}
}
