package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ai-docchat-client/internal/entity"

	"github.com/spf13/cobra"
)

func newFilesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List files of the group",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.activeGroup()
			if err != nil {
				return err
			}
			files, _ := app.ws().Selection()
			printFiles(cmd.OutOrStdout(), g.Files, toSet(files))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload PDF, DOC, DOCX or XLSX files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := uploadFile(cmd, app, path); err != nil {
					return err
				}
			}
			return nil
		},
	})
	cmd.AddCommand(newRenameItemCmd(app, entity.KindFile))
	cmd.AddCommand(newDeleteItemCmd(app, entity.KindFile))

	return cmd
}

func uploadFile(cmd *cobra.Command, app *App, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	file, err := app.ws().UploadFile(cmd.Context(), filepath.Base(path), f)
	if err != nil {
		return userErr(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (id=%s)\n", file.Name, file.Id)
	return nil
}

func newLinksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "List links of the group",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.activeGroup()
			if err != nil {
				return err
			}
			_, links := app.ws().Selection()
			printLinks(cmd.OutOrStdout(), g.Links, toSet(links))
			return nil
		},
	}

	var name string
	add := &cobra.Command{
		Use:   "add <url>",
		Short: "Attach a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.ws().AddLink(cmd.Context(), name, args[0])
			if err != nil {
				return userErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (id=%s)\n", l.Name, l.Id)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "Display name (default: the URL)")

	cmd.AddCommand(add)
	cmd.AddCommand(newRenameItemCmd(app, entity.KindLink))
	cmd.AddCommand(newDeleteItemCmd(app, entity.KindLink))

	return cmd
}

func newRenameItemCmd(app *App, kind entity.ItemKind) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <" + string(kind) + "> <new name>",
		Short: "Rename a " + string(kind),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.activeGroup()
			if err != nil {
				return err
			}
			id, ok := findItem(g, kind, args[0])
			if !ok {
				return fmt.Errorf("no %s matches %q", kind, args[0])
			}
			if err := app.ws().RenameItem(cmd.Context(), g.Id, kind, id, strings.Join(args[1:], " ")); err != nil {
				return userErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %s %s\n", kind, id)
			return nil
		},
	}
}

func newDeleteItemCmd(app *App, kind entity.ItemKind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <" + string(kind) + ">",
		Short: "Remove a " + string(kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.activeGroup()
			if err != nil {
				return err
			}
			id, ok := findItem(g, kind, args[0])
			if !ok {
				return fmt.Errorf("no %s matches %q", kind, args[0])
			}
			if err := app.ws().DeleteItem(cmd.Context(), g.Id, kind, id); err != nil {
				return userErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", kind, id)
			return nil
		},
	}
}
