package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLogsCmd(app *App) *cobra.Command {
	var (
		level  string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:         "logs",
		Short:       "Show recent entries of the log file, newest first",
		Annotations: map[string]string{skipLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.log.GetLogs(strings.ToUpper(level), limit, offset)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				dimColor.Fprintln(w, "(no log entries)")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(w, "%s %-5s %-10s %s", e.Timestamp, e.Level, e.Module, e.Message)
				if len(e.Details) > 0 {
					dimColor.Fprintf(w, " %v", e.Details)
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "Only entries of this level (info|warn|error)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")

	return cmd
}
