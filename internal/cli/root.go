package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ai-docchat-client/internal/bootstrap"
	"ai-docchat-client/internal/config"
	"ai-docchat-client/internal/entity"
	"ai-docchat-client/internal/pkg/logger"
	"ai-docchat-client/internal/service"
	"ai-docchat-client/internal/tracer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// skipLoad marks commands that don't need the session list.
const skipLoad = "skip-load"

type App struct {
	Group   string
	Verbose bool
	Offline bool

	container      *bootstrap.Container
	log            *logger.ZapLogger
	shutdownTracer func(context.Context) error
}

// Execute runs the command line and releases everything it opened, also when
// a command fails.
func Execute() error {
	cmd, app := NewRootCmd()
	defer app.close()
	return cmd.Execute()
}

func NewRootCmd() (*cobra.Command, *App) {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "docchat",
		Short:        "Organize documents into groups and chat about them",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Interactive shell
  docchat

  # Scriptable commands
  docchat sessions
  docchat --group Risk files upload ./q3-report.pdf
  docchat --group Risk ask --all "What changed in Q3?"
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, app)
		},
	}

	cmd.PersistentFlags().StringVarP(&app.Group, "group", "g", "", "Group to act on (id or name; default: first group)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Print debug logs and change events")
	cmd.PersistentFlags().BoolVar(&app.Offline, "offline", false, "Ignore API_BASE_URL and work from the local cache")

	cmd.AddCommand(newSessionsCmd(app))
	cmd.AddCommand(newFilesCmd(app))
	cmd.AddCommand(newLinksCmd(app))
	cmd.AddCommand(newAskCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newShellCmd(app))
	cmd.AddCommand(newLogsCmd(app))

	return cmd, app
}

func (a *App) open(cmd *cobra.Command) error {
	cfg := config.Load()
	if a.Offline {
		cfg.Remote.BaseURL = ""
	}

	level := zap.WarnLevel
	if a.Verbose {
		level = zap.DebugLevel
	}
	a.log = logger.New(logger.Options{
		FilePath:     cfg.App.LogFilePath,
		IsProd:       cfg.IsProduction(),
		Console:      cmd.ErrOrStderr(),
		ConsoleLevel: level,
	})
	a.shutdownTracer = tracer.InitTracer(cfg.App.OtelEnabled, "docchat", a.log)

	c, err := bootstrap.NewContainer(cfg, bootstrap.WithLogger(a.log))
	if err != nil {
		return err
	}
	a.container = c

	if cmd.Annotations[skipLoad] == "true" {
		return nil
	}
	if err := c.Workspace.LoadSessions(cmd.Context()); err != nil {
		return userErr(err)
	}
	if a.Group != "" {
		g, ok := findGroup(c.Workspace.Groups(), a.Group)
		if !ok {
			return fmt.Errorf("no group matches %q", a.Group)
		}
		if err := c.Workspace.SelectGroup(cmd.Context(), g.Id); err != nil {
			return userErr(err)
		}
	}
	return nil
}

func (a *App) close() {
	if a.container != nil {
		a.container.Close()
		a.container = nil
	}
	if a.shutdownTracer != nil {
		_ = a.shutdownTracer(context.Background())
	}
}

func (a *App) ws() service.IWorkspaceService {
	return a.container.Workspace
}

// activeGroup returns the selected group or a validation error.
func (a *App) activeGroup() (entity.Group, error) {
	g, ok := a.ws().ActiveGroup()
	if !ok {
		return entity.Group{}, service.ErrNoActiveGroup
	}
	return g, nil
}

// findGroup matches an id, a case-insensitive name or a 1-based position.
func findGroup(groups []entity.Group, ref string) (entity.Group, bool) {
	ref = strings.TrimSpace(ref)
	for _, g := range groups {
		if g.Id == ref {
			return g, true
		}
	}
	for _, g := range groups {
		if strings.EqualFold(g.Name, ref) {
			return g, true
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(groups) {
		return groups[n-1], true
	}
	return entity.Group{}, false
}

// findItem resolves an item of the given kind in g by id, name or 1-based
// position.
func findItem(g entity.Group, kind entity.ItemKind, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	type item struct{ id, name string }
	var items []item
	if kind == entity.KindFile {
		for _, f := range g.Files {
			items = append(items, item{f.Id, f.Name})
		}
	} else {
		for _, l := range g.Links {
			items = append(items, item{l.Id, l.Name})
		}
	}
	for _, it := range items {
		if it.id == ref {
			return it.id, true
		}
	}
	for _, it := range items {
		if strings.EqualFold(it.name, ref) {
			return it.id, true
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(items) {
		return items[n-1].id, true
	}
	return "", false
}
