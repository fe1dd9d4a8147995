package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ai-docchat-client/internal/entity"
	"ai-docchat-client/internal/interaction"

	"github.com/spf13/cobra"
)

const shellHelp = `Commands:
  groups                      list groups
  select <group>              switch group (clears the selection)
  files | links               list items of the group
  toggle file|link <ref>      check or uncheck an item for the next question
  ask <question>              ask about the checked items
  history                     print the transcript
  upload <path>               upload a PDF, DOC, DOCX or XLSX file
  menu group <ref>            open a group menu
  menu file|link <ref>        open an item menu
  rename | delete             pick an entry of the open menu
  submit <text>               submit the open rename or new-group dialog
  submit <url> [name]         submit the open add-link dialog
  confirm | cancel            answer the open dialog
  outside                     close the open menu
  new                         open the new-group dialog
  link                        open the add-link dialog for the group
  help | quit`

func newShellCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell (the default when no command is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, app)
		},
	}
}

// syncWriter serializes output from the prompt loop and the event printer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type shell struct {
	app     *App
	machine *interaction.Machine
	out     io.Writer
}

func runShell(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := &syncWriter{w: cmd.OutOrStdout()}
	sh := &shell{app: app, machine: app.container.Machine, out: out}

	sh.machine.Subscribe(func(from, to interaction.State) {
		if hint := modalHint(to); hint != "" {
			dimColor.Fprintln(out, hint)
		}
	})

	if app.Verbose {
		evCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		ch, err := app.container.Events.Subscribe(evCtx)
		if err == nil {
			go func() {
				for ev := range ch {
					dimColor.Fprintf(out, "  ~ %s group=%s item=%s\n", ev.Kind, ev.GroupId, ev.ItemId)
				}
			}()
		}
	}

	if app.ws().Offline() {
		dimColor.Fprintln(out, "offline: changes are kept in the local cache only")
	}
	sh.printActive()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, sh.prompt())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := sh.exec(ctx, line); err != nil {
			printError(out, err)
		}
	}
}

func (sh *shell) prompt() string {
	name := "-"
	if g, ok := sh.app.ws().ActiveGroup(); ok {
		name = g.Name
	}
	if s := sh.machine.State(); s.Mode != interaction.Idle {
		return fmt.Sprintf("%s [%s]> ", name, s.Mode)
	}
	return name + "> "
}

func (sh *shell) exec(ctx context.Context, line string) error {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	ws := sh.app.ws()

	switch verb {
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
	case "groups":
		g, _ := ws.ActiveGroup()
		printGroups(sh.out, ws.Groups(), g.Id)
	case "select":
		g, ok := findGroup(ws.Groups(), rest)
		if !ok {
			return fmt.Errorf("no group matches %q", rest)
		}
		err := ws.SelectGroup(ctx, g.Id)
		sh.printActive()
		return userErr(err)
	case "files", "links":
		g, err := sh.app.activeGroup()
		if err != nil {
			return err
		}
		files, links := ws.Selection()
		if verb == "files" {
			printFiles(sh.out, g.Files, toSet(files))
		} else {
			printLinks(sh.out, g.Links, toSet(links))
		}
	case "toggle":
		return sh.toggle(rest)
	case "ask":
		return sh.ask(ctx, rest)
	case "history":
		g, err := sh.app.activeGroup()
		if err != nil {
			return err
		}
		printHistory(sh.out, ws.History(g.Id))
	case "upload":
		return sh.upload(ctx, rest)
	case "menu":
		return sh.openMenu(rest)
	case "rename":
		return sh.machine.ChooseRename()
	case "delete":
		return sh.machine.ChooseDelete()
	case "outside":
		return sh.machine.ClickOutside()
	case "cancel":
		return sh.machine.Cancel()
	case "new":
		return sh.machine.OpenCreateGroup()
	case "link":
		g, err := sh.app.activeGroup()
		if err != nil {
			return err
		}
		return sh.machine.OpenAddLink(g.Id)
	case "confirm":
		action, err := sh.machine.Confirm()
		if err != nil {
			return err
		}
		return sh.dispatch(ctx, action)
	case "submit":
		action, err := sh.submit(rest)
		if err != nil {
			return err
		}
		return sh.dispatch(ctx, action)
	default:
		return fmt.Errorf("unknown command %q, type help", verb)
	}
	return nil
}

func (sh *shell) toggle(rest string) error {
	kind, ref, _ := strings.Cut(rest, " ")
	g, err := sh.app.activeGroup()
	if err != nil {
		return err
	}
	k := entity.ItemKind(kind)
	if k != entity.KindFile && k != entity.KindLink {
		return errors.New("usage: toggle file|link <ref>")
	}
	id, ok := findItem(g, k, ref)
	if !ok {
		return fmt.Errorf("no %s matches %q", k, strings.TrimSpace(ref))
	}

	toggle := sh.app.ws().ToggleFile
	if k == entity.KindLink {
		toggle = sh.app.ws().ToggleLink
	}
	on, err := toggle(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "%s %s\n", checkbox(on), id)
	return nil
}

func (sh *shell) ask(ctx context.Context, question string) error {
	res, err := sh.app.ws().SendMessage(ctx, question)
	if res.Discarded {
		return nil
	}
	if err != nil {
		return err
	}
	printMessage(sh.out, entity.BotMessage(res.Answer))
	if len(res.Sources) > 0 {
		sourceColor.Fprintf(sh.out, "     Source: %s\n", strings.Join(res.Sources, ", "))
	}
	return nil
}

func (sh *shell) upload(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("usage: upload <path>")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	file, err := sh.app.ws().UploadFile(ctx, filepath.Base(path), f)
	if err != nil {
		return userErr(err)
	}
	fmt.Fprintf(sh.out, "uploaded %s (id=%s)\n", file.Name, file.Id)
	return nil
}

func (sh *shell) openMenu(rest string) error {
	kind, ref, _ := strings.Cut(rest, " ")
	ref = strings.TrimSpace(ref)
	ws := sh.app.ws()

	switch entity.ItemKind(kind) {
	case entity.KindGroup:
		g, ok := findGroup(ws.Groups(), ref)
		if !ok {
			return fmt.Errorf("no group matches %q", ref)
		}
		return sh.machine.OpenGroupMenu(g.Id)
	case entity.KindFile, entity.KindLink:
		g, err := sh.app.activeGroup()
		if err != nil {
			return err
		}
		id, ok := findItem(g, entity.ItemKind(kind), ref)
		if !ok {
			return fmt.Errorf("no %s matches %q", kind, ref)
		}
		return sh.machine.OpenItemMenu(entity.ItemKind(kind), g.Id, id)
	default:
		return errors.New("usage: menu group|file|link <ref>")
	}
}

func (sh *shell) submit(text string) (interaction.PendingAction, error) {
	switch sh.machine.State().Modal {
	case interaction.ModalCreateGroup:
		return sh.machine.SubmitCreateGroup(text)
	case interaction.ModalAddLink:
		url, name, _ := strings.Cut(text, " ")
		return sh.machine.SubmitAddLink(name, url)
	default:
		return sh.machine.SubmitRename(text)
	}
}

func (sh *shell) dispatch(ctx context.Context, action interaction.PendingAction) error {
	if err := sh.app.ws().Dispatch(ctx, action); err != nil {
		return userErr(err)
	}
	fmt.Fprintln(sh.out, "ok")
	if action.Op == interaction.OpDelete && action.Target.Kind == entity.KindGroup {
		sh.printActive()
	}
	return nil
}

func (sh *shell) printActive() {
	if g, ok := sh.app.ws().ActiveGroup(); ok {
		activeColor.Fprintf(sh.out, "group: %s\n", g.Name)
	}
}

func modalHint(s interaction.State) string {
	switch s.Modal {
	case interaction.ModalRenameGroup, interaction.ModalRenameItem:
		return "enter the new name with: submit <name>  (or cancel)"
	case interaction.ModalConfirmDelete:
		return "delete? type confirm or cancel"
	case interaction.ModalCreateGroup:
		return "enter the group name with: submit <name>  (or cancel)"
	case interaction.ModalAddLink:
		return "enter the link with: submit <url> [name]  (or cancel)"
	}
	switch s.Mode {
	case interaction.GroupMenuOpen, interaction.ItemMenuOpen:
		return "menu: rename | delete | outside"
	}
	return ""
}
