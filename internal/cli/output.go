package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"ai-docchat-client/internal/constant"
	"ai-docchat-client/internal/entity"
	"ai-docchat-client/internal/remote"
	"ai-docchat-client/internal/service"

	"github.com/fatih/color"
)

var (
	userColor   = color.New(color.FgCyan, color.Bold)
	botColor    = color.New(color.FgGreen)
	sourceColor = color.New(color.FgYellow)
	activeColor = color.New(color.FgMagenta, color.Bold)
	dimColor    = color.New(color.Faint)
	errColor    = color.New(color.FgRed)
)

// userErr turns an error into the text a user should see.
func userErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, service.ErrEmptyMessage) {
		return errors.New(constant.ChatEnterQuestion)
	}
	if service.IsValidation(err) {
		return err
	}
	var rerr *remote.Error
	if errors.As(err, &rerr) {
		return errors.New(rerr.UserMessage())
	}
	return err
}

func printGroups(w io.Writer, groups []entity.Group, activeId string) {
	if len(groups) == 0 {
		dimColor.Fprintln(w, "(no groups)")
		return
	}
	for i, g := range groups {
		line := fmt.Sprintf("%2d. %s", i+1, g.Name)
		if g.Id == activeId {
			activeColor.Fprintf(w, "%s  *\n", line)
			continue
		}
		fmt.Fprintln(w, line)
		dimColor.Fprintf(w, "    id=%s files=%d links=%d\n", g.Id, len(g.Files), len(g.Links))
	}
}

func printFiles(w io.Writer, files []entity.File, selected map[string]bool) {
	if len(files) == 0 {
		dimColor.Fprintln(w, "(no files)")
		return
	}
	for i, f := range files {
		fmt.Fprintf(w, "%2d. %s %s", i+1, checkbox(selected[f.Id]), f.Name)
		dimColor.Fprintf(w, "  [%s] id=%s\n", f.Type, f.Id)
	}
}

func printLinks(w io.Writer, links []entity.Link, selected map[string]bool) {
	if len(links) == 0 {
		dimColor.Fprintln(w, "(no links)")
		return
	}
	for i, l := range links {
		fmt.Fprintf(w, "%2d. %s %s", i+1, checkbox(selected[l.Id]), l.Name)
		dimColor.Fprintf(w, "  %s id=%s\n", l.Url, l.Id)
	}
}

func printMessage(w io.Writer, m entity.ChatMessage) {
	switch {
	case m.IsUser:
		userColor.Fprint(w, "you> ")
		fmt.Fprintln(w, m.Text)
	case strings.HasPrefix(m.Text, constant.ChatSourcePrefix):
		sourceColor.Fprintln(w, "     "+m.Text)
	default:
		botColor.Fprint(w, "bot> ")
		fmt.Fprintln(w, m.Text)
	}
}

func printHistory(w io.Writer, msgs []entity.ChatMessage) {
	if len(msgs) == 0 {
		dimColor.Fprintln(w, "(no messages)")
		return
	}
	for _, m := range msgs {
		printMessage(w, m)
	}
}

func printError(w io.Writer, err error) {
	errColor.Fprintf(w, "error: %v\n", userErr(err))
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
