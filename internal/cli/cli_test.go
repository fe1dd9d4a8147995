package cli

import (
	"bytes"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"ai-docchat-client/internal/config"
	"ai-docchat-client/internal/controller"
	"ai-docchat-client/internal/entity"
	"ai-docchat-client/internal/pkg/logger"
	"ai-docchat-client/internal/repository/memory"
	"ai-docchat-client/internal/server"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineEnv(t *testing.T) string {
	t.Helper()
	color.NoColor = true
	dir := t.TempDir()
	t.Setenv("API_BASE_URL", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("CACHE_BACKEND", "file")
	t.Setenv("CACHE_FILE", filepath.Join(dir, "state.json"))
	t.Setenv("LOG_FILE_PATH", filepath.Join(dir, "docchat.log"))
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd, app := NewRootCmd()
	defer app.close()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSessionsOfflineSeedsDefaults(t *testing.T) {
	offlineEnv(t)

	out, err := run(t, "", "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, " 1. Compliance  *")
	assert.Contains(t, out, "Vendor Management")
}

func TestSessionChangesSurviveRestart(t *testing.T) {
	offlineEnv(t)

	out, err := run(t, "", "sessions", "create", "Legal", "Review")
	require.NoError(t, err)
	assert.Contains(t, out, "created Legal Review")

	out, err = run(t, "", "sessions", "rename", "legal review", "Legal")
	require.NoError(t, err)
	assert.Contains(t, out, "renamed Legal Review to Legal")

	out, err = run(t, "", "groups")
	require.NoError(t, err)
	assert.Contains(t, out, "Legal")
	assert.NotContains(t, out, "Legal Review")

	_, err = run(t, "", "sessions", "delete", "Legal")
	require.NoError(t, err)
	out, err = run(t, "", "sessions")
	require.NoError(t, err)
	assert.NotContains(t, out, "Legal")
}

func TestLinksAndAskOffline(t *testing.T) {
	offlineEnv(t)

	out, err := run(t, "", "--group", "Risk", "links", "add", "https://example.com/policy", "--name", "Policy")
	require.NoError(t, err)
	assert.Contains(t, out, "added Policy")

	out, err = run(t, "", "-g", "risk", "links")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] Policy")
	assert.Contains(t, out, "https://example.com/policy")

	_, err = run(t, "", "-g", "Risk", "ask", "what is covered?")
	require.Error(t, err)
	assert.Equal(t, "select at least one file or link", err.Error())

	_, err = run(t, "", "-g", "Risk", "ask", "--all", "   ")
	require.Error(t, err)
	assert.Equal(t, "Please enter your question", err.Error())

	_, err = run(t, "", "-g", "Risk", "ask", "--link", "Policy", "what is covered?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backend configured")

	out, err = run(t, "", "-g", "Risk", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "you> what is covered?")
	assert.Contains(t, out, "An error occurred while submitting question")
}

func TestUnknownGroupAndItem(t *testing.T) {
	offlineEnv(t)

	_, err := run(t, "", "-g", "Nope", "files")
	assert.EqualError(t, err, `no group matches "Nope"`)

	_, err = run(t, "", "files", "delete", "missing.pdf")
	assert.EqualError(t, err, `no file matches "missing.pdf"`)

	_, err = run(t, "", "files", "upload", filepath.Join(t.TempDir(), "tool.exe"))
	assert.Error(t, err)
}

func TestShellMenusAndDialogs(t *testing.T) {
	offlineEnv(t)

	script := strings.Join([]string{
		"new",
		"submit Legal",
		"menu group Legal",
		"rename",
		"submit   ",
		"submit Contracts",
		"select Contracts",
		"link",
		"submit https://example.com Terms",
		"links",
		"toggle link Terms",
		"menu link Terms",
		"delete",
		"confirm",
		"links",
		"confirm",
		"bogus",
		"quit",
	}, "\n")

	out, err := run(t, script, "shell")
	require.NoError(t, err)

	assert.Contains(t, out, "enter the group name with: submit <name>")
	assert.Contains(t, out, "name cannot be empty")
	assert.Contains(t, out, "group: Contracts")
	assert.Contains(t, out, "[ ] Terms")
	assert.Contains(t, out, "[x] ")
	assert.Contains(t, out, "delete? type confirm or cancel")
	assert.Contains(t, out, "(no links)")
	assert.Contains(t, out, "action not available in the current state")
	assert.Contains(t, out, `unknown command "bogus"`)

	out, err = run(t, "", "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "Contracts")
	assert.NotContains(t, out, "Legal")
}

func TestLogsSkipsSessionLoad(t *testing.T) {
	offlineEnv(t)

	_, err := run(t, "", "sessions")
	require.NoError(t, err)

	out, err := run(t, "", "logs", "--level", "info", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "running offline")
}

func TestOnlineAgainstReferenceBackend(t *testing.T) {
	offlineEnv(t)

	repo := memory.NewSessionRepository()
	ctrl := controller.NewSessionController(repo, t.TempDir(), logger.NewNopLogger())
	srv := server.New(config.ServerConfig{}, ctrl, logger.NewNopLogger())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Listener(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	t.Setenv("API_BASE_URL", "http://"+ln.Addr().String())

	out, err := run(t, "", "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "Compliance")
	assert.Len(t, repo.List(), 6)

	_, err = run(t, "", "-g", "Operations", "links", "add", "https://example.com/runbook")
	require.NoError(t, err)

	out, err = run(t, "", "-g", "Operations", "ask", "--all", "how do we deploy?")
	require.NoError(t, err)
	assert.Contains(t, out, "bot> You asked")
	assert.Contains(t, out, "Source: https://example.com/runbook")

	_, err = run(t, "", "sessions", "create", "Operations")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate name")

	_, err = run(t, "", "--offline", "sessions")
	require.NoError(t, err)
}

func TestFindGroupAndItem(t *testing.T) {
	groups := []entity.Group{
		{Id: "7", Name: "Risk", Files: []entity.File{{Id: "f1", Name: "a.pdf"}, {Id: "f2", Name: "b.pdf"}}},
		{Id: "1", Name: "Ops"},
	}

	tests := []struct {
		ref  string
		want string
		ok   bool
	}{
		{ref: "1", want: "1", ok: true},
		{ref: "risk", want: "7", ok: true},
		{ref: "2", want: "1", ok: true},
		{ref: "3", ok: false},
		{ref: "nope", ok: false},
	}
	for _, tt := range tests {
		g, ok := findGroup(groups, tt.ref)
		assert.Equal(t, tt.ok, ok, tt.ref)
		assert.Equal(t, tt.want, g.Id, tt.ref)
	}

	id, ok := findItem(groups[0], entity.KindFile, "B.PDF")
	assert.True(t, ok)
	assert.Equal(t, "f2", id)
	id, ok = findItem(groups[0], entity.KindFile, "1")
	assert.True(t, ok)
	assert.Equal(t, "f1", id)
	_, ok = findItem(groups[0], entity.KindLink, "1")
	assert.False(t, ok)
}
