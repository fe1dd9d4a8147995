package logger

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetLogsNewestFirstWithLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := New(Options{FilePath: path})

	l.Info("store", "first", nil)
	l.Warn("cache", "second", map[string]interface{}{"key": "docchat:state"})
	l.Info("remote", "third", nil)
	l.Debug("remote", "below file level", nil)
	require.NoError(t, l.Sync())

	all, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Message)
	assert.Equal(t, "first", all[2].Message)
	assert.NotEmpty(t, all[0].Id)

	warns, err := l.GetLogs("WARN", 10, 0)
	require.NoError(t, err)
	require.Len(t, warns, 1)
	assert.Equal(t, "cache", warns[0].Module)
	assert.Equal(t, "docchat:state", warns[0].Details["key"])

	page, err := l.GetLogs("", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "second", page[0].Message)

	empty, err := l.GetLogs("", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestConsoleCoreRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Console: &buf, ConsoleLevel: zap.WarnLevel})

	l.Info("workspace", "quiet", nil)
	l.Error("workspace", "loud", map[string]interface{}{"error": "boom"})
	_ = l.Sync()

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestMissingLogFileYieldsNoEntries(t *testing.T) {
	l := NewIsolatedLogger(filepath.Join(t.TempDir(), "never-written.log"))
	logs, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)

	logs, err = NewNopLogger().GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
