package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ai-docchat-client/internal/config"
	"ai-docchat-client/internal/constant"
	"ai-docchat-client/internal/pkg/logger"
	"ai-docchat-client/internal/repository/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineConfig(t *testing.T) *config.Config {
	return &config.Config{
		App: config.AppConfig{LogFilePath: filepath.Join(t.TempDir(), "docchat.log")},
		Cache: config.CacheConfig{
			Backend:  config.CacheBackendFile,
			TTL:      time.Hour,
			FilePath: filepath.Join(t.TempDir(), "state.json"),
		},
		Chat: config.ChatConfig{TranscriptCap: constant.DefaultTranscriptCap},
	}
}

func TestOfflineContainer(t *testing.T) {
	c, err := NewContainer(offlineConfig(t), WithLogger(logger.NewNopLogger()))
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Remote)
	assert.True(t, c.Workspace.Offline())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := c.Events.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Workspace.LoadSessions(ctx))
	assert.Len(t, c.Workspace.Groups(), len(constant.DefaultGroupNames))

	_, err = c.Workspace.CreateGroup(ctx, "Legal")
	require.NoError(t, err)

	select {
	case evt := <-changes:
		assert.NotEmpty(t, evt.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event published")
	}

	snap, fresh := c.Cache.Load(ctx)
	require.True(t, fresh)
	assert.Len(t, snap.Groups, len(constant.DefaultGroupNames)+1)
}

func TestOnlineContainerUsesRemote(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Remote = config.RemoteConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second, Token: "t"}

	c, err := NewContainer(cfg, WithLogger(logger.NewNopLogger()), WithSlot(cache.NewMemorySlot("k", time.Hour)))
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Remote)
	assert.False(t, c.Workspace.Offline())
	assert.Error(t, c.Workspace.LoadSessions(context.Background()))
}

func TestUnknownCacheBackend(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Cache.Backend = "etcd"
	_, err := NewContainer(cfg, WithLogger(logger.NewNopLogger()))
	assert.Error(t, err)
}

func TestUnreachableNatsIsIgnored(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.App.NatsURL = "nats://127.0.0.1:1"
	c, err := NewContainer(cfg, WithLogger(logger.NewNopLogger()))
	require.NoError(t, err)
	c.Close()
}
