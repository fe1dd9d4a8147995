package config

import (
	"os"
	"testing"
	"time"

	"ai-docchat-client/internal/constant"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"API_BASE_URL", "CACHE_BACKEND", "CACHE_TTL", "TRANSCRIPT_CAP", "REQUEST_TIMEOUT", "OTEL_ENABLED"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg := FromEnv()
	assert.True(t, cfg.Offline())
	assert.Equal(t, CacheBackendFile, cfg.Cache.Backend)
	assert.Equal(t, constant.DefaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, constant.DefaultTranscriptCap, cfg.Chat.TranscriptCap)
	assert.Equal(t, constant.DefaultRequestTimeout, cfg.Remote.Timeout)
	assert.False(t, cfg.App.OtelEnabled)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://127.0.0.1:5000/")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("TRANSCRIPT_CAP", "20")
	t.Setenv("GO_ENV", "production")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := FromEnv()
	assert.False(t, cfg.Offline())
	assert.Equal(t, "http://127.0.0.1:5000", cfg.Remote.BaseURL)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 20, cfg.Chat.TranscriptCap)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.App.OtelEnabled)
}

func TestCacheTTLParsing(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "duration minutes", value: "30m", want: 30 * time.Minute},
		{name: "duration days as hours", value: "72h", want: 72 * time.Hour},
		{name: "bare minutes", value: "15", want: 15 * time.Minute},
		{name: "garbage falls back", value: "soon", want: constant.DefaultCacheTTL},
		{name: "negative falls back", value: "-5m", want: constant.DefaultCacheTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CACHE_TTL", tt.value)
			assert.Equal(t, tt.want, FromEnv().Cache.TTL)
		})
	}
}
