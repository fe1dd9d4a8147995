package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"ai-docchat-client/internal/constant"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Remote RemoteConfig
	Cache  CacheConfig
	Chat   ChatConfig
	Server ServerConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	NatsURL     string
	OtelEnabled bool
}

// RemoteConfig points at the authoritative backend. An empty BaseURL puts the
// client in offline mode, where the local cache is the only persistence.
type RemoteConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type CacheConfig struct {
	Backend  string // "memory" | "redis" | "file"
	TTL      time.Duration
	Key      string
	FilePath string
	RedisURL string
}

type ChatConfig struct {
	TranscriptCap int
}

// ServerConfig is only read by the reference backend.
type ServerConfig struct {
	Port      string
	UploadDir string
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendFile   = "file"
)

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() *Config {
	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "docchat.log"),
			NatsURL:     getEnv("NATS_URL", ""),
			OtelEnabled: getEnvAsBool("OTEL_ENABLED", false),
		},
		Remote: RemoteConfig{
			BaseURL: strings.TrimRight(getEnv("API_BASE_URL", ""), "/"),
			Token:   getEnv("API_TOKEN", ""),
			Timeout: getEnvAsDuration("REQUEST_TIMEOUT", constant.DefaultRequestTimeout),
		},
		Cache: CacheConfig{
			Backend:  strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendFile)),
			TTL:      getEnvAsDuration("CACHE_TTL", constant.DefaultCacheTTL),
			Key:      getEnv("CACHE_KEY", constant.DefaultCacheKey),
			FilePath: getEnv("CACHE_FILE", defaultCacheFile()),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Chat: ChatConfig{
			TranscriptCap: getEnvAsInt("TRANSCRIPT_CAP", constant.DefaultTranscriptCap),
		},
		Server: ServerConfig{
			Port:      getEnv("APP_PORT", "5000"),
			UploadDir: getEnv("UPLOAD_DIR", "uploads"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Offline reports whether no backend is configured.
func (c *Config) Offline() bool {
	return c.Remote.BaseURL == ""
}

func defaultCacheFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "docchat-cache.json"
	}
	return dir + string(os.PathSeparator) + "docchat" + string(os.PathSeparator) + "state.json"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30m", "24h") or a bare number of
// minutes.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil && d > 0 {
		return d
	}
	if minutes, err := strconv.Atoi(strValue); err == nil && minutes > 0 {
		return time.Duration(minutes) * time.Minute
	}
	return fallback
}
