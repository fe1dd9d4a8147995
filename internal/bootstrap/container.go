package bootstrap

import (
	"context"
	"fmt"
	"time"

	"ai-docchat-client/internal/config"
	"ai-docchat-client/internal/controller"
	"ai-docchat-client/internal/events"
	"ai-docchat-client/internal/interaction"
	"ai-docchat-client/internal/pkg/logger"
	"ai-docchat-client/internal/remote"
	"ai-docchat-client/internal/repository/cache"
	"ai-docchat-client/internal/repository/memory"
	"ai-docchat-client/internal/service"
	"ai-docchat-client/internal/store"
	"ai-docchat-client/internal/transcript"
)

type Container struct {
	Config *config.Config
	Logger logger.ILogger

	Cache     *cache.SnapshotCache
	Store     *store.Store
	Events    *events.Publisher
	Remote    *remote.Client // nil when offline
	Workspace service.IWorkspaceService
	Machine   *interaction.Machine

	slot    cache.Slot
	closers []func()
}

type Option func(*Container)

// WithLogger replaces the default zap logger.
func WithLogger(l logger.ILogger) Option {
	return func(c *Container) { c.Logger = l }
}

// WithSlot replaces the cache slot picked from config.
func WithSlot(s cache.Slot) Option {
	return func(c *Container) { c.slot = s }
}

func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	c := &Container{Config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	// 1. Logger
	if c.Logger == nil {
		c.Logger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	}

	// 2. Cache
	slot := c.slot
	if slot == nil {
		var err error
		slot, err = cache.NewSlot(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
	}
	if rs, ok := slot.(*cache.RedisSlot); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rs.Ping(ctx); err != nil {
			c.Logger.Warn("bootstrap", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		cancel()
		c.closers = append(c.closers, func() { _ = rs.Close() })
	}
	c.Cache = cache.NewSnapshotCache(slot, cfg.Cache.TTL, c.Logger)

	// 3. Event Bus
	c.Events = events.NewPublisher(c.Logger)
	c.closers = append(c.closers, func() { _ = c.Events.Close() })
	if cfg.App.NatsURL != "" {
		c.startNatsForwarder(cfg.App.NatsURL)
	}

	// 4. Store
	c.Store = store.New(
		transcript.New(cfg.Chat.TranscriptCap),
		store.WithPersister(c.Cache),
		store.WithObserver(c.Events),
		store.WithLogger(c.Logger),
	)

	// 5. Remote + Services
	var backend service.Backend
	if !cfg.Offline() {
		c.Remote = remote.New(cfg.Remote.BaseURL, cfg.Remote.Timeout,
			remote.WithLogger(c.Logger),
			remote.WithToken(cfg.Remote.Token),
		)
		backend = c.Remote
	} else {
		c.Logger.Info("bootstrap", "No API_BASE_URL set, running offline", nil)
	}
	c.Workspace = service.NewWorkspaceService(c.Store, backend, c.Cache, c.Logger)
	c.Machine = interaction.NewMachine()

	return c, nil
}

func (c *Container) startNatsForwarder(url string) {
	fwd, err := events.NewNatsForwarder(url, c.Logger)
	if err != nil {
		c.Logger.Warn("bootstrap", "Failed to connect to NATS", map[string]interface{}{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := c.Events.Subscribe(ctx)
	if err != nil {
		cancel()
		fwd.Close()
		c.Logger.Warn("bootstrap", "Failed to subscribe NATS forwarder", map[string]interface{}{"error": err.Error()})
		return
	}
	go fwd.Run(ctx, ch)
	c.closers = append(c.closers, func() {
		cancel()
		fwd.Close()
	})
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
	_ = c.Logger.Sync()
}

// BackendContainer wires the reference backend.
type BackendContainer struct {
	Logger            logger.ILogger
	SessionController controller.ISessionController
}

func NewBackendContainer(cfg *config.Config) *BackendContainer {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	sessionRepo := memory.NewSessionRepository()
	return &BackendContainer{
		Logger:            sysLogger,
		SessionController: controller.NewSessionController(sessionRepo, cfg.Server.UploadDir, sysLogger),
	}
}
