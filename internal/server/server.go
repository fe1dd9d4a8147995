package server

import (
	"net"

	"ai-docchat-client/internal/config"
	"ai-docchat-client/internal/controller"
	"ai-docchat-client/internal/pkg/logger"
	"ai-docchat-client/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
)

type Server struct {
	app *fiber.App
	cfg config.ServerConfig
	log logger.ILogger
}

func New(cfg config.ServerConfig, sessions controller.ISessionController, log logger.ILogger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             50 * 1024 * 1024, // 50MB uploads
		DisableStartupMessage: true,
	})

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	sessions.RegisterRoutes(app)

	return &Server{app: app, cfg: cfg, log: log}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.log.Info("server", "Reference backend listening", map[string]interface{}{
		"addr":       "http://localhost:" + s.cfg.Port,
		"upload_dir": s.cfg.UploadDir,
	})
	return s.app.Listen(":" + s.cfg.Port)
}

// Listener serves on an already-bound listener, used by tests on loopback.
func (s *Server) Listener(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
