package main

import (
	"context"
	"log"

	"ai-docchat-client/internal/bootstrap"
	"ai-docchat-client/internal/config"
	"ai-docchat-client/internal/server"
	"ai-docchat-client/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewBackendContainer(cfg)
	defer container.Logger.Sync()

	// 3. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, "docchat-devserver", container.Logger)
	defer shutdownTracer(context.Background())

	// 4. Initialize Server
	srv := server.New(cfg.Server, container.SessionController, container.Logger)

	// 5. Run Server
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
