package main

import (
	"context"
	"fmt"
	"os"

	coreH "github.com/docbridge/backend/internal/http/handlers"
	"github.com/docbridge/backend/internal/observability"
	"github.com/docbridge/backend/internal/pkg/logger"
	"github.com/docbridge/backend/internal/webapp"
	"github.com/docbridge/backend/internal/webapp/bridge"
	"github.com/docbridge/backend/internal/webapp/client"
	"github.com/docbridge/backend/internal/webapp/config"
	"github.com/docbridge/backend/internal/webapp/handlers"
	"github.com/docbridge/backend/internal/webapp/projection"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := config.Load()
	if err != nil {
		log.Error("Config load failed", "error", err)
		os.Exit(1)
	}

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "docbridge-webapp",
		Environment: cfg.Env,
	})
	if shutdownOTel != nil {
		defer func() {
			_ = shutdownOTel(context.Background())
		}()
	}

	// Core API client
	coreClient, err := client.New(client.Options{
		BaseURL:    cfg.CoreAPI.BaseURL,
		Timeout:    cfg.CoreAPI.Timeout,
		MaxRetries: cfg.CoreAPI.MaxRetries,
	})
	if err != nil {
		log.Error("Could not init core API client", "error", err)
		os.Exit(1)
	}

	// Local projection store
	projDB, err := projection.Open(cfg.Projection.Path, log)
	if err != nil {
		log.Error("Could not open projection store", "error", err)
		os.Exit(1)
	}
	localFiles := projection.NewLocalFileRepo(projDB, log)

	// Bridge + handlers
	statusBridge := bridge.New(log, coreClient, localFiles)
	documentHandler := handlers.NewDocumentHandler(log, coreClient, localFiles, statusBridge)
	healthHandler := coreH.NewHealthHandler()

	// Router
	router := webapp.NewRouter(webapp.RouterConfig{
		Log:             log,
		DocumentHandler: documentHandler,
		HealthHandler:   healthHandler,
	})

	log.Info("Webapp listening", "addr", cfg.HTTP.Addr, "core_api", cfg.CoreAPI.BaseURL)
	if err := router.Run(cfg.HTTP.Addr); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
