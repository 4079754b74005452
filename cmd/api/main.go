package main

import (
	"context"
	"fmt"
	"os"

	"github.com/docbridge/backend/internal/clients/gcp"
	"github.com/docbridge/backend/internal/clients/redisq"
	"github.com/docbridge/backend/internal/data/db"
	"github.com/docbridge/backend/internal/data/repos/files"
	httpx "github.com/docbridge/backend/internal/http"
	"github.com/docbridge/backend/internal/http/handlers"
	"github.com/docbridge/backend/internal/observability"
	"github.com/docbridge/backend/internal/pkg/envutil"
	"github.com/docbridge/backend/internal/pkg/logger"
	"github.com/docbridge/backend/internal/services"
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

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "docbridge-api",
		Environment: envutil.GetEnv("ENV", "development", log),
		Version:     envutil.GetEnv("SERVICE_VERSION", "", log),
	})
	if shutdownOTel != nil {
		defer func() {
			_ = shutdownOTel(context.Background())
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()
	if err := db.Migrate(thePG); err != nil {
		log.Error("Postgres migration failed", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up repos...")
	fileRecordRepo := files.NewFileRecordRepo(thePG, log)
	chunkRepo := files.NewChunkRepo(thePG, log)

	// Clients
	log.Info("Setting up clients...")
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	publisher, err := redisq.NewPublisher(log)
	if err != nil {
		log.Error("Could not init ingest publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	// Services
	log.Info("Setting up services...")
	ingestService := services.NewIngestService(thePG, log, bucketService, fileRecordRepo, publisher)
	filesService := services.NewFilesService(log, bucketService, fileRecordRepo, chunkRepo)
	deletionService := services.NewDeletionService(log, bucketService, fileRecordRepo, chunkRepo)

	// Handlers
	log.Info("Setting up handlers...")
	fileHandler := handlers.NewFileHandler(log, ingestService, filesService, deletionService)
	healthHandler := handlers.NewHealthHandler()

	// Router
	router := httpx.NewRouter(httpx.RouterConfig{
		Log:           log,
		FileHandler:   fileHandler,
		HealthHandler: healthHandler,
	})

	port := envutil.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
