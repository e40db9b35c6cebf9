package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	jobapp "github.com/wms/backend/internal/application/job"
	pickingapp "github.com/wms/backend/internal/application/picking"
	projectionapp "github.com/wms/backend/internal/application/projection"
	stockapp "github.com/wms/backend/internal/application/stock"
	stocktakingapp "github.com/wms/backend/internal/application/stocktaking"
	"github.com/wms/backend/internal/infrastructure/config"
	"github.com/wms/backend/internal/infrastructure/event"
	"github.com/wms/backend/internal/infrastructure/export"
	"github.com/wms/backend/internal/infrastructure/logger"
	"github.com/wms/backend/internal/infrastructure/persistence"
	"github.com/wms/backend/internal/infrastructure/queue"
	"github.com/wms/backend/internal/interfaces/http/handler"
	"github.com/wms/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting stock core",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories and read models
	entryRepo := persistence.NewGormStockEntryRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	warehouseStockRepo := persistence.NewGormWarehouseStockRepository(db.DB)
	jobRepo := persistence.NewGormJobRepository(db.DB)
	countingProcessRepo := persistence.NewGormCountingProcessRepository(db.DB)
	summaryRepo := persistence.NewGormProductStockSummaryRepository(db.DB)
	pickabilityRepo := persistence.NewGormOrderPickabilityRepository(db.DB)
	orderReadModel := persistence.NewGormOrderReadModel(db.DB)
	binDirectory := persistence.NewGormBinLocationDirectory(db.DB)
	productDirectory := persistence.NewGormProductDirectory(db.DB)
	warehouseDirectory := persistence.NewGormWarehouseDirectory(db.DB)
	snapshotProvider := persistence.NewGormLocationSnapshotProvider(db.DB)
	rowStager := persistence.NewGormRowStager(db.DB)
	documentStore := persistence.NewGormDocumentStore(db.DB)
	stockScope := persistence.NewGormStockTransactionScope(db.DB)
	projectionScope := persistence.NewGormProjectionTransactionScope(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Core services
	movementService := stockapp.NewMovementService(stockScope, binDirectory, log)
	movementService.SetSnapshotProvider(snapshotProvider)
	movementService.SetEventPublisher(eventBus)

	solverService := pickingapp.NewSolverService(entryRepo, binDirectory, log)

	projectorService := projectionapp.NewProjectorService(projectionScope, orderReadModel, log)
	recomputeHandler := projectionapp.NewRecomputeHandler(projectorService, orderReadModel, log)
	eventBus.Subscribe(recomputeHandler)
	log.Info("Projection handler registered",
		zap.Strings("event_types", recomputeHandler.EventTypes()),
	)

	// Job step queue over Redis
	stepQueue, err := queue.NewRedisStepQueue(&cfg.Redis, &cfg.Job, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := stepQueue.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()

	jobService := jobapp.NewJobService(jobRepo, stepQueue, log)

	// Import and export profiles
	profiles := jobapp.NewRegistry()
	profiles.RegisterImport(stocktakingapp.NewRelativeStockChangeProfile(
		productDirectory, warehouseDirectory, binDirectory, movementService,
	))
	profiles.RegisterExport(stockapp.NewWarehouseStockExportProfile(warehouseStockRepo))

	// Export artifact sink
	fileSink, err := export.NewCSVFileSink(cfg.Export.Directory)
	if err != nil {
		log.Fatal("Failed to prepare export directory", zap.Error(err))
	}

	// Step runner with the pipeline handlers
	stepRunner := jobapp.NewStepRunner(jobRepo, stepQueue, log)

	importHandlers := jobapp.NewImportHandlers(profiles, documentStore, rowStager, log)
	importHandlers.SetChunkSize(cfg.Job.ChunkSize)
	importHandlers.RegisterOn(stepRunner)

	exportHandlers := jobapp.NewExportHandlers(profiles, rowStager, fileSink, log)
	exportHandlers.SetChunkSize(cfg.Job.ChunkSize)
	exportHandlers.RegisterOn(stepRunner)

	stepQueue.Start(stepRunner)
	defer stepQueue.Stop()

	// Scheduled sales recompute
	rebuildCtx, stopRebuild := context.WithCancel(context.Background())
	defer stopRebuild()
	go func() {
		ticker := time.NewTicker(cfg.Job.SalesRebuildInterval)
		defer ticker.Stop()
		for {
			select {
			case <-rebuildCtx.Done():
				return
			case <-ticker.C:
				if err := projectorService.RebuildAllSales(rebuildCtx); err != nil {
					log.Error("Sales rebuild failed", zap.Error(err))
				}
			}
		}
	}()

	// Stocktaking
	countingService := stocktakingapp.NewCountingService(
		countingProcessRepo,
		entryRepo,
		productDirectory,
		warehouseDirectory,
		binDirectory,
		rowStager,
		jobService,
		log,
	)

	// HTTP handlers
	handlers := router.Handlers{
		System:        handler.NewSystemHandler(db),
		Stock:         handler.NewStockHandler(movementService, movementRepo, warehouseStockRepo, summaryRepo),
		Picking:       handler.NewPickingHandler(solverService),
		Jobs:          handler.NewJobHandler(jobService),
		Stocktaking:   handler.NewStocktakingHandler(countingService),
		Projection:    handler.NewProjectionHandler(pickabilityRepo),
		Notifications: handler.NewNotificationHandler(eventBus),
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.Setup(log, handlers)

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
