package router

import (
	"github.com/gin-gonic/gin"
	"github.com/wms/backend/internal/infrastructure/logger"
	"github.com/wms/backend/internal/interfaces/http/handler"
	"github.com/wms/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers bundles the handlers the router mounts
type Handlers struct {
	System        *handler.SystemHandler
	Stock         *handler.StockHandler
	Picking       *handler.PickingHandler
	Jobs          *handler.JobHandler
	Stocktaking   *handler.StocktakingHandler
	Projection    *handler.ProjectionHandler
	Notifications *handler.NotificationHandler
}

// Setup builds the gin engine with middleware and all routes mounted
func Setup(log *zap.Logger, handlers Handlers) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	engine.GET("/health", handlers.System.Health)

	api := engine.Group("/api/v1")

	stockGroup := api.Group("/stock")
	{
		stockGroup.POST("/movements", handlers.Stock.MoveStock)
		stockGroup.GET("/products/:id/movements", handlers.Stock.ListProductMovements)
		stockGroup.GET("/products/:id/summary", handlers.Stock.GetProductSummary)
		stockGroup.GET("/products/:id/warehouses", handlers.Stock.GetProductWarehouseStock)
		stockGroup.POST("/products/:id/rebuild", handlers.Stock.RebuildProductEntries)
	}

	api.POST("/picking/solve", handlers.Picking.SolvePicking)
	api.POST("/stocking/solve", handlers.Picking.SolveStocking)

	jobGroup := api.Group("/jobs")
	{
		jobGroup.POST("/imports", handlers.Jobs.CreateImport)
		jobGroup.POST("/exports", handlers.Jobs.CreateExport)
		jobGroup.POST("/:id/schedule", handlers.Jobs.Schedule)
		jobGroup.GET("/:id", handlers.Jobs.GetStatus)
		jobGroup.GET("", handlers.Jobs.List)
	}

	countingGroup := api.Group("/counting-processes")
	{
		countingGroup.POST("", handlers.Stocktaking.CreateProcess)
		countingGroup.POST("/:id/counts", handlers.Stocktaking.SubmitCounts)
		countingGroup.POST("/:id/complete", handlers.Stocktaking.Complete)
		countingGroup.GET("/:id/valuation", handlers.Stocktaking.Valuation)
	}

	api.GET("/orders/:id/pickability", handlers.Projection.GetOrderPickability)

	notifyGroup := api.Group("/notifications")
	{
		notifyGroup.POST("/orders/:id", handlers.Notifications.OrderWritten)
		notifyGroup.POST("/warehouses/:id", handlers.Notifications.WarehouseCreated)
		notifyGroup.POST("/warehouse-stock", handlers.Notifications.WarehouseStockChanged)
	}

	return engine
}
