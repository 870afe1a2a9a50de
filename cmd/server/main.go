package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"cigamsync/config"
	"cigamsync/internal/cigam"
	"cigamsync/internal/database"
	"cigamsync/internal/database/models"
	"cigamsync/internal/report"
	"cigamsync/internal/server/handlers"
	"cigamsync/internal/server/middleware"
	syncengine "cigamsync/internal/sync"
	"cigamsync/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	var cache *redis.Client
	var lease syncengine.SlotLease
	if cfg.Redis.Host != "" {
		cache = config.NewRedisClient(cfg.Redis)
		lease = syncengine.NewRedisSlotLease(cache)
	} else {
		log.Println("No redis configured, using in-process sync slot lease")
		lease = syncengine.NewMemorySlotLease()
	}

	source := cigam.NewClient(cfg.Cigam)
	productEngine := syncengine.NewProductEngine(db, source, cache, lease)
	salesEngine := syncengine.NewSalesEngine(db, source)
	runner := syncengine.NewRunner(productEngine, 500)
	reporter := report.NewReporter(db, cfg.Sales.EcommerceStoreCode)

	syncHandler := handlers.NewSyncHandler(productEngine, runner)
	salesHandler := handlers.NewSalesHandler(db, salesEngine, reporter)
	productHandler := handlers.NewProductHandler(db)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	protected := r.Group("/api/v1")
	if cfg.Auth.JWTSecret != "" {
		protected.Use(middleware.JWTAuth())
	}
	{
		syncGroup := protected.Group("/sync")
		syncGroup.Use(middleware.RateLimit("30-M"))
		{
			syncGroup.POST("/init", syncHandler.InitSync)
			syncGroup.POST("/lookups", syncHandler.SyncLookups)
			syncGroup.GET("/status/:id", syncHandler.GetStatus)
			syncGroup.POST("/chunk", syncHandler.ProcessChunk)
			syncGroup.POST("/prices", syncHandler.SyncPrices)
			syncGroup.POST("/finalize", syncHandler.FinalizeSync)
			syncGroup.POST("/cancel", syncHandler.CancelSync)
			syncGroup.GET("/logs", syncHandler.ListLogs)
		}

		salesGroup := protected.Group("/sales")
		{
			salesGroup.POST("/sync/auto", middleware.RateLimit("10-M"), salesHandler.SyncAuto)
			salesGroup.POST("/sync/by-month", middleware.RateLimit("10-M"), salesHandler.SyncByMonth)
			salesGroup.POST("/sync/by-range", middleware.RateLimit("10-M"), salesHandler.SyncByRange)
			salesGroup.GET("/report", salesHandler.Report)
			salesGroup.POST("", salesHandler.CreateSale)
			salesGroup.DELETE("/:id", salesHandler.DeleteSale)
			salesGroup.POST("/bulk-delete", salesHandler.BulkDeleteSales)
		}

		productsGroup := protected.Group("/products")
		{
			productsGroup.GET("/:reference", productHandler.GetProduct)
			productsGroup.PUT("/:reference", productHandler.UpdateProduct)
			productsGroup.POST("/:reference/unlock", productHandler.UnlockProduct)
		}
	}

	r.GET("/health", healthCheckHandler(source))

	port := ":" + cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := r.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheckHandler(source cigam.Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		httpStatus := http.StatusOK

		cigamStatus := "available"
		if !source.IsAvailable(c.Request.Context()) {
			cigamStatus = "unavailable"
			status = "degraded"
			httpStatus = http.StatusPartialContent
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"cigam":     cigamStatus,
			"timestamp": time.Now(),
		})
	}
}
