// Package api wires the HTTP surface: routing, CORS, request logging.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printquote/internal/api/handlers"
	"printquote/internal/catalog"
	"printquote/internal/config"
)

// Deps carries everything the routes need.
type Deps struct {
	Queue     handlers.Enqueuer
	Jobs      handlers.JobReader
	Catalog   *catalog.Store
	Converter handlers.Converter
	Storage   config.StorageConfig
}

// NewRouter builds the gin engine with all API routes registered.
func NewRouter(deps Deps, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	// The browser frontend is served from a different origin.
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	upload := handlers.NewUploadHandler(deps.Queue, deps.Converter, deps.Storage, logger)
	jobs := handlers.NewJobHandler(deps.Jobs, logger)
	materials := handlers.NewMaterialsHandler(deps.Catalog, logger)
	files := handlers.NewFileHandler(deps.Storage.UploadDir)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		api.POST("/upload", upload.Upload)
		api.GET("/job/:id", jobs.GetJob)
		api.GET("/jobs", jobs.ListJobs)
		api.POST("/job/:id/approve", jobs.ApproveJob)
		api.POST("/job/:id/reject", jobs.RejectJob)
		api.GET("/materials", materials.GetMaterials)
		api.POST("/materials", materials.ReplaceMaterials)
		api.GET("/file/:name", files.GetFile)
	}

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
