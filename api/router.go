package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/stream-master-go/api/handlers"
	"github.com/yourusername/stream-master-go/api/middleware"
	"github.com/yourusername/stream-master-go/internal/app"
	"github.com/yourusername/stream-master-go/internal/domain"
)

// SetupRouter sets up the HTTP router. resolver and history may be nil;
// the routes that need them respond accordingly.
func SetupRouter(
	tracker *app.Tracker,
	pipeline *app.Pipeline,
	resolver domain.StreamResolver,
	history domain.HistoryRepository,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(tracker)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// Live progress feed
	wsHandler := handlers.NewProgressWebSocketHandler(tracker, log)
	router.GET("/ws/downloads", wsHandler.HandleWebSocket)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		downloadHandler := handlers.NewDownloadHandler(tracker, pipeline, resolver, history, log)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("", downloadHandler.AddDownload)
			downloads.GET("", downloadHandler.ListDownloads)
			downloads.POST("/clear-completed", downloadHandler.ClearCompleted)
			downloads.GET("/history", downloadHandler.GetHistory)
			downloads.GET("/stats", downloadHandler.GetStats)
			downloads.GET("/:id", downloadHandler.GetDownload)
			downloads.GET("/:id/file", downloadHandler.GetFile)
			downloads.POST("/:id/cancel", downloadHandler.CancelDownload)
			downloads.DELETE("/:id", downloadHandler.DeleteDownload)
		}

		streamHandler := handlers.NewStreamHandler(resolver, log)
		streams := v1.Group("/streams")
		{
			streams.POST("/resolve", streamHandler.ResolveStream)
		}
	}

	return router
}
