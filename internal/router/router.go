package router

import (
	"github.com/gin-gonic/gin"
	"github.com/nina-protocol/nina-indexer-sub000/internal/events"
	"github.com/nina-protocol/nina-indexer-sub000/internal/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, coordinator *events.Coordinator) *gin.Engine {
	// gin.Default already carries Logger and Recovery.
	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "nina-indexer",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		releaseHandler := handler.NewReleaseHandler(db)
		releases := v1.Group("/releases")
		{
			releases.GET("", releaseHandler.GetReleases)
			releases.GET("/:publicKey", releaseHandler.GetRelease)
		}

		hubHandler := handler.NewHubHandler(db)
		hubs := v1.Group("/hubs")
		{
			hubs.GET("", hubHandler.GetHubs)
			hubs.GET("/:publicKey", hubHandler.GetHub)
		}

		postHandler := handler.NewPostHandler(db)
		posts := v1.Group("/posts")
		{
			posts.GET("", postHandler.GetPosts)
			posts.GET("/:publicKey", postHandler.GetPost)
		}

		transactionHandler := handler.NewTransactionHandler(db, coordinator)
		transactions := v1.Group("/transactions")
		{
			transactions.GET("", transactionHandler.GetTransactions)
			transactions.POST("/:signature/process", transactionHandler.ProcessTransaction)
		}
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
