package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"madrid-bins-api/internal/handler/middleware"
	"madrid-bins-api/internal/metrics"
)

// SetupRouter builds the gin engine with all routes and middleware. The
// rate limiter may be nil to disable throttling (tests do this).
func SetupRouter(h *BinsHandler, limiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.Metrics())
	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "madrid-bins-api"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	bins := router.Group("/api/v1/:binType")
	bins.Use(middleware.ValidateBinType())
	{
		bins.GET("", h.GetBins)
		bins.GET("/count", h.GetBinsCount)
		bins.GET("/location/:locationType/:locationValue", h.GetBinsByLocation)
		bins.GET("/nearby", h.GetBinsNearby)
		bins.GET("/aggregate/district", h.AggregateByDistrict)
		bins.GET("/aggregate/neighborhood", h.AggregateByNeighborhood)
		bins.GET("/counts", h.GetCountsHierarchy)
	}

	return router
}
