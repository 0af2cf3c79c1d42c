package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/middleware"
)

func setupRouter(api *API, auth *middleware.Authenticator, limiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(api.logger), middleware.CORS())

	router.GET("/", api.root)
	router.GET("/health", api.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := router.Group("/")
	protected.Use(auth.Middleware())
	if limiter != nil {
		protected.Use(middleware.RateLimit(limiter))
	}
	{
		protected.POST("/align", api.align)
		protected.POST("/render", api.render)
		protected.POST("/render/jobs", api.createRenderJob)
		protected.GET("/jobs/:id", api.getJob)
		protected.GET("/styles", api.styles)
	}

	return router
}
