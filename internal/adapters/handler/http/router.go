package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/averel/dayloop/internal/adapters/handler/http/middleware"
	"github.com/averel/dayloop/internal/core/services"
)

type RouterDependencies struct {
	TrackerHandler *TrackerHandler
	AdminHandler   *AdminHandler
	TokenService   *services.TokenService
	AdminService   *services.AdminService

	// Gateway serves every request no API route claims, applying the
	// offline network-first strategy to the app shell and assets.
	Gateway http.Handler

	// MirrorDB and Redis are optional; health reporting degrades with them.
	MirrorDB  *sqlx.DB
	Redis     *redis.Client
	StartTime time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	if deps.Redis != nil {
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, 100, 1*time.Minute))
	}

	router.GET("/health", func(c *gin.Context) {
		mirrorStatus := "not configured"
		if deps.MirrorDB != nil {
			mirrorStatus = "connected"
			if err := deps.MirrorDB.Ping(); err != nil {
				mirrorStatus = "unreachable"
			}
		}

		redisStatus := "not configured"
		if deps.Redis != nil {
			redisStatus = "connected"
			if deps.Redis.Ping(c.Request.Context()).Err() != nil {
				redisStatus = "unreachable"
			}
		}

		statusCode := 200
		if mirrorStatus == "unreachable" || redisStatus == "unreachable" {
			statusCode = 503
		}

		c.JSON(statusCode, gin.H{
			"status": "ok",
			"mirror": mirrorStatus,
			"redis":  redisStatus,
			"uptime": time.Since(deps.StartTime).String(),
		})
	})

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))
	{
		deps.TrackerHandler.RegisterRoutes(protected)

		adminOnly := protected.Group("")
		adminOnly.Use(middleware.AdminOnly(deps.AdminService))
		deps.AdminHandler.RegisterRoutes(adminOnly)
	}

	// Everything else is app shell and static assets, served through the
	// offline gateway.
	if deps.Gateway != nil {
		router.NoRoute(gin.WrapH(deps.Gateway))
	}

	return router
}
