package api

import (
	"net/http"
	"time"

	"recipe-scanner/internal/api/handlers/favorite"
	"recipe-scanner/internal/api/handlers/health"
	recipeHandler "recipe-scanner/internal/api/handlers/recipe"
	sessionHandler "recipe-scanner/internal/api/handlers/session"
	"recipe-scanner/internal/api/middleware"
	"recipe-scanner/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter 設置路由
func SetupRouter(s *Services) *gin.Engine {
	cfg := s.Config
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(requestid.New())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger(s.Metrics))

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	var cacheStats health.CacheStats
	if s.Cache != nil {
		cacheStats = s.Cache
	}
	healthHandler := health.NewHandler(cfg.App.Version, s.Store, s.Sessions, s.Queue, cacheStats)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit))
	}
	{
		recipes := recipeHandler.NewHandler(s.Pipeline, s.Favorites, s.Images, cfg.App.Debug)
		recipeGroup := api.Group("/recipe")
		recipeGroup.Use(middleware.Deduplication(middleware.NewInFlightGuard()))
		{
			recipeGroup.POST("/ingredient", recipes.HandleIngredient)
			recipeGroup.POST("/banners", recipes.HandleBanners)
			recipeGroup.POST("/full", recipes.HandleFullRecipe)
			recipeGroup.GET("/:id", recipes.HandleGetRecipe)
		}

		sessionHandler.NewHandler(s.Workflow, s.Images, cfg.App.Debug).Register(api.Group("/sessions"))
		favorite.NewHandler(s.Favorites, cfg.App.Debug).Register(api.Group("/users/:userId/favorites"))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Code:    common.ErrCodeNotFound,
			Message: "Route not found",
		})
	})

	common.LogInfo("Router setup completed",
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
	)
	return router
}
