package handlers

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/pfman/internal/errors"
	"github.com/stwalsh4118/pfman/internal/logger"
	"github.com/stwalsh4118/pfman/internal/middleware"
)

// RouterConfig carries everything the HTTP routes depend on.
type RouterConfig struct {
	Log         *logger.Logger
	CORSOrigins []string

	Health    *HealthHandler
	Auth      *AuthHandler
	Portfolio *PortfolioHandler
	Address   *AddressHandler
	Geo       *GeoHandler
}

// NewRouter builds the Gin engine with the middleware stack and every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	apierrors.UseJSONFieldNames()

	router := gin.New()

	// Order: RequestID -> Logger -> Recovery -> CORS -> Gzip
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Log))
	router.Use(middleware.Recovery(cfg.Log))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.Gzip())

	router.GET("/health", cfg.Health.Health)
	router.GET("/health/ready", cfg.Health.Ready)

	api := router.Group("/api")
	{
		api.GET("/info", cfg.Health.Info)
		api.GET("/auth/me", cfg.Auth.Me)

		portfolio := api.Group("/portfolio")
		{
			portfolio.GET("/", cfg.Portfolio.List)
			portfolio.POST("/", cfg.Portfolio.Create)
			portfolio.POST("/import", cfg.Portfolio.Import)
			portfolio.GET("/import/template", cfg.Portfolio.Template)
			portfolio.GET("/:id", cfg.Portfolio.Get)
			portfolio.GET("/:id/geojson", cfg.Portfolio.GeoJSON)
		}

		api.POST("/address/normalize", cfg.Address.Normalize)
		api.GET("/geocoding/normalize", cfg.Address.NormalizeField)

		geoGroup := api.Group("/geo")
		{
			geoGroup.GET("/countries", cfg.Geo.Countries)
			geoGroup.GET("/country", cfg.Geo.Country)
			geoGroup.GET("/subdivisions", cfg.Geo.Subdivisions)
			geoGroup.GET("/subdivision", cfg.Geo.Subdivision)
		}
	}

	router.NoRoute(apierrors.RouteNotFound)
	return router
}
