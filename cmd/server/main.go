package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/pfman/internal/cache"
	"github.com/stwalsh4118/pfman/internal/config"
	"github.com/stwalsh4118/pfman/internal/database"
	"github.com/stwalsh4118/pfman/internal/geo"
	"github.com/stwalsh4118/pfman/internal/handlers"
	"github.com/stwalsh4118/pfman/internal/logger"
	"github.com/stwalsh4118/pfman/internal/repository"
	"github.com/stwalsh4118/pfman/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	connectTimeout  = 15 * time.Second
)

func main() {
	loaded, err := config.LoadEnvFiles(".", os.Getenv("ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load env files: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithOptions(logger.Options{
		Env:   cfg.Server.Env,
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
	log.Info("Starting portfolio API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"env_files":   loaded,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	conn, err := database.ConnectionFromConfig(cfg.Neo4j)
	if err != nil {
		log.Fatal("Invalid Neo4j configuration", err, nil)
	}
	db, err := database.NewNeo4jDriver(ctx, conn, log, cfg.Neo4j.LogLevel)
	if err != nil {
		log.Fatal("Failed to connect to Neo4j", err, map[string]interface{}{
			"target": conn.String(),
		})
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			log.Error("Failed to close Neo4j driver", err, nil)
		}
	}()
	log.Info("Neo4j connection established", map[string]interface{}{
		"target": conn.String(),
	})

	// Redis is optional; without it every read goes to Neo4j.
	var portfolioCache cache.PortfolioCache = cache.NoopPortfolioCache{}
	var cachePinger handlers.Pinger
	if cfg.Redis.URL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", err, nil)
		}
		redisCache := cache.NewRedisPortfolioCache(client, cfg.Redis.CacheTTL, log)
		defer func() { _ = redisCache.Close() }()
		portfolioCache = redisCache
		cachePinger = redisCache
		log.Info("Redis cache enabled", map[string]interface{}{
			"ttl": cfg.Redis.CacheTTL.String(),
		})
	} else {
		log.Warn("REDIS_URL not set, caching disabled", nil)
	}

	resolver, err := geo.NewResolverFromDir(cfg.ReferenceDataDir, log)
	if err != nil {
		log.Fatal("Failed to load reference data", err, map[string]interface{}{
			"dir": cfg.ReferenceDataDir,
		})
	}

	portfolioRepo := repository.NewPortfolioRepository(db)
	portfolioService := services.NewPortfolioService(portfolioRepo, portfolioCache, resolver, log)
	addressService := services.NewAddressService(resolver, log)

	if cfg.Server.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Log:         log,
		CORSOrigins: cfg.CORS.Origins,
		Health:      handlers.NewHealthHandler(db, cachePinger, cfg.Server.Env),
		Auth:        handlers.NewAuthHandler(),
		Portfolio:   handlers.NewPortfolioHandler(portfolioService),
		Address:     handlers.NewAddressHandler(addressService),
		Geo:         handlers.NewGeoHandler(resolver),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
