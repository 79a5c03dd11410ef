package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/pfman/internal/middleware"
	"golang.org/x/sync/errgroup"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout bounds each dependency probe
	HealthCheckTimeout = 2 * time.Second
)

// Dependency states reported by the readiness check.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusDisabled     = "disabled"
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db        Pinger
	cache     Pinger
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance.
// A nil cache is reported as disabled.
func NewHealthHandler(db Pinger, cache Pinger, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     cache,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
}

// Health handles GET /health endpoint.
// It does not check any dependencies and is used for liveness checks.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready endpoint.
// Neo4j and Redis are probed concurrently. Returns 503 Service Unavailable
// when any configured dependency is unreachable.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Database: StatusDisabled, Cache: StatusDisabled}
	log := middleware.GetLogger(c)

	probe := func(name string, p Pinger, state *string) func() error {
		return func() error {
			if err := p.Ping(ctx); err != nil {
				*state = StatusDisconnected
				if log != nil {
					log.Error("Dependency health check failed", err, map[string]interface{}{
						"dependency": name,
						"timeout":    HealthCheckTimeout.String(),
					})
				}
				return nil
			}
			*state = StatusConnected
			return nil
		}
	}

	var g errgroup.Group
	if h.db != nil {
		g.Go(probe("neo4j", h.db, &resp.Database))
	}
	if h.cache != nil {
		g.Go(probe("redis", h.cache, &resp.Cache))
	}
	_ = g.Wait()

	if resp.Database == StatusDisconnected || resp.Cache == StatusDisconnected {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Info handles GET /api/info endpoint.
// Returns API metadata including version, environment, and uptime.
func (h *HealthHandler) Info(c *gin.Context) {
	uptime := time.Since(h.startTime)

	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(uptime),
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
