package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/carsales/internal/middleware"
	"github.com/deppfellow/carsales/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const healthCheckTimeout = 5 * time.Second

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// HealthHandler reports whether the service and its dependencies respond.
type HealthHandler struct {
	Handler
	db    dbPinger
	redis redisPinger
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	h := &HealthHandler{Handler: NewHandler(s)}
	if s.DB != nil {
		h.db = s.DB.Pool
	}
	if s.Redis != nil {
		h.redis = s.Redis
	}
	return h
}

// CheckHealth answers 200 when the database responds and 503 otherwise.
// Redis is reported when configured but does not affect the status: only
// notifications depend on it.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := map[string]any{}
	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	ctx := c.Request().Context()
	isHealthy := true

	if h.db != nil {
		checks["database"] = h.check(ctx, &logger, "database", h.db.Ping)
		if checks["database"].(map[string]any)["status"] != "healthy" {
			isHealthy = false
		}
	} else {
		checks["database"] = map[string]any{"status": "unhealthy", "error": "not configured"}
		isHealthy = false
	}

	if h.redis != nil {
		checks["redis"] = h.check(ctx, &logger, "redis", func(ctx context.Context) error {
			return h.redis.Ping(ctx).Err()
		})
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordHealthCheckError(map[string]any{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Info().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

func (h *HealthHandler) check(ctx context.Context, logger *zerolog.Logger, name string, ping func(context.Context) error) map[string]any {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	checkStart := time.Now()
	err := ping(ctx)
	elapsed := time.Since(checkStart)

	if err != nil {
		logger.Error().
			Err(err).
			Dur("response_time", elapsed).
			Msgf("%s health check failed", name)

		h.recordHealthCheckError(map[string]any{
			"check_type":       name,
			"operation":        "health_check",
			"error_type":       name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})

		return map[string]any{
			"status":        "unhealthy",
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}
	}

	logger.Debug().
		Dur("response_time", elapsed).
		Msgf("%s health check passed", name)

	return map[string]any{
		"status":        "healthy",
		"response_time": elapsed.String(),
	}
}

func (h *HealthHandler) recordHealthCheckError(attrs map[string]any) {
	if h.server.LoggerService != nil && h.server.LoggerService.GetApplication() != nil {
		h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", attrs)
	}
}
