package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"tourismcam/internal/database"
)

// HealthCheck is an alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports the store and Redis. Redis is optional, so a
// missing client does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "memory"
	if s.db != nil {
		storeStatus = "healthy"
		if err := database.Ping(ctx, s.db); err != nil {
			storeStatus = "unhealthy"
		}
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if storeStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": "tourismcam-api",
		"status":  overall,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// GetFeatureFlags returns the flags evaluated for the caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := s.optionalUserID(c)
	return c.JSON(fiber.Map{"flags": s.featureFlags.Snapshot(userID)})
}
