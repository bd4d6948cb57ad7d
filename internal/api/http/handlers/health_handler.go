package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	storage     Pinger
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, storage Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, storage: storage}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking the storage backend.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "storage unavailable",
				"details": fiber.Map{"storage": err.Error()},
			},
		})
	}
	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": fiber.Map{"storage": "ok"},
	})
}
