package handlers

import (
	"time"

	"lendstock/internal/config"
	"lendstock/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

// Root handles the root endpoint
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return response.Success(c, "LendStock API", fiber.Map{
		"service": "lendstock",
		"docs":    "/api/v1",
	})
}

// HealthCheck reports process and database health
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	dbStatus := "up"
	status := fiber.StatusOK
	if err := config.HealthCheck(); err != nil {
		dbStatus = "down"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   dbStatus,
		"uptime":   time.Since(h.startedAt).String(),
		"database": dbStatus,
	})
}

// APIInfo describes the API group
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return response.Success(c, "LendStock API v1", fiber.Map{
		"endpoints": []string{
			"/api/v1/loans",
			"/api/v1/items",
			"/api/v1/admin/reconcile",
		},
	})
}
