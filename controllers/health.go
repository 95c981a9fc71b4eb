package controllers

import (
	"classdesk_go/services"

	"github.com/gofiber/fiber/v2"
)

// HealthController serves the aggregated report plus liveness and readiness
// probes for the orchestrator.
type HealthController struct {
	service *services.HealthService
}

func NewHealthController(service *services.HealthService) *HealthController {
	if service == nil {
		service = services.NewHealthService("", "")
	}
	return &HealthController{service: service}
}

// GET /health
func (hc *HealthController) GetHealthStatus(c *fiber.Ctx) error {
	report := hc.service.GetHealthReport(c.UserContext())
	return c.Status(hc.service.HTTPStatusForOverall(report.Status)).JSON(report)
}

// GET /health/live answers without touching dependencies.
func (hc *HealthController) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// GET /health/ready
func (hc *HealthController) Readiness(c *fiber.Ctx) error {
	dep, ready := hc.service.Ready(c.UserContext())
	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "database": dep})
	}
	return c.JSON(fiber.Map{"status": "ready", "database": dep})
}
