package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// HandleHealth reports the loaded dataset and variant.
func (h *Handlers) HandleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "sleepboard",
		"variant": h.dash.Variant().Name,
		"rows":    h.dash.Table().Len(),
	})
}

// HandleUp is the container health check: 200 once the table is loaded.
func (h *Handlers) HandleUp(c fiber.Ctx) error {
	if h.dash.Table().Len() == 0 {
		return c.Status(fiber.StatusServiceUnavailable).SendString("dataset empty")
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *Handlers) HandleVersion(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": h.version,
	})
}
