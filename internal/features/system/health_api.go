package system

import (
	"github.com/gofiber/fiber/v2"
)

type HealthApi struct {
}

func NewHealthApi() *HealthApi {
	return &HealthApi{}
}

func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
