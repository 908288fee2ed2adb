package changelog

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type ChangeLogController struct {
	Service ChangeLogService
}

func NewChangeLogController(service ChangeLogService) *ChangeLogController {
	return &ChangeLogController{Service: service}
}

func (c *ChangeLogController) ListEntries(ctx *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(ctx.Query("limit", "100"), 10, 64)

	filter := Filter{
		DeviceID:        ctx.Query("device_id"),
		BulkOperationID: ctx.Query("operation_id"),
	}

	entries, err := c.Service.List(ctx.UserContext(), filter, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"entries": entries, "total": len(entries)})
}
