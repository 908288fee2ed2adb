package bulkop

import (
	"errors"
	"strconv"

	"go-assetlink/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type BulkOperationController struct {
	BulkService BulkOperationService
}

func NewBulkOperationController(bulkService BulkOperationService) *BulkOperationController {
	return &BulkOperationController{
		BulkService: bulkService,
	}
}

func (c *BulkOperationController) Validate(ctx *fiber.Ctx) error {
	var req struct {
		Rows []AssociationRow `json:"rows"`
	}
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	report, err := c.BulkService.Validate(ctx.UserContext(), req.Rows, middleware.ActorID(ctx))
	if err != nil {
		if errors.Is(err, ErrEmptyBatch) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(report)
}

func (c *BulkOperationController) Confirm(ctx *fiber.Ctx) error {
	op, err := c.BulkService.Confirm(ctx.UserContext(), ctx.Params("id"), middleware.ActorID(ctx))
	if err != nil {
		return statusError(ctx, err)
	}
	return ctx.JSON(op)
}

func (c *BulkOperationController) Cancel(ctx *fiber.Ctx) error {
	if err := c.BulkService.Cancel(ctx.UserContext(), ctx.Params("id")); err != nil {
		return statusError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Operation cancelled"})
}

func (c *BulkOperationController) Undo(ctx *fiber.Ctx) error {
	op, err := c.BulkService.Undo(ctx.UserContext(), ctx.Params("id"), middleware.ActorID(ctx))
	if err != nil {
		return statusError(ctx, err)
	}
	return ctx.JSON(op)
}

func (c *BulkOperationController) GetOperation(ctx *fiber.Ctx) error {
	op, err := c.BulkService.GetOperation(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return statusError(ctx, err)
	}
	return ctx.JSON(op)
}

func (c *BulkOperationController) ListOperations(ctx *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(ctx.Query("limit", "50"), 10, 64)

	ops, err := c.BulkService.ListOperations(ctx.UserContext(), limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"operations": ops, "total": len(ops)})
}

func (c *BulkOperationController) ListItems(ctx *fiber.Ctx) error {
	items, err := c.BulkService.ListItems(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return statusError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"items": items, "total": len(items)})
}

func statusError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrOperationNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrInvalidOperationState):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrUndoWindowExpired):
		return ctx.Status(fiber.StatusGone).JSON(fiber.Map{"error": err.Error()})
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
