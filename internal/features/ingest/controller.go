package ingest

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type IngestController struct {
	IngestService IngestService
}

func NewIngestController(ingestService IngestService) *IngestController {
	return &IngestController{
		IngestService: ingestService,
	}
}

// PreviewFile parses an uploaded CSV/XLSX into ordered rows without creating
// anything; the client submits the rows to the validate endpoint afterwards.
func (c *IngestController) PreviewFile(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	defer file.Close()

	rows, err := c.IngestService.ParseFile(ctx.UserContext(), file, fileHeader.Filename)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"rows": rows, "total": len(rows)})
}

func (c *IngestController) ExportOperation(ctx *fiber.Ctx) error {
	opID := ctx.Params("id")

	f, err := c.IngestService.ExportOperation(ctx.UserContext(), opID)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	defer f.Close()

	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="operation-%s.xlsx"`, opID))

	if err := f.Write(ctx.Response().BodyWriter()); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return nil
}
