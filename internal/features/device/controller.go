package device

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type DeviceController struct {
	DeviceService DeviceService
}

func NewDeviceController(deviceService DeviceService) *DeviceController {
	return &DeviceController{
		DeviceService: deviceService,
	}
}

func (c *DeviceController) CreateDevice(ctx *fiber.Ctx) error {
	var d Device
	if err := ctx.BodyParser(&d); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	if err := c.DeviceService.CreateDevice(ctx.UserContext(), &d); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(d)
}

func (c *DeviceController) GetDevice(ctx *fiber.Ctx) error {
	d, err := c.DeviceService.GetDevice(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Device not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(d)
}

func (c *DeviceController) ListDevices(ctx *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(ctx.Query("limit", "100"), 10, 64)

	devices, err := c.DeviceService.ListDevices(ctx.UserContext(), limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"devices": devices, "total": len(devices)})
}

func (c *DeviceController) CreateAsset(ctx *fiber.Ctx) error {
	var a Asset
	if err := ctx.BodyParser(&a); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	if err := c.DeviceService.CreateAsset(ctx.UserContext(), &a); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(a)
}

func (c *DeviceController) GetAsset(ctx *fiber.Ctx) error {
	a, err := c.DeviceService.GetAsset(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(a)
}

func (c *DeviceController) ListAssets(ctx *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(ctx.Query("limit", "100"), 10, 64)

	assets, err := c.DeviceService.ListAssets(ctx.UserContext(), limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"assets": assets, "total": len(assets)})
}
