package device

import (
	"go-assetlink/internal/config"
	"go-assetlink/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DeviceApi struct {
	DeviceController *DeviceController
	Config           *config.Config
}

func NewDeviceApi(deviceController *DeviceController, config *config.Config) *DeviceApi {
	return &DeviceApi{
		DeviceController: deviceController,
		Config:           config,
	}
}

func (api *DeviceApi) Setup(app *fiber.App) {
	devices := app.Group("/api/devices", middleware.AuthMiddleware(api.Config.SkipAuth))
	devices.Post("/", api.DeviceController.CreateDevice)
	devices.Get("/", api.DeviceController.ListDevices)
	devices.Get("/:id", api.DeviceController.GetDevice)

	assets := app.Group("/api/assets", middleware.AuthMiddleware(api.Config.SkipAuth))
	assets.Post("/", api.DeviceController.CreateAsset)
	assets.Get("/", api.DeviceController.ListAssets)
	assets.Get("/:id", api.DeviceController.GetAsset)
}
