package changelog

import (
	"go-assetlink/internal/config"
	"go-assetlink/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ChangeLogApi struct {
	Controller *ChangeLogController
	Config     *config.Config
}

func NewChangeLogApi(controller *ChangeLogController, config *config.Config) *ChangeLogApi {
	return &ChangeLogApi{
		Controller: controller,
		Config:     config,
	}
}

func (api *ChangeLogApi) Setup(app *fiber.App) {
	group := app.Group("/api/changelog", middleware.AuthMiddleware(api.Config.SkipAuth))
	group.Get("/", api.Controller.ListEntries)
}
