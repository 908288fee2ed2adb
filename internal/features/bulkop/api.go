package bulkop

import (
	"go-assetlink/internal/config"
	"go-assetlink/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type BulkOperationApi struct {
	BulkController *BulkOperationController
	Config         *config.Config
}

func NewBulkOperationApi(bulkController *BulkOperationController, config *config.Config) *BulkOperationApi {
	return &BulkOperationApi{
		BulkController: bulkController,
		Config:         config,
	}
}

func (api *BulkOperationApi) Setup(app *fiber.App) {
	group := app.Group("/api/bulk", middleware.AuthMiddleware(api.Config.SkipAuth))

	group.Post("/validate", api.BulkController.Validate)
	group.Get("/operations", api.BulkController.ListOperations)
	group.Get("/operations/:id", api.BulkController.GetOperation)
	group.Get("/operations/:id/items", api.BulkController.ListItems)
	group.Post("/operations/:id/confirm", api.BulkController.Confirm)
	group.Post("/operations/:id/cancel", api.BulkController.Cancel)
	group.Post("/operations/:id/undo", api.BulkController.Undo)
}
