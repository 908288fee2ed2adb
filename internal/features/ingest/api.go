package ingest

import (
	"go-assetlink/internal/config"
	"go-assetlink/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type IngestApi struct {
	IngestController *IngestController
	Config           *config.Config
}

func NewIngestApi(ingestController *IngestController, config *config.Config) *IngestApi {
	return &IngestApi{
		IngestController: ingestController,
		Config:           config,
	}
}

func (api *IngestApi) Setup(app *fiber.App) {
	group := app.Group("/api/ingest", middleware.AuthMiddleware(api.Config.SkipAuth))

	group.Post("/preview", api.IngestController.PreviewFile)
	group.Get("/operations/:id/export", api.IngestController.ExportOperation)
}
