package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-assetlink/internal/common/api"
	"go-assetlink/internal/config"
	"go-assetlink/internal/database"
	"go-assetlink/internal/features/bulkop"
	"go-assetlink/internal/features/changelog"
	"go-assetlink/internal/features/device"
	"go-assetlink/internal/features/ingest"
	"go-assetlink/internal/features/maintenance"
	"go-assetlink/internal/features/system"
	"go-assetlink/internal/logger"
	"go-assetlink/internal/middleware"
	"go-assetlink/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for i, route := range routes {
		log.Printf("Setting up route %d: %T\n", i+1, route)
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, deviceRepo device.Repository, opRepo bulkop.OperationRepository, logRepo changelog.ChangeLogRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := deviceRepo.EnsureSchema(ctx); err != nil {
					log.Printf("Failed to ensure device schema: %v", err)
				}
				if err := opRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure operation indexes: %v", err)
				}
				if err := logRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure change log indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Databases
			database.NewDatabase,
			database.NewPostgres,

			// Initialize Repositories
			device.NewRepository,
			changelog.NewChangeLogRepository,
			bulkop.NewOperationRepository,

			// Interface adapter for the engine's association surface
			func(r device.Repository) device.AssociationRepository { return r },

			// Initialize Services
			device.NewDeviceService,
			changelog.NewChangeLogService,
			bulkop.NewBulkOperationService,
			ingest.NewIngestService,
			maintenance.NewService,

			// Initialize Controllers
			device.NewDeviceController,
			changelog.NewChangeLogController,
			bulkop.NewBulkOperationController,
			ingest.NewIngestController,
			system.NewWebSocketController,

			// Initialize API Routes
			AsRoute(device.NewDeviceApi),
			AsRoute(changelog.NewChangeLogApi),
			AsRoute(bulkop.NewBulkOperationApi),
			AsRoute(ingest.NewIngestApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewWebSocketApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, purge *maintenance.Service) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return purge.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return purge.Stop()
					},
				})
			},
			InitializeIndexes,
		),
	)

	app.Run()
}
