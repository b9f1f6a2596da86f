package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-mirror/core/config"
	"stock-mirror/core/database"
	"stock-mirror/core/logger"
	"stock-mirror/core/middleware/auth"
	"stock-mirror/core/middleware/rayid"
	"stock-mirror/core/remote"
	"stock-mirror/core/storage"
	"stock-mirror/feature/mirror"
	"stock-mirror/feature/mirror/mapping"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title Stock Mirror API
// @version 1.0
// @description API for syncing store inventory to a remote commerce catalog.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the stock mirror server",
	Long:  `Starts the HTTP server exposing sync runs and barcode resolution.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Database connection failed", zap.Error(err))
		}
		if err := mapping.Migrate(db); err != nil {
			logg.Fatal("Mapping schema migration failed", zap.Error(err))
		}
		logg.Info("Connected to database", zap.String("name", cfg.Database.Name))

		// 4. Initialize Remote API Client
		limiter := remote.NewLimiter(cfg.Remote.RatePerSecond, time.Second)
		api := remote.NewClient(cfg.Remote, limiter, logg)

		// 5. Initialize Audit Archiver (Optional)
		var archiver *mirror.Archiver
		if cfg.Sync.AuditEnabled {
			store, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Fatal("Failed to create storage client", zap.Error(err))
			}
			archiver = mirror.NewArchiver(store, cfg.Storage.Bucket, logg)
		}

		// 6. Build the Sync Service
		service := mirror.NewService(api, db, archiver, cfg.Sync, logg)

		// 7. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// Routes
		mirror.NewHandler(service).RegisterRoutes(app)

		// 8. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 9. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
