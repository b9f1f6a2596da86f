package cmd

import (
	"context"
	"fmt"
	"time"

	"stock-mirror/core/config"
	"stock-mirror/core/database"
	"stock-mirror/core/logger"
	"stock-mirror/core/remote"
	"stock-mirror/feature/mirror"
	"stock-mirror/feature/mirror/mapping"
	"stock-mirror/feature/mirror/resolver"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the resolve command
	resolveHint       string
	resolveAllowEmpty bool
)

// resolveCmd resolves one barcode through the full discovery pipeline.
var resolveCmd = &cobra.Command{
	Use:   "resolve <barcode>",
	Short: "Resolve a barcode to its remote product",
	Long: `Resolves a single barcode through the full discovery pipeline,
including the exhaustive catalog scan that sync runs skip. The discovered
mapping is persisted so later runs find it immediately.

Examples:
  # Resolve a barcode
  stock-mirror resolve 4006381333931

  # Resolve with an import hint from a migration export
  stock-mirror resolve 4006381333931 --hint gid-123456

  # Trust a hinted variant that has no barcode of its own
  stock-mirror resolve 4006381333931 --hint gid-123456 --allow-empty-barcode`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveHint, "hint", "", "Remote variant ID import hint")
	resolveCmd.Flags().BoolVar(&resolveAllowEmpty, "allow-empty-barcode", false, "Trust a hinted variant without a barcode")

	RootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	barcode := args[0]

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	// Connect to database. Resolution works without one, but discovered
	// mappings would not survive the process.
	db, err := database.Connect(cfg.Database)
	if err != nil {
		l.Warn("Database connection failed, mappings will not be persisted", zap.Error(err))
		db = nil
	} else if err := mapping.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate mapping schema: %w", err)
	}

	// Remote API client
	limiter := remote.NewLimiter(cfg.Remote.RatePerSecond, time.Second)
	api := remote.NewClient(cfg.Remote, limiter, l)

	service := mirror.NewService(api, db, nil, cfg.Sync, l)

	var hint *resolver.Hint
	if resolveHint != "" {
		hint = &resolver.Hint{
			VariantID:         resolveHint,
			AllowEmptyBarcode: resolveAllowEmpty,
		}
	}

	res, err := service.ResolveBarcode(ctx, barcode, hint)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}
	if !res.Found {
		l.Warn("No remote counterpart found", zap.String("barcode", res.Barcode))
		return nil
	}

	l.Info("Resolved barcode",
		zap.String("barcode", res.Barcode),
		zap.String("method", string(res.Method)),
		zap.String("remote_product_id", res.Mapping.RemoteProductID),
		zap.String("remote_variant_id", res.Mapping.RemoteVariantID),
		zap.String("remote_inventory_item_id", res.Mapping.RemoteInventoryItemID),
	)
	return nil
}
