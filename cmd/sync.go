package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"stock-mirror/core/config"
	"stock-mirror/core/database"
	"stock-mirror/core/logger"
	"stock-mirror/core/remote"
	"stock-mirror/core/storage"
	"stock-mirror/feature/mirror"
	"stock-mirror/feature/mirror/mapping"
	"stock-mirror/feature/mirror/models"
	"stock-mirror/feature/mirror/resolver"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	syncStoreName string
	syncHintsFile string
	syncNoAudit   bool
)

// syncCmd performs a one-shot sync run for a single store.
var syncCmd = &cobra.Command{
	Use:   "sync <store-id>",
	Short: "Sync one store's inventory to its remote location",
	Long: `Runs a single sync for the given store: loads the inventory snapshot,
resolves every barcode to its remote product, and pushes absolute quantity
updates to the store's remote stock location.

Import hints can be supplied as a CSV file with lines of the form

  barcode,variant_id[,allow_empty]

where the optional third column marks a hinted variant that legitimately
carries no barcode of its own.

Examples:
  # Sync store 42 to the remote location named "Main Store"
  stock-mirror sync 42 --store-name "Main Store"

  # Sync with import hints from a migration export
  stock-mirror sync 42 --store-name "Main Store" --hints hints.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncStoreName, "store-name", "", "Remote location name to sync to (required)")
	syncCmd.Flags().StringVar(&syncHintsFile, "hints", "", "CSV file with barcode,variant_id import hints")
	syncCmd.Flags().BoolVar(&syncNoAudit, "no-audit", false, "Skip archiving the run summary to object storage")
	_ = syncCmd.MarkFlagRequired("store-name")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storeID := args[0]

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

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := mapping.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate mapping schema: %w", err)
	}

	// Remote API client
	limiter := remote.NewLimiter(cfg.Remote.RatePerSecond, time.Second)
	api := remote.NewClient(cfg.Remote, limiter, l)

	// Audit archiver (optional)
	var archiver *mirror.Archiver
	if cfg.Sync.AuditEnabled && !syncNoAudit {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		archiver = mirror.NewArchiver(client, cfg.Storage.Bucket, l)
	}

	// Import hints
	hints, err := loadHints(syncHintsFile)
	if err != nil {
		return err
	}
	if len(hints) > 0 {
		l.Info("Loaded import hints", zap.Int("count", len(hints)))
	}

	service := mirror.NewService(api, db, archiver, cfg.Sync, l)

	summary, err := service.SyncStore(ctx, storeID, syncStoreName, hints)
	if summary != nil {
		printSyncSummary(l, summary)
	}
	return err
}

// loadHints parses a CSV hints file. Empty lines and lines starting with #
// are ignored.
func loadHints(path string) (map[string]resolver.Hint, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hints file: %w", err)
	}
	defer f.Close()

	hints := make(map[string]resolver.Hint)
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		parts := strings.Split(text, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("hints file line %d: want barcode,variant_id[,allow_empty]", line)
		}
		barcode := strings.TrimSpace(parts[0])
		variantID := strings.TrimSpace(parts[1])
		if barcode == "" || variantID == "" {
			return nil, fmt.Errorf("hints file line %d: barcode and variant_id must not be empty", line)
		}

		hint := resolver.Hint{VariantID: variantID}
		if len(parts) > 2 && strings.TrimSpace(parts[2]) == "allow_empty" {
			hint.AllowEmptyBarcode = true
		}
		hints[barcode] = hint
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hints file: %w", err)
	}
	return hints, nil
}

func printSyncSummary(l *zap.Logger, s *models.SyncSummary) {
	fields := []zap.Field{
		zap.String("store_id", s.StoreID),
		zap.String("location_id", s.LocationID),
		zap.Int("total", s.Total),
		zap.Int("successful", s.Successful),
		zap.Int("failed", s.Failed),
		zap.Int("skipped", s.Skipped),
		zap.Duration("duration", s.Duration),
	}
	for method, count := range s.Tiers.Counts {
		fields = append(fields, zap.Int("tier_"+string(method), count))
	}
	if s.Tiers.NotFound > 0 {
		fields = append(fields, zap.Int("tier_not_found", s.Tiers.NotFound))
	}

	if s.Error != "" {
		l.Error("Sync run aborted: "+s.Error, fields...)
		return
	}
	l.Info("Sync run finished", fields...)

	for _, outcome := range s.Outcomes {
		if outcome.Status == models.OutcomeSuccess {
			continue
		}
		l.Warn("Item not synced",
			zap.String("barcode", outcome.Barcode),
			zap.String("product_id", outcome.ProductID),
			zap.String("status", string(outcome.Status)),
			zap.String("reason", outcome.Message),
		)
	}
}
