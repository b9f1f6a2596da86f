package mapping

import (
	"context"
	"errors"
	"fmt"

	"stock-mirror/feature/mirror/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the persistence contract for product mappings. Get returns
// (nil, nil) when no mapping exists; absence is an expected outcome, not an
// error. Put upserts by barcode and is safe to call concurrently for
// different barcodes.
type Store interface {
	Get(ctx context.Context, barcode string) (*models.ProductMapping, error)
	Put(ctx context.Context, m *models.ProductMapping) error
	// Invalidate removes a mapping explicitly. The engine never deletes
	// mappings on its own; a stale entry must be invalidated and
	// re-discovered.
	Invalidate(ctx context.Context, barcode string) error
}

// gormStore persists mappings in the product_mappings table.
type gormStore struct {
	db *gorm.DB
}

// NewStore creates a GORM-backed mapping store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Migrate creates or updates the product_mappings table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.ProductMapping{}); err != nil {
		return fmt.Errorf("failed to migrate product mappings: %w", err)
	}
	return nil
}

func (s *gormStore) Get(ctx context.Context, barcode string) (*models.ProductMapping, error) {
	var m models.ProductMapping
	err := s.db.WithContext(ctx).
		Where("barcode = ?", barcode).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load mapping for %s: %w", barcode, err)
	}
	return &m, nil
}

func (s *gormStore) Put(ctx context.Context, m *models.ProductMapping) error {
	if m == nil || m.Barcode == "" {
		return fmt.Errorf("mapping requires a barcode")
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "barcode"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"remote_product_id",
				"remote_variant_id",
				"remote_inventory_item_id",
				"discovery_method",
				"discovered_at",
				"search_time_ms",
				"updated_at",
			}),
		}).
		Create(m).Error
	if err != nil {
		return fmt.Errorf("failed to persist mapping for %s: %w", m.Barcode, err)
	}
	return nil
}

func (s *gormStore) Invalidate(ctx context.Context, barcode string) error {
	err := s.db.WithContext(ctx).
		Where("barcode = ?", barcode).
		Delete(&models.ProductMapping{}).Error
	if err != nil {
		return fmt.Errorf("failed to invalidate mapping for %s: %w", barcode, err)
	}
	return nil
}
