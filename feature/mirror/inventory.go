package mirror

import (
	"context"
	"fmt"

	"stock-mirror/feature/mirror/models"

	"gorm.io/gorm"
)

// LoadSnapshot reads one store's inventory snapshot from the local
// database. The table belongs to the external inventory layer; the sync
// engine only ever reads it.
func LoadSnapshot(ctx context.Context, db *gorm.DB, storeID string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("product_id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory snapshot for store %s: %w", storeID, err)
	}
	return items, nil
}
