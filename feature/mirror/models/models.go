package models

import "time"

// DiscoveryMethod records which tier resolved a barcode to its remote
// counterpart.
type DiscoveryMethod string

const (
	DiscoveryCache      DiscoveryMethod = "cache"
	DiscoveryPersisted  DiscoveryMethod = "persisted"
	DiscoveryImportHint DiscoveryMethod = "import_hint"
	DiscoveryBatch      DiscoveryMethod = "batch_search"
	DiscoveryExhaustive DiscoveryMethod = "exhaustive_search"
)

// ProductMapping is the durable barcode -> remote identifier association.
// A mapping is only ever written after verification against the remote
// catalog; stale entries are explicitly invalidated, never silently dropped.
type ProductMapping struct {
	Barcode               string          `gorm:"primaryKey;size:64" json:"barcode"`
	RemoteProductID       string          `gorm:"size:64" json:"remote_product_id"`
	RemoteVariantID       string          `gorm:"size:64" json:"remote_variant_id"`
	RemoteInventoryItemID string          `gorm:"size:64" json:"remote_inventory_item_id"`
	DiscoveryMethod       DiscoveryMethod `gorm:"size:32" json:"discovery_method"`
	DiscoveredAt          time.Time       `json:"discovered_at"`
	SearchTimeMS          int64           `json:"search_time_ms"`
	CreatedAt             time.Time       `json:"-"`
	UpdatedAt             time.Time       `json:"-"`
}

// TableName specifies the table name
func (ProductMapping) TableName() string {
	return "product_mappings"
}

// InventoryItem is one row of a store's inventory snapshot. It is owned by
// the external inventory layer and read-only input to the sync engine.
type InventoryItem struct {
	StoreID           string `gorm:"size:64" json:"store_id"`
	ProductID         string `gorm:"size:64" json:"product_id"`
	Barcode           string `gorm:"size:64" json:"barcode"`
	Quantity          int    `json:"quantity"`
	AvailableQuantity int    `json:"available_quantity"`
}

// TableName specifies the table name
func (InventoryItem) TableName() string {
	return "store_inventory"
}

// OutcomeStatus classifies the result of syncing one item.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeError   OutcomeStatus = "error"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// SyncOutcome is the per-item result of one sync run. Ephemeral: it lives
// only inside the run's summary.
type SyncOutcome struct {
	Barcode               string        `json:"barcode"`
	ProductID             string        `json:"product_id"`
	Status                OutcomeStatus `json:"status"`
	Message               string        `json:"message,omitempty"`
	RemoteVariantID       string        `json:"remote_variant_id,omitempty"`
	RemoteInventoryItemID string        `json:"remote_inventory_item_id,omitempty"`
	QuantityBefore        int           `json:"quantity_before"`
	QuantityAfter         int           `json:"quantity_after"`
}

// TierStats counts how many barcodes each discovery tier resolved during a
// bulk resolution, plus how many ended unresolved.
type TierStats struct {
	Counts   map[DiscoveryMethod]int `json:"counts"`
	NotFound int                     `json:"not_found"`
}

// NewTierStats returns an empty, ready-to-increment stats value.
func NewTierStats() TierStats {
	return TierStats{Counts: make(map[DiscoveryMethod]int)}
}

// Record counts one resolution by method.
func (s *TierStats) Record(method DiscoveryMethod) {
	if s.Counts == nil {
		s.Counts = make(map[DiscoveryMethod]int)
	}
	s.Counts[method]++
}

// SyncSummary is the aggregated result of one orchestrator run. The caller
// owns it and is responsible for persisting it as an audit record.
type SyncSummary struct {
	StoreID    string        `json:"store_id"`
	LocationID string        `json:"location_id"`
	Total      int           `json:"total"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Tiers      TierStats     `json:"tiers"`
	Outcomes   []SyncOutcome `json:"outcomes"`
	Error      string        `json:"error,omitempty"`
}
