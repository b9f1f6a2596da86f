package mirror

import (
	"time"

	"stock-mirror/feature/mirror/resolver"
)

// Config holds tuning for the sync engine.
type Config struct {
	// CacheTTLSeconds bounds how long the in-memory mapping cache may
	// shadow the durable store.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"300"`
	// BatchSize is the number of barcodes per disjunctive search query.
	BatchSize int `mapstructure:"batch_size" default:"40"`
	// PageSize is the page length for paginated catalog listing.
	PageSize int `mapstructure:"page_size" default:"250"`
	// PageBudget bounds the exhaustive single-item scan.
	PageBudget int `mapstructure:"page_budget" default:"2000"`
	// AuditEnabled archives each run's summary to object storage.
	AuditEnabled bool `mapstructure:"audit_enabled" default:"true"`
}

// CacheTTL returns the cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ResolverConfig maps the engine tuning onto the resolver pipeline.
func (c Config) ResolverConfig() resolver.Config {
	return resolver.Config{
		BatchSize:  c.BatchSize,
		PageSize:   c.PageSize,
		PageBudget: c.PageBudget,
	}
}
