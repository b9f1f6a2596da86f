package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stock-mirror/core/remote"
	"stock-mirror/feature/mirror/mapping"
	"stock-mirror/feature/mirror/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Tier is one strategy in the ordered discovery fallback chain.
type Tier string

const (
	TierCache       Tier = "cache"
	TierPersisted   Tier = "persisted"
	TierImportHint  Tier = "import_hint"
	TierBatchSearch Tier = "batch_search"
	TierExhaustive  Tier = "exhaustive_search"
)

// DefaultTiers is the single-item discovery pipeline. Batch search is
// bulk-only; the interactive path goes straight from the import hint to the
// exhaustive scan.
func DefaultTiers() []Tier {
	return []Tier{TierCache, TierPersisted, TierImportHint, TierExhaustive}
}

// Hint carries a remote variant id supplied alongside a barcode by an
// external import. AllowEmptyBarcode accepts a hinted record that has no
// barcode at all, for freshly created remote records; without the flag an
// empty remote barcode is a verification mismatch.
type Hint struct {
	VariantID         string
	AllowEmptyBarcode bool
}

// Resolution is the outcome of resolving one barcode. Found=false with a
// nil error means the remote catalog has no counterpart; callers must treat
// that as skipped, not failed.
type Resolution struct {
	Barcode string
	Found   bool
	Method  models.DiscoveryMethod
	Mapping *models.ProductMapping
	// Message distinguishes a failed lookup (e.g. an unreachable batch
	// search) from genuine absence when Found is false.
	Message string
}

// Config tunes the discovery pipeline.
type Config struct {
	// Tiers enables and orders the single-item tiers. Empty means
	// DefaultTiers.
	Tiers []Tier
	// BatchSize is the number of barcodes grouped into one disjunctive
	// search query, bounded by the remote query-length limit.
	BatchSize int
	// PageSize is the page length for exhaustive catalog listing.
	PageSize int
	// PageBudget bounds how many records an exhaustive scan may visit.
	PageBudget int
}

func (c Config) withDefaults() Config {
	if len(c.Tiers) == 0 {
		c.Tiers = DefaultTiers()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 40
	}
	if c.PageSize <= 0 {
		c.PageSize = 250
	}
	if c.PageBudget <= 0 {
		c.PageBudget = 2000
	}
	return c
}

// Resolver discovers remote catalog records for local barcodes and writes
// verified discoveries through to the mapping store and cache.
type Resolver struct {
	api    remote.API
	store  mapping.Store
	cache  *mapping.Cache
	cfg    Config
	logger *zap.Logger
	clock  func() time.Time
	sf     singleflight.Group
}

// New creates a resolver. The cache is an owned component passed in by the
// caller, never ambient state.
func New(api remote.API, store mapping.Store, cache *mapping.Cache, cfg Config, logger *zap.Logger) *Resolver {
	return &Resolver{
		api:    api,
		store:  store,
		cache:  cache,
		cfg:    cfg.withDefaults(),
		logger: logger,
		clock:  time.Now,
	}
}

// Resolve discovers the remote record for one barcode, walking the
// configured tiers in order and short-circuiting on the first hit.
// Concurrent calls for the same barcode are collapsed into one discovery.
func (r *Resolver) Resolve(ctx context.Context, barcode string, hint *Hint) (Resolution, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Resolution{}, fmt.Errorf("barcode is required")
	}

	result, err, _ := r.sf.Do(barcode, func() (any, error) {
		return r.resolve(ctx, barcode, hint)
	})
	if err != nil {
		return Resolution{Barcode: barcode}, err
	}
	return result.(Resolution), nil
}

func (r *Resolver) resolve(ctx context.Context, barcode string, hint *Hint) (Resolution, error) {
	for _, tier := range r.cfg.Tiers {
		if err := ctx.Err(); err != nil {
			return Resolution{Barcode: barcode}, err
		}

		var (
			res Resolution
			ok  bool
			err error
		)
		switch tier {
		case TierCache:
			res, ok = r.fromCache(barcode)
		case TierPersisted:
			res, ok, err = r.fromStore(ctx, barcode)
		case TierImportHint:
			res, ok, err = r.fromHint(ctx, barcode, hint)
		case TierBatchSearch:
			res, ok, err = r.fromSearch(ctx, barcode)
		case TierExhaustive:
			res, ok, err = r.fromExhaustiveScan(ctx, barcode)
		default:
			err = fmt.Errorf("unknown discovery tier %q", tier)
		}
		if err != nil {
			return Resolution{Barcode: barcode}, err
		}
		if ok {
			return res, nil
		}
	}

	return Resolution{Barcode: barcode, Found: false}, nil
}

// fromCache is tier 1: zero remote calls, zero store reads.
func (r *Resolver) fromCache(barcode string) (Resolution, bool) {
	m, ok := r.cache.Get(barcode)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{
		Barcode: barcode,
		Found:   true,
		Method:  models.DiscoveryCache,
		Mapping: m,
	}, true
}

// fromStore is tier 2: a persisted mapping hit populates the cache.
func (r *Resolver) fromStore(ctx context.Context, barcode string) (Resolution, bool, error) {
	m, err := r.store.Get(ctx, barcode)
	if err != nil {
		return Resolution{}, false, err
	}
	if m == nil {
		return Resolution{}, false, nil
	}
	r.cache.Put(m)
	return Resolution{
		Barcode: barcode,
		Found:   true,
		Method:  models.DiscoveryPersisted,
		Mapping: m,
	}, true, nil
}

// fromHint is tier 3: one direct record fetch, verified before trusting.
func (r *Resolver) fromHint(ctx context.Context, barcode string, hint *Hint) (Resolution, bool, error) {
	if hint == nil || hint.VariantID == "" {
		return Resolution{}, false, nil
	}

	started := r.clock()
	variant, err := r.api.GetVariant(ctx, hint.VariantID)
	if err != nil {
		return Resolution{}, false, err
	}
	if variant == nil {
		r.logger.Warn("Import hint points at a missing remote record",
			zap.String("barcode", barcode),
			zap.String("variant_id", hint.VariantID),
		)
		return Resolution{}, false, nil
	}

	remoteBarcode := strings.TrimSpace(variant.Barcode)
	verified := remoteBarcode == barcode ||
		(remoteBarcode == "" && hint.AllowEmptyBarcode)
	if !verified {
		// A conflicting barcode is never silently trusted.
		r.logger.Warn("Import hint verification mismatch",
			zap.String("barcode", barcode),
			zap.String("variant_id", hint.VariantID),
			zap.String("remote_barcode", remoteBarcode),
		)
		return Resolution{}, false, nil
	}

	res, err := r.persist(ctx, barcode, variant, models.DiscoveryImportHint, started)
	if err != nil {
		return Resolution{}, false, err
	}
	return res, true, nil
}

// fromSearch resolves one barcode through the indexed search endpoint.
// Exact barcode equality only; the normalized comparator is reserved for
// the exhaustive tier.
func (r *Resolver) fromSearch(ctx context.Context, barcode string) (Resolution, bool, error) {
	started := r.clock()
	variants, err := r.api.SearchVariants(ctx, buildBarcodeQuery([]string{barcode}), r.cfg.PageSize)
	if err != nil {
		return Resolution{}, false, err
	}
	for i := range variants {
		if strings.TrimSpace(variants[i].Barcode) != barcode {
			continue
		}
		res, err := r.persist(ctx, barcode, &variants[i], models.DiscoveryBatch, started)
		if err != nil {
			return Resolution{}, false, err
		}
		return res, true, nil
	}
	return Resolution{}, false, nil
}

// fromExhaustiveScan is the last-resort tier: page through the catalog
// comparing normalized barcodes until found or the page budget runs out.
// Expensive, so it exists only for remotes without indexed barcode search.
func (r *Resolver) fromExhaustiveScan(ctx context.Context, barcode string) (Resolution, bool, error) {
	started := r.clock()
	cursor := ""
	scanned := 0

	for scanned < r.cfg.PageBudget {
		if err := ctx.Err(); err != nil {
			return Resolution{}, false, err
		}

		variants, next, err := r.api.ListVariants(ctx, cursor, r.cfg.PageSize)
		if err != nil {
			return Resolution{}, false, err
		}
		for i := range variants {
			if !Equivalent(variants[i].Barcode, barcode) {
				continue
			}
			res, err := r.persist(ctx, barcode, &variants[i], models.DiscoveryExhaustive, started)
			if err != nil {
				return Resolution{}, false, err
			}
			return res, true, nil
		}

		scanned += len(variants)
		if next == "" || len(variants) == 0 {
			break
		}
		cursor = next
	}

	r.logger.Debug("Exhaustive scan exhausted without a match",
		zap.String("barcode", barcode),
		zap.Int("scanned", scanned),
	)
	return Resolution{}, false, nil
}

// persist writes a verified discovery through to the store and cache.
func (r *Resolver) persist(ctx context.Context, barcode string, variant *remote.Variant, method models.DiscoveryMethod, started time.Time) (Resolution, error) {
	m := &models.ProductMapping{
		Barcode:               barcode,
		RemoteProductID:       variant.ProductID,
		RemoteVariantID:       variant.ID,
		RemoteInventoryItemID: variant.InventoryItemID,
		DiscoveryMethod:       method,
		DiscoveredAt:          r.clock(),
		SearchTimeMS:          r.clock().Sub(started).Milliseconds(),
	}
	if err := r.store.Put(ctx, m); err != nil {
		return Resolution{}, err
	}
	r.cache.Put(m)

	r.logger.Info("Discovered remote mapping",
		zap.String("barcode", barcode),
		zap.String("variant_id", variant.ID),
		zap.String("method", string(method)),
	)
	return Resolution{
		Barcode: barcode,
		Found:   true,
		Method:  method,
		Mapping: m,
	}, nil
}
