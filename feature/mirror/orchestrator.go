package mirror

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"stock-mirror/core/remote"
	"stock-mirror/feature/mirror/models"
	"stock-mirror/feature/mirror/resolver"

	"go.uber.org/zap"
)

// Orchestrator drives one store's sync run end to end: locate the remote
// stock location, bulk-resolve every barcode, then push absolute quantity
// updates one item at a time. Item failures are recorded and the run
// continues; only an empty snapshot or a missing location aborts it.
type Orchestrator struct {
	api      remote.API
	resolver *resolver.Resolver
	logger   *zap.Logger
	clock    func() time.Time

	locMu     sync.Mutex
	locations map[string]*remote.Location
}

// NewOrchestrator creates an orchestrator on top of the remote API and the
// discovery pipeline.
func NewOrchestrator(api remote.API, res *resolver.Resolver, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		api:       api,
		resolver:  res,
		logger:    logger,
		clock:     time.Now,
		locations: make(map[string]*remote.Location),
	}
}

// findLocation memoises successful name lookups. Locations rarely change;
// misses are never memoised so a location created later is still found.
func (o *Orchestrator) findLocation(ctx context.Context, name string) (*remote.Location, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	o.locMu.Lock()
	loc, ok := o.locations[key]
	o.locMu.Unlock()
	if ok {
		return loc, nil
	}

	loc, err := FindLocationByName(ctx, o.api, name)
	if err != nil || loc == nil {
		return loc, err
	}
	o.locMu.Lock()
	o.locations[key] = loc
	o.locMu.Unlock()
	return loc, nil
}

// SyncStore runs one sync for the given store. The returned summary is
// always populated, even when the run aborts, so the caller can archive a
// complete audit record. Cancellation stops the run between items; items
// already written stay written and the partial summary is returned along
// with the context error.
func (o *Orchestrator) SyncStore(ctx context.Context, storeID, storeName string, items []models.InventoryItem, hints map[string]resolver.Hint) (*models.SyncSummary, error) {
	started := o.clock()
	summary := &models.SyncSummary{
		StoreID:   storeID,
		Total:     len(items),
		StartedAt: started,
		Tiers:     models.NewTierStats(),
	}
	log := o.logger.With(
		zap.String("store_id", storeID),
		zap.String("store_name", storeName),
	)

	if len(items) == 0 {
		summary.Error = "inventory snapshot is empty"
		summary.Duration = o.clock().Sub(started)
		return summary, fmt.Errorf("nothing to sync: inventory snapshot for store %s is empty", storeID)
	}

	location, err := o.findLocation(ctx, storeName)
	if err != nil {
		summary.Error = err.Error()
		summary.Duration = o.clock().Sub(started)
		return summary, err
	}
	if location == nil {
		// Account for every item so the audit record covers the full
		// snapshot even though nothing was written.
		for _, item := range items {
			summary.Outcomes = append(summary.Outcomes, models.SyncOutcome{
				Barcode:   item.Barcode,
				ProductID: item.ProductID,
				Status:    models.OutcomeSkipped,
				Message:   "remote location not found",
			})
		}
		summary.Skipped = len(items)
		summary.Error = fmt.Sprintf("no remote location named %q", storeName)
		summary.Duration = o.clock().Sub(started)
		log.Error("aborting sync run, store has no remote location")
		return summary, fmt.Errorf("%w: %s", ErrLocationNotFound, storeName)
	}
	summary.LocationID = location.ID
	log = log.With(zap.String("location_id", location.ID))
	log.Info("starting sync run", zap.Int("items", len(items)))

	requests := make([]resolver.BulkRequest, 0, len(items))
	for _, item := range items {
		barcode := strings.TrimSpace(item.Barcode)
		if barcode == "" {
			continue
		}
		req := resolver.BulkRequest{Barcode: barcode}
		if hint, ok := hints[barcode]; ok {
			h := hint
			req.Hint = &h
		}
		requests = append(requests, req)
	}

	bulk, err := o.resolver.ResolveAll(ctx, requests)
	if err != nil {
		summary.Error = err.Error()
		summary.Duration = o.clock().Sub(started)
		return summary, fmt.Errorf("bulk resolution failed: %w", err)
	}
	summary.Tiers = bulk.Stats

	cancelled := false
	for _, item := range items {
		outcome := models.SyncOutcome{
			Barcode:   item.Barcode,
			ProductID: item.ProductID,
		}
		barcode := strings.TrimSpace(item.Barcode)

		switch {
		case cancelled || ctx.Err() != nil:
			cancelled = true
			outcome.Status = models.OutcomeSkipped
			outcome.Message = "run cancelled"
		case barcode == "":
			outcome.Status = models.OutcomeSkipped
			outcome.Message = "missing barcode"
		default:
			res := bulk.Resolutions[barcode]
			if !res.Found {
				outcome.Status = models.OutcomeSkipped
				outcome.Message = res.Message
				if outcome.Message == "" {
					outcome.Message = "no remote counterpart found"
				}
			} else {
				o.pushLevel(ctx, location.ID, item, res.Mapping, &outcome, log)
			}
		}

		switch outcome.Status {
		case models.OutcomeSuccess:
			summary.Successful++
		case models.OutcomeError:
			summary.Failed++
		case models.OutcomeSkipped:
			summary.Skipped++
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	summary.Duration = o.clock().Sub(started)
	log.Info("sync run finished",
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("duration", summary.Duration),
	)
	if cancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}

// pushLevel writes one item's absolute quantity to the remote location and
// fills in the outcome. The before level is informational only; a failed
// read never blocks the write.
func (o *Orchestrator) pushLevel(ctx context.Context, locationID string, item models.InventoryItem, m *models.ProductMapping, outcome *models.SyncOutcome, log *zap.Logger) {
	outcome.RemoteVariantID = m.RemoteVariantID
	outcome.RemoteInventoryItemID = m.RemoteInventoryItemID

	if m.RemoteInventoryItemID == "" {
		outcome.Status = models.OutcomeError
		outcome.Message = "mapping has no inventory item id"
		return
	}

	before, err := o.api.GetInventoryLevel(ctx, m.RemoteInventoryItemID, locationID)
	if err != nil {
		log.Warn("could not read current inventory level",
			zap.String("barcode", item.Barcode),
			zap.Error(err),
		)
		before = 0
	}
	outcome.QuantityBefore = before

	target := item.AvailableQuantity
	if err := o.api.SetInventoryLevel(ctx, m.RemoteInventoryItemID, locationID, target); err != nil {
		outcome.Status = models.OutcomeError
		outcome.Message = err.Error()
		log.Warn("failed to set inventory level",
			zap.String("barcode", item.Barcode),
			zap.Int("quantity", target),
			zap.Error(err),
		)
		return
	}
	outcome.Status = models.OutcomeSuccess
	outcome.QuantityAfter = target
}
