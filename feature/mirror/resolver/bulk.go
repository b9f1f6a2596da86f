package resolver

import (
	"context"
	"fmt"
	"strings"

	"stock-mirror/feature/mirror/models"

	"go.uber.org/zap"
)

// BulkRequest is one barcode to resolve, with its optional import hint.
type BulkRequest struct {
	Barcode string
	Hint    *Hint
}

// BulkResult maps each requested barcode to its resolution and reports how
// much work each tier did.
type BulkResult struct {
	Resolutions map[string]Resolution
	Stats       models.TierStats
}

// ResolveAll resolves a set of barcodes with as few remote calls as
// possible: cache and store first (no remote calls), then import hints (one
// fetch each), then the leftovers grouped into disjunctive batch searches.
// Barcodes still unresolved after batch search come back Found=false; bulk
// runs never fall back to the exhaustive scan, which would be prohibitively
// slow at catalog scale.
func (r *Resolver) ResolveAll(ctx context.Context, reqs []BulkRequest) (*BulkResult, error) {
	result := &BulkResult{
		Resolutions: make(map[string]Resolution, len(reqs)),
		Stats:       models.NewTierStats(),
	}

	// Dedupe while preserving snapshot order.
	var pending []BulkRequest
	seen := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		barcode := strings.TrimSpace(req.Barcode)
		if barcode == "" {
			continue
		}
		if _, dup := seen[barcode]; dup {
			continue
		}
		seen[barcode] = struct{}{}
		pending = append(pending, BulkRequest{Barcode: barcode, Hint: req.Hint})
	}

	// Tier 1+2: everything already known locally.
	var unresolved []BulkRequest
	for _, req := range pending {
		if res, ok := r.fromCache(req.Barcode); ok {
			result.add(res)
			continue
		}
		res, ok, err := r.fromStore(ctx, req.Barcode)
		if err != nil {
			return nil, err
		}
		if ok {
			result.add(res)
			continue
		}
		unresolved = append(unresolved, req)
	}

	// Tier 3: import hints, one direct fetch per item, bounded by the
	// shared rate limiter. A failed hint leaves the barcode for batch
	// search instead of failing the whole bulk run.
	var searchable []string
	for _, req := range unresolved {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if req.Hint == nil || req.Hint.VariantID == "" {
			searchable = append(searchable, req.Barcode)
			continue
		}
		res, ok, err := r.fromHint(ctx, req.Barcode, req.Hint)
		if err != nil {
			r.logger.Warn("Import hint lookup failed, falling back to search",
				zap.String("barcode", req.Barcode),
				zap.Error(err),
			)
			searchable = append(searchable, req.Barcode)
			continue
		}
		if ok {
			result.add(res)
			continue
		}
		searchable = append(searchable, req.Barcode)
	}

	// Tier 4: disjunctive batch search over the remainder.
	if err := r.batchSearch(ctx, searchable, result); err != nil {
		return nil, err
	}

	// Whatever is left has no remote counterpart.
	for barcode := range seen {
		if _, ok := result.Resolutions[barcode]; ok {
			continue
		}
		result.Resolutions[barcode] = Resolution{Barcode: barcode, Found: false}
		result.Stats.NotFound++
	}

	return result, nil
}

// batchSearch runs one query-language search per chunk of barcodes and
// persists every exact-match variant the response contains.
func (r *Resolver) batchSearch(ctx context.Context, barcodes []string, result *BulkResult) error {
	for start := 0; start < len(barcodes); start += r.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + r.cfg.BatchSize
		if end > len(barcodes) {
			end = len(barcodes)
		}
		chunk := barcodes[start:end]

		started := r.clock()
		variants, err := r.api.SearchVariants(ctx, buildBarcodeQuery(chunk), r.cfg.PageSize)
		if err != nil {
			// The chunk's barcodes stay unresolved; the orchestrator
			// records them as skipped rather than aborting the run. The
			// message keeps the audit record from reading a remote
			// failure as genuine absence.
			r.logger.Error("Batch search failed",
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			for _, barcode := range chunk {
				if _, ok := result.Resolutions[barcode]; ok {
					continue
				}
				result.Resolutions[barcode] = Resolution{
					Barcode: barcode,
					Message: "batch search failed",
				}
				result.Stats.NotFound++
			}
			continue
		}

		byBarcode := make(map[string]int, len(variants))
		for i := range variants {
			barcode := strings.TrimSpace(variants[i].Barcode)
			if barcode == "" {
				continue
			}
			if _, dup := byBarcode[barcode]; !dup {
				byBarcode[barcode] = i
			}
		}

		for _, barcode := range chunk {
			idx, ok := byBarcode[barcode]
			if !ok {
				continue
			}
			res, err := r.persist(ctx, barcode, &variants[idx], models.DiscoveryBatch, started)
			if err != nil {
				return err
			}
			result.add(res)
		}
	}
	return nil
}

func (b *BulkResult) add(res Resolution) {
	b.Resolutions[res.Barcode] = res
	b.Stats.Record(res.Method)
}

// buildBarcodeQuery renders a disjunctive exact-match query, e.g.
// barcode:"111" OR barcode:"222".
func buildBarcodeQuery(barcodes []string) string {
	terms := make([]string, 0, len(barcodes))
	for _, barcode := range barcodes {
		terms = append(terms, fmt.Sprintf("barcode:%q", barcode))
	}
	return strings.Join(terms, " OR ")
}
