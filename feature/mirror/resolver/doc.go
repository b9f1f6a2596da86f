// Package resolver discovers the remote catalog record for a local barcode.
//
// Discovery walks an ordered list of tiers and short-circuits on the first
// hit: in-memory cache, persisted mapping, import hint (a remote id supplied
// alongside the barcode by an external import), batch query-language search,
// and finally an exhaustive paginated scan of the whole catalog. Every
// discovery is verified against the remote record's barcode before it is
// persisted; a conflicting record is treated as not found, never trusted.
//
// The bulk resolver partitions a whole inventory snapshot across the cheap
// tiers first and groups the remainder into disjunctive batch searches. It
// never falls back to the exhaustive scan; that tier is reserved for
// interactive single-item lookups, where paging through a few thousand
// records is acceptable.
//
// Not finding a remote counterpart is an expected business outcome (a
// local-only product), so a full miss returns Found=false, not an error.
package resolver
