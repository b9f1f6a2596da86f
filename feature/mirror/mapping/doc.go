// Package mapping owns the barcode -> remote identifier associations.
//
// The durable store (product_mappings table) is the single source of truth.
// The in-memory Cache is a read-through, TTL-bounded shadow of it and must
// never be treated as authoritative past its TTL.
//
// Two Store implementations exist: a GORM-backed store for production and a
// map-backed MemoryStore for tests and dry runs.
package mapping
