// Package mirror synchronizes per-store stock levels onto the remote
// commerce catalog.
//
// One sync run takes a store's inventory snapshot, resolves every barcode
// to its remote counterpart (see the resolver subpackage), and pushes
// absolute quantity updates to the matching stock location. Failures are
// isolated per item: a bad item is recorded in its outcome and the run
// moves on. Only two preconditions abort a run early: an empty snapshot,
// and a store name that matches no remote location.
//
// The package also carries the surrounding job runner: an in-memory job
// registry, HTTP handlers to start and observe runs, and an audit archiver
// that writes each run's summary to object storage.
package mirror
