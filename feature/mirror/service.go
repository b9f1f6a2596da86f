package mirror

import (
	"context"
	"fmt"
	"sync"

	"stock-mirror/core/remote"
	"stock-mirror/feature/mirror/mapping"
	"stock-mirror/feature/mirror/models"
	"stock-mirror/feature/mirror/resolver"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service bundles the sync engine's moving parts behind one entry point
// shared by the HTTP handlers and the CLI commands.
type Service struct {
	db       *gorm.DB
	store    mapping.Store
	cache    *mapping.Cache
	resolver *resolver.Resolver
	orch     *Orchestrator
	archiver *Archiver
	jobs     *Registry
	logger   *zap.Logger

	runMu sync.Mutex
	runs  map[string]*sync.Mutex
}

// NewService wires the resolver and orchestrator on top of the remote API
// and the local database. Without a database the mapping store degrades to
// an in-memory one, which is enough for one-shot CLI resolution. archiver
// may be nil to disable audit archiving.
func NewService(api remote.API, db *gorm.DB, archiver *Archiver, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	var store mapping.Store
	if db != nil {
		store = mapping.NewStore(db)
	} else {
		store = mapping.NewMemoryStore()
	}
	cache := mapping.NewCache(cfg.CacheTTL(), nil)
	res := resolver.New(api, store, cache, cfg.ResolverConfig(), logger)

	return &Service{
		db:       db,
		store:    store,
		cache:    cache,
		resolver: res,
		orch:     NewOrchestrator(api, res, logger),
		archiver: archiver,
		jobs:     NewRegistry(),
		logger:   logger,
		runs:     make(map[string]*sync.Mutex),
	}
}

// Jobs exposes the job registry to the HTTP layer.
func (s *Service) Jobs() *Registry {
	return s.jobs
}

// SyncStore runs one synchronous sync for a store. Runs for the same
// store are serialized; different stores may sync concurrently. The
// summary is archived before returning when archiving is enabled.
func (s *Service) SyncStore(ctx context.Context, storeID, storeName string, hints map[string]resolver.Hint) (*models.SyncSummary, error) {
	if s.db == nil {
		return nil, fmt.Errorf("sync requires a database connection")
	}

	lock := s.runLock(storeID)
	lock.Lock()
	defer lock.Unlock()

	items, err := LoadSnapshot(ctx, s.db, storeID)
	if err != nil {
		return nil, err
	}

	summary, runErr := s.orch.SyncStore(ctx, storeID, storeName, items, hints)
	s.archive(summary)
	return summary, runErr
}

// StartSyncJob launches a sync in the background and returns the tracking
// job immediately. The run carries its own context so it survives the
// HTTP request that started it; Registry.Cancel stops it between items.
func (s *Service) StartSyncJob(storeID, storeName string, hints map[string]resolver.Hint) Job {
	ctx, cancel := context.WithCancel(context.Background())
	job := s.jobs.Create(storeID, storeName, cancel)

	go func() {
		defer cancel()
		summary, err := s.SyncStore(ctx, storeID, storeName, hints)
		if err != nil {
			s.jobs.Fail(job.ID, summary, err.Error())
			return
		}
		s.jobs.Complete(job.ID, summary)
	}()

	return job
}

// ResolveBarcode resolves a single barcode through the full discovery
// pipeline, exhaustive scan included.
func (s *Service) ResolveBarcode(ctx context.Context, barcode string, hint *resolver.Hint) (resolver.Resolution, error) {
	return s.resolver.Resolve(ctx, barcode, hint)
}

// InvalidateMapping drops a barcode's mapping from both the cache and the
// durable store so the next resolution rediscovers it.
func (s *Service) InvalidateMapping(ctx context.Context, barcode string) error {
	s.cache.Invalidate(barcode)
	return s.store.Invalidate(ctx, barcode)
}

func (s *Service) archive(summary *models.SyncSummary) {
	if s.archiver == nil || summary == nil {
		return
	}
	// Archiving happens after the run, detached from the run's context so
	// a cancelled run still leaves an audit trail.
	if _, err := s.archiver.Archive(context.Background(), summary); err != nil {
		s.logger.Error("failed to archive sync summary",
			zap.String("store_id", summary.StoreID),
			zap.Error(err),
		)
	}
}

func (s *Service) runLock(storeID string) *sync.Mutex {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	lock, ok := s.runs[storeID]
	if !ok {
		lock = &sync.Mutex{}
		s.runs[storeID] = lock
	}
	return lock
}
